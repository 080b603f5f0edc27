package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 告警生命周期指标
	AlertsCreatedTotal      metric.Int64Counter
	AlertsTriggeredTotal    metric.Int64Counter
	AlertsCancelledTotal    metric.Int64Counter
	CountdownRecoveredTotal metric.Int64Counter
	ActiveCountdowns        metric.Int64UpDownCounter

	// 胁迫处理指标
	DuressActivationsTotal metric.Int64Counter

	// 通知投递指标
	NotifyAttemptsTotal metric.Int64Counter
	NotifyDuration      metric.Float64Histogram

	// 地理围栏指标
	GeofenceEventsTotal metric.Int64Counter
}

var (
	// 全局指标实例
	metrics *OTelMetrics
	// meter 用于创建指标
	meter = otel.Meter("safewalk")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.AlertsCreatedTotal, err = meter.Int64Counter(
		"alerts_created_total",
		metric.WithDescription("Total number of alerts created"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return err
	}

	metrics.AlertsTriggeredTotal, err = meter.Int64Counter(
		"alerts_triggered_total",
		metric.WithDescription("Total number of alerts that fired their notification fanout"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return err
	}

	metrics.AlertsCancelledTotal, err = meter.Int64Counter(
		"alerts_cancelled_total",
		metric.WithDescription("Total number of alerts cancelled within the countdown window"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return err
	}

	metrics.CountdownRecoveredTotal, err = meter.Int64Counter(
		"countdown_recovered_total",
		metric.WithDescription("Total number of countdowns restored by startup recovery"),
		metric.WithUnit("{countdown}"),
	)
	if err != nil {
		return err
	}

	metrics.ActiveCountdowns, err = meter.Int64UpDownCounter(
		"active_countdowns",
		metric.WithDescription("Number of countdown timers currently registered"),
		metric.WithUnit("{countdown}"),
	)
	if err != nil {
		return err
	}

	metrics.DuressActivationsTotal, err = meter.Int64Counter(
		"duress_activations_total",
		metric.WithDescription("Total number of silent-mode activations via duress password"),
		metric.WithUnit("{activation}"),
	)
	if err != nil {
		return err
	}

	metrics.NotifyAttemptsTotal, err = meter.Int64Counter(
		"notify_attempts_total",
		metric.WithDescription("Total number of notification delivery attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	metrics.NotifyDuration, err = meter.Float64Histogram(
		"notify_duration_seconds",
		metric.WithDescription("Time spent delivering one notification in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.GeofenceEventsTotal, err = meter.Int64Counter(
		"geofence_events_total",
		metric.WithDescription("Total number of geofence events evaluated"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetMetrics 获取全局指标实例
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordAlertCreated 记录告警创建
func RecordAlertCreated(alertType string) {
	m := metrics
	if m == nil {
		return
	}
	m.AlertsCreatedTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", alertType),
	))
}

// RecordAlertTriggered 记录告警触发
func RecordAlertTriggered(alertType string, duress bool) {
	m := metrics
	if m == nil {
		return
	}
	m.AlertsTriggeredTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", alertType),
		attribute.Bool("duress", duress),
	))
}

// RecordAlertCancelled 记录倒计时内撤销
func RecordAlertCancelled(alertType string) {
	m := metrics
	if m == nil {
		return
	}
	m.AlertsCancelledTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", alertType),
	))
}

// RecordCountdownRecovered 记录启动恢复的倒计时
func RecordCountdownRecovered(count int64) {
	m := metrics
	if m == nil {
		return
	}
	m.CountdownRecoveredTotal.Add(context.Background(), count)
}

// AddActiveCountdown 活跃倒计时 +delta
func AddActiveCountdown(delta int64) {
	m := metrics
	if m == nil {
		return
	}
	m.ActiveCountdowns.Add(context.Background(), delta)
}

// RecordDuressActivation 记录静默模式激活
func RecordDuressActivation() {
	m := metrics
	if m == nil {
		return
	}
	m.DuressActivationsTotal.Add(context.Background(), 1)
}

// RecordNotifyAttempt 记录一次通知投递
func RecordNotifyAttempt(channel, recipientClass, status string, durationSeconds float64) {
	m := metrics
	if m == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("recipient_class", recipientClass),
		attribute.String("status", status),
	)
	m.NotifyAttemptsTotal.Add(ctx, 1, attrs)
	m.NotifyDuration.Record(ctx, durationSeconds, attrs)
}

// RecordGeofenceEvent 记录地理围栏事件
func RecordGeofenceEvent(event string, suppressed bool) {
	m := metrics
	if m == nil {
		return
	}
	m.GeofenceEventsTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.Bool("suppressed", suppressed),
	))
}
