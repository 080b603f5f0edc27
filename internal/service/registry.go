package service

import (
	"sync"
	"time"
)

// TimerRegistry 记录在途倒计时，alertID 到取消句柄的映射
// 注册与取消都可能和 HTTP 处理并发，整体由互斥锁保护
// 注册表不持久化，进程重启后由 RecoverOnStartup 重建
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{
		timers: make(map[int64]*time.Timer),
	}
}

// Register 为 alertID 注册一个倒计时，已存在时返回 false 且不产生任何副作用
// fire 在到期时于独立 goroutine 执行，执行前注册项已被移除
func (r *TimerRegistry) Register(alertID int64, d time.Duration, fire func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.timers[alertID]; exists {
		return false
	}

	r.timers[alertID] = time.AfterFunc(d, func() {
		r.remove(alertID)
		fire()
	})
	return true
}

// Cancel 取消 alertID 的倒计时，调用返回即可确定是否成功
// 定时器已触发或不存在时返回 false
func (r *TimerRegistry) Cancel(alertID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.timers[alertID]
	if !exists {
		return false
	}
	delete(r.timers, alertID)
	// Stop 返回 false 说明定时器已经开始执行，胜负交给状态 CAS 裁决
	return t.Stop()
}

// Outstanding 当前在途倒计时数量
func (r *TimerRegistry) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Contains alertID 是否有在途倒计时
func (r *TimerRegistry) Contains(alertID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.timers[alertID]
	return exists
}

func (r *TimerRegistry) remove(alertID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, alertID)
}
