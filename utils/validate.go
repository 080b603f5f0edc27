package utils

import (
	"regexp"
	"strings"
)

func ValidatePhone(phone string) bool {
	matched, _ := regexp.MatchString(`^1[3-9]\d{9}$`, phone)
	return matched
}

// MaskPhone 对外展示时只保留前三位与后两位
func MaskPhone(phone string) string {
	if len(phone) <= 5 {
		return "***"
	}
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}

// ValidateCoordinate 校验纬度/经度是否在合法区间内
func ValidateCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateRadius 安全区半径限制 10~200 米
func ValidateRadius(radiusMeters float64) bool {
	return radiusMeters >= 10 && radiusMeters <= 200
}
