package ptrx

import (
	"time"
)

// Bool returns a pointer value for the bool value passed in.
func Bool(v bool) *bool {
	return &v
}

// String returns a pointer value for the string value passed in.
func String(v string) *string {
	return &v
}

// Int returns a pointer value for the int value passed in.
func Int(v int) *int {
	return &v
}

// Time returns a pointer value for the time.Time value passed in.
func Time(v time.Time) *time.Time {
	return &v
}

// ToBool returns the bool value or false when the pointer is nil.
func ToBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

// ToString returns the string value or "" when the pointer is nil.
func ToString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ToInt returns the int value or 0 when the pointer is nil.
func ToInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ToTime returns the time value or the zero time when the pointer is nil.
func ToTime(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
