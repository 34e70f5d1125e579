package main

import (
	"regexp"
	"slices"
	"time"
	"unicode/utf8"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72

	dueDateLayout = "2006-01-02"
	dueTimeLayout = "15:04"
)

type validator struct {
	errors map[string]string
	keys   []string
}

func newValidator() *validator {
	return &validator{
		errors: make(map[string]string),
	}
}

func (v *validator) valid() bool {
	return len(v.errors) == 0
}

// message returns the first recorded failure.
func (v *validator) message() string {
	if v == nil || len(v.keys) == 0 {
		return ""
	}
	return v.errors[v.keys[0]]
}

func (v *validator) addError(key, msg string) {
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
		v.keys = append(v.keys, key)
	}
}

func (v *validator) check(cond bool, key, msg string) {
	if !cond {
		v.addError(key, msg)
	}
}

func (v *validator) checkEmail(email string) {
	v.check(emailRegexp.MatchString(email), "email", "email must be a valid email address")
}

func (v *validator) checkNewPassword(key, password string) {
	v.check(utf8.RuneCountInString(password) >= minPasswordLength, key, "new password must be at least 6 characters long")
	v.check(len(password) <= maxPasswordBytes, key, "new password must be at most 72 bytes long")
}

func (v *validator) checkAvatar(avatar string) {
	v.check(slices.Contains(avatars, avatar), "avatar", "avatar must be one of Bear, Bee, Fox, Panda")
}

func (v *validator) checkStatus(status string) {
	v.check(slices.Contains(taskStatuses, status), "status", "status must be one of Incomplete, In Progress, Completed")
}

func (v *validator) checkDueTime(dueTime string) {
	_, err := time.Parse(dueTimeLayout, dueTime)
	v.check(err == nil, "dueTime", "dueTime must be formatted as HH:MM")
}

// normalizeDueDate accepts a calendar date or an RFC 3339 timestamp and
// returns the calendar date.
func normalizeDueDate(v *validator, dueDate string) string {
	if d, err := time.Parse(dueDateLayout, dueDate); err == nil {
		return d.Format(dueDateLayout)
	}
	if ts, err := time.Parse(time.RFC3339, dueDate); err == nil {
		return ts.UTC().Format(dueDateLayout)
	}
	v.addError("dueDate", "dueDate must be a date formatted as YYYY-MM-DD")
	return ""
}
