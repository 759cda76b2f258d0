package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrRefreshPending is returned when a manual refresh is already queued
	ErrRefreshPending = errors.New("refresh already pending")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrAllSourcesFailed marks a run where no channel produced data
	ErrAllSourcesFailed = errors.New("every channel source failed")
)
