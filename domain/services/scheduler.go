package services

import (
	"time"

	"bumpbot/domain/interfaces"
)

type wallClockScheduler struct{}

// NewWallClockScheduler returns a Scheduler backed by time.AfterFunc
func NewWallClockScheduler() interfaces.Scheduler {
	return wallClockScheduler{}
}

func (wallClockScheduler) AfterFunc(d time.Duration, f func()) interfaces.Timer {
	return time.AfterFunc(d, f)
}
