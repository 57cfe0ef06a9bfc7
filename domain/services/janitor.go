package services

import (
	"context"
	"time"

	"bumpbot/domain/entities"
	"bumpbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const janitorDeleteTimeout = 10 * time.Second

// MessageJanitor deletes transient bot messages after a grace period.
// Deletion failures are logged at debug level and otherwise ignored.
type MessageJanitor struct {
	platform  interfaces.ChatPlatform
	scheduler interfaces.Scheduler
}

func NewMessageJanitor(platform interfaces.ChatPlatform, scheduler interfaces.Scheduler) *MessageJanitor {
	return &MessageJanitor{
		platform:  platform,
		scheduler: scheduler,
	}
}

// DeleteAfter schedules ref for deletion. A zero ref is ignored.
func (j *MessageJanitor) DeleteAfter(ref entities.MessageRef, delay time.Duration) {
	if ref.IsZero() {
		return
	}
	j.scheduler.AfterFunc(delay, func() {
		j.DeleteNow(ref)
	})
}

// DeleteNow deletes ref immediately, swallowing failures
func (j *MessageJanitor) DeleteNow(ref entities.MessageRef) {
	if ref.IsZero() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), janitorDeleteTimeout)
	defer cancel()

	if err := j.platform.DeleteMessage(ctx, ref); err != nil {
		log.WithFields(log.Fields{
			"channelID": ref.ChannelID,
			"messageID": ref.MessageID,
			"error":     err,
		}).Debug("Message cleanup failed")
	}
}
