package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const resyncTimeout = 10 * time.Second

// UnreadCounter reloads the unread count.
type UnreadCounter interface {
	LoadUnreadCount(ctx context.Context) error
}

// Resyncer periodically reloads the unread count while subscribed, covering
// broadcasts missed during reconnects.
type Resyncer struct {
	cron      *cron.Cron
	schedule  string
	bootstrap *Bootstrap
	counts    UnreadCounter
	logger    *zap.Logger
}

// NewResyncer builds a resyncer running on schedule (standard cron syntax or
// descriptors like "@every 1m").
func NewResyncer(schedule string, bootstrap *Bootstrap, counts UnreadCounter, logger *zap.Logger) *Resyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resyncer{
		cron:      cron.New(),
		schedule:  schedule,
		bootstrap: bootstrap,
		counts:    counts,
		logger:    logger,
	}
}

// Start schedules the job. An empty schedule disables resync.
func (r *Resyncer) Start() error {
	if r.schedule == "" {
		return nil
	}
	if _, err := r.cron.AddFunc(r.schedule, r.tick); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running job.
func (r *Resyncer) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Resyncer) tick() {
	if r.bootstrap.State() != StateSubscribed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()
	if err := r.counts.LoadUnreadCount(ctx); err != nil {
		r.logger.Warn("unread count resync failed", zap.Error(err))
	}
}
