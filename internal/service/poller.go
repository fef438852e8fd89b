package service

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
)

// MetricsPoller periodically enqueues metric refresh tasks for every tracked
// channel so view and like counts stay close to the platform's numbers
// without manual syncs.
type MetricsPoller struct {
	videos VideoStore
	tasks  TaskEnqueuer
	cron   *cron.Cron
	spec   string
}

// NewMetricsPoller creates the poller. The spec uses six-field cron syntax
// with seconds.
func NewMetricsPoller(videos VideoStore, tasks TaskEnqueuer, spec string) *MetricsPoller {
	return &MetricsPoller{
		videos: videos,
		tasks:  tasks,
		cron:   cron.New(cron.WithSeconds()),
		spec:   spec,
	}
}

// Start schedules the refresh job and starts the cron loop.
func (p *MetricsPoller) Start(ctx context.Context) error {
	_, err := p.cron.AddFunc(p.spec, func() {
		p.refreshAll(ctx)
	})
	if err != nil {
		return err
	}
	p.cron.Start()
	logger.CtxInfo(ctx, "metrics poller started with schedule %q", p.spec)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (p *MetricsPoller) Stop() {
	<-p.cron.Stop().Done()
}

func (p *MetricsPoller) refreshAll(ctx context.Context) {
	channels, err := p.videos.ListChannels(ctx)
	if err != nil {
		logger.CtxError(ctx, "metrics poll failed to list channels: %v", err)
		return
	}

	for _, channelID := range channels {
		if _, err := p.tasks.Enqueue(ctx, &domain.Task{
			Type:      domain.TaskRefreshMetrics,
			ChannelID: channelID,
		}); err != nil {
			logger.CtxError(ctx, "failed to enqueue metrics refresh for %s: %v", channelID, err)
		}
	}
	logger.CtxInfo(ctx, "enqueued metrics refresh for %d channels", len(channels))
}
