package service

import (
	"context"
	"sync"
	"time"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/queue"
)

// dequeueTimeout bounds each blocking pop so workers notice shutdown.
const dequeueTimeout = 5 * time.Second

// Worker consumes pipeline tasks from the queue with a fixed-size pool.
type Worker struct {
	tasks    *queue.TaskQueue
	pipeline *Pipeline
	channels *ChannelService
	workers  int

	wg sync.WaitGroup
}

// NewWorker creates a queue worker.
func NewWorker(tasks *queue.TaskQueue, pipeline *Pipeline, channels *ChannelService, workers int) *Worker {
	if workers < 1 {
		workers = 1
	}
	return &Worker{
		tasks:    tasks,
		pipeline: pipeline,
		channels: channels,
		workers:  workers,
	}
}

// Run starts the pool and blocks until ctx is cancelled and all in-flight
// tasks have finished.
func (w *Worker) Run(ctx context.Context) {
	logger.CtxInfo(ctx, "starting %d pipeline workers", w.workers)

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.loop(logger.WithField(ctx, "worker", id))
		}(i)
	}

	w.wg.Wait()
	logger.CtxInfo(ctx, "all workers stopped")
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.tasks.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.CtxError(ctx, "dequeue failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.handle(ctx, task)
	}
}

func (w *Worker) handle(ctx context.Context, task *domain.Task) {
	ctx = logger.WithField(ctx, logger.FieldTaskID, task.ID)
	start := time.Now()

	var err error
	switch task.Type {
	case domain.TaskProcessVideo:
		_, err = w.pipeline.ProcessVideo(ctx, task.VideoID, task.Force)
	case domain.TaskRefreshMetrics:
		err = w.channels.RefreshMetrics(ctx, task.ChannelID)
	default:
		logger.CtxWarn(ctx, "dropping unknown task type %q", task.Type)
		return
	}

	if err != nil {
		logger.CtxError(ctx, "task %s failed after %s: %v", task.Type, time.Since(start).Round(time.Millisecond), err)
		return
	}
	logger.CtxInfo(ctx, "task %s done in %s", task.Type, time.Since(start).Round(time.Millisecond))
}
