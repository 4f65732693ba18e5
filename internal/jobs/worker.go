package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Worker runs the asynq server that consumes tasks and the scheduler that
// enqueues the periodic purge.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

// NewWorker connects to redisURL. purgeSpec is a cron spec such as
// "@every 1h".
func NewWorker(redisURL string, concurrency int, purgeSpec string, p Purger) (*Worker, error) {
	if redisURL == "" {
		return nil, errors.New("worker: redis url is required")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "worker: parse redis url")
	}
	if concurrency <= 0 {
		concurrency = 2
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"default": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			jww.ERROR.Printf("task %s failed: %v", task.Type(), err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TypePurgeNotifications, NewPurgeHandler(p))

	scheduler := asynq.NewScheduler(opt, nil)
	task, err := NewPurgeTask(time.Time{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(purgeSpec, task); err != nil {
		return nil, errors.Wrapf(err, "worker: schedule purge %q", purgeSpec)
	}
	return &Worker{server: srv, scheduler: scheduler, mux: mux}, nil
}

// Run blocks until ctx is cancelled, then shuts both parts down.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return errors.Wrap(err, "worker: start server")
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return errors.Wrap(err, "worker: start scheduler")
	}
	jww.INFO.Printf("worker running")
	<-ctx.Done()
	w.scheduler.Shutdown()
	w.server.Shutdown()
	return nil
}
