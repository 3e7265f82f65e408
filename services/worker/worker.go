package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sjsage522/productscout/logger"
)

// Task is one independent unit of work, e.g. a (query, site) cell
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs tasks with bounded concurrency. A failing or panicking task never
// cancels its siblings.
type Pool struct {
	size int
	log  *logger.Logger
}

// NewPool creates a pool running at most size tasks at once
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: size, log: logger.ForWorker()}
}

// Run executes every task and returns their errors aligned with tasks.
// Tasks not yet started when ctx ends record ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))
	var g errgroup.Group
	g.SetLimit(p.size)

	for i, task := range tasks {
		g.Go(func() error {
			errs[i] = p.runTask(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (p *Pool) runTask(ctx context.Context, task Task) (err error) {
	log := p.log.WithField("task", task.Name)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
			log.Error().Interface("panic", r).Msg("Task panicked")
		}
	}()

	start := time.Now()
	err = task.Run(ctx)
	log.Debug().Dur("elapsed", time.Since(start)).Bool("ok", err == nil).Msg("Task finished")
	return err
}
