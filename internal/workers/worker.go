// Package workers - периодические фоновые проходы по базе.
package workers

import (
	"context"
	"sync"
	"time"

	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/metrics"
)

// Worker - одна периодическая задача
type Worker interface {
	Name() string
	RunOnce(ctx context.Context) error
}

// Run выполняет проход сразу и затем по тикеру, пока ctx не отменен
func Run(ctx context.Context, w Worker, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep(ctx, w)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped", "worker", w.Name())
			return
		case <-ticker.C:
			sweep(ctx, w)
		}
	}
}

// RunAll запускает все воркеры и ждет их остановки
func RunAll(ctx context.Context, interval time.Duration, ws ...Worker) {
	var wg sync.WaitGroup
	for _, w := range ws {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			Run(ctx, w, interval)
		}(w)
	}
	wg.Wait()
}

func sweep(ctx context.Context, w Worker) {
	if err := w.RunOnce(ctx); err != nil {
		metrics.WorkerErrorsTotal.WithLabelValues(w.Name()).Inc()
	}
}

// record - общий учет результата одной операции прохода
func record(worker, operation string, affected int64, err error) {
	if err == nil && affected == 0 {
		return
	}
	logger.WorkerLog(worker, operation, affected, err)
	if affected > 0 {
		metrics.WorkerRowsAffected.WithLabelValues(worker, operation).Add(float64(affected))
	}
}
