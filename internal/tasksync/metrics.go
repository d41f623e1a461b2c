package tasksync

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type metrics struct {
	users metric.Int64Counter
	tasks metric.Int64Counter
}

var (
	outcomeSynced   = metric.WithAttributes(attribute.String("outcome", "synced"))
	outcomeFailed   = metric.WithAttributes(attribute.String("outcome", "failed"))
	outcomeInserted = metric.WithAttributes(attribute.String("outcome", "inserted"))
	outcomeSkipped  = metric.WithAttributes(attribute.String("outcome", "skipped"))
)

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("tasksync")
	}
	users, err := meter.Int64Counter("tasksync.users",
		metric.WithDescription("Users processed by sync runs, by outcome."),
		metric.WithUnit("{user}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create users counter: %w", err)
	}
	tasks, err := meter.Int64Counter("tasksync.tasks",
		metric.WithDescription("LMS tasks seen by sync runs, by outcome."),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tasks counter: %w", err)
	}
	return &metrics{users: users, tasks: tasks}, nil
}

func (m *metrics) recordUser(ctx context.Context, ok bool) {
	if ok {
		m.users.Add(ctx, 1, outcomeSynced)
		return
	}
	m.users.Add(ctx, 1, outcomeFailed)
}

func (m *metrics) recordTasks(ctx context.Context, inserted, skipped int) {
	if inserted > 0 {
		m.tasks.Add(ctx, int64(inserted), outcomeInserted)
	}
	if skipped > 0 {
		m.tasks.Add(ctx, int64(skipped), outcomeSkipped)
	}
}
