package repository

import (
	"context"
	"time"

	"PulseTrace/internal/domain/models"
)

type SignalStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Sample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, r *models.Report) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.Report) error
	Query(ctx context.Context, source string, from, to time.Time, limit int) ([]*models.Report, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordStripProcessed(source, result string)
	RecordError(kind string)
	RecordLastBPM(source string, bpm float64)
	RecordLatency(op string, seconds float64)
}
