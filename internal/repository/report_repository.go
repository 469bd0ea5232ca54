package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PulseTrace/internal/domain/models"
	"PulseTrace/internal/domain/repository"
	pkgkafka "PulseTrace/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse report storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.Report) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (source, computed_at, mean_hr_bpm, num_beats, duration, beats, v_min, v_max, window_hr_bpm) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.table,
	)
	windowBPM := sql.NullFloat64{}
	if r.WindowHRBPM != nil {
		windowBPM = sql.NullFloat64{Float64: *r.WindowHRBPM, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, q,
		r.Source,
		r.ComputedAt,
		r.MeanHRBPM,
		uint32(r.NumBeats),
		r.Duration,
		r.Beats,
		r.VoltageExtremes[0],
		r.VoltageExtremes[1],
		windowBPM,
	)
	return err
}

func (s *ClickHouseStorage) Query(ctx context.Context, source string, from, to time.Time, limit int) ([]*models.Report, error) {
	q := fmt.Sprintf(
		"SELECT source, computed_at, mean_hr_bpm, num_beats, duration, beats, v_min, v_max, window_hr_bpm FROM %s WHERE source = ? AND computed_at >= ? AND computed_at <= ? ORDER BY computed_at DESC LIMIT ?",
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, q, source, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var (
			r         models.Report
			numBeats  uint32
			windowBPM sql.NullFloat64
		)
		if err := rows.Scan(
			&r.Source,
			&r.ComputedAt,
			&r.MeanHRBPM,
			&numBeats,
			&r.Duration,
			&r.Beats,
			&r.VoltageExtremes[0],
			&r.VoltageExtremes[1],
			&windowBPM,
		); err != nil {
			return nil, err
		}
		r.NumBeats = int(numBeats)
		if windowBPM.Valid {
			v := windowBPM.Float64
			r.WindowHRBPM = &v
		}
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka report events.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka report publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.Report) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Source), r)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
