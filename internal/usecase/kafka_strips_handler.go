package usecase

import (
	"context"
	"encoding/json"
	"time"

	"PulseTrace/internal/domain/models"
	domrepo "PulseTrace/internal/domain/repository"
	pkgkafka "PulseTrace/pkg/kafka"
)

// KafkaStripsHandler consumes ECG strip messages from Kafka and runs
// them through the pipeline. Storage and publishing happen inside the
// processor; a processing error is returned so the consumer's retry
// and DLQ machinery can take over.
type KafkaStripsHandler struct {
	topic   string
	proc    *StripProcessor
	metrics domrepo.Metrics
}

func NewKafkaStripsHandler(topic string, proc *StripProcessor, metrics domrepo.Metrics) *KafkaStripsHandler {
	return &KafkaStripsHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaStripsHandler) Topic() string { return h.topic }

// incoming message schema: {"source": "...", "samples": [{"t":..,"v":..}, ...]}
func (h *KafkaStripsHandler) Handle(ctx context.Context, b []byte) error {
	var strip models.Strip
	if err := json.Unmarshal(b, &strip); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	_, err := h.proc.Process(ctx, strip)
	h.metrics.RecordLatency("consume_process", time.Since(start).Seconds())
	// Rejections are terminal for the message; retrying cannot change
	// the verdict, so only errors reach the consumer's retry machinery.
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaStripsHandler)(nil)
