package usecase

import (
	"context"
	"fmt"

	"PulseTrace/internal/domain/models"
	drepo "PulseTrace/internal/domain/repository"
	mid "PulseTrace/internal/middleware"
)

// StreamCollector consumes a live ECG sample stream, segments it into
// fixed-length strips, and feeds each completed strip through the
// pipeline. The core stays offline: every segment is analyzed as a
// self-contained strip.
type StreamCollector struct {
	stream  drepo.SignalStream
	pipe    *mid.StripPipeline
	metrics drepo.Metrics

	source       string
	stripSeconds float64
	seq          int
	buf          []models.Sample
}

// NewStreamCollector creates a new StreamCollector instance.
func NewStreamCollector(stream drepo.SignalStream, pipe *mid.StripPipeline, metrics drepo.Metrics, source string, stripSeconds float64) *StreamCollector {
	if stripSeconds <= 0 {
		stripSeconds = 10
	}
	return &StreamCollector{
		stream:       stream,
		pipe:         pipe,
		metrics:      metrics,
		source:       source,
		stripSeconds: stripSeconds,
	}
}

// IsConnected returns true if the signal stream is connected.
func (c *StreamCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *StreamCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	smCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, smCh, errCh)
	return nil
}

func (c *StreamCollector) consume(ctx context.Context, smCh <-chan models.Sample, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case s := <-smCh:
			c.collect(ctx, s)
		}
	}
}

// collect appends the sample and flushes a strip once the buffered
// span reaches the configured segment length. Out-of-order samples
// reset the buffer rather than producing a non-monotonic strip.
func (c *StreamCollector) collect(ctx context.Context, s models.Sample) {
	if n := len(c.buf); n > 0 && s.T <= c.buf[n-1].T {
		c.metrics.RecordError("stream_out_of_order")
		c.buf = c.buf[:0]
	}
	c.buf = append(c.buf, s)

	if len(c.buf) >= 2 && c.buf[len(c.buf)-1].T-c.buf[0].T >= c.stripSeconds {
		c.seq++
		strip := models.Strip{
			Source:  fmt.Sprintf("%s-%06d", c.source, c.seq),
			Samples: append([]models.Sample(nil), c.buf...),
		}
		c.buf = c.buf[:0]
		_ = c.pipe.Process(ctx, strip)
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *StreamCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
