package di

import (
	"context"
	"fmt"
	"time"

	"PulseTrace/internal/domain/models"
	"PulseTrace/internal/domain/repository"
	domsvc "PulseTrace/internal/domain/service"
	"PulseTrace/internal/handler/api"
	mid "PulseTrace/internal/middleware"
	"PulseTrace/internal/report"
	internalrepo "PulseTrace/internal/repository"
	icache "PulseTrace/internal/service/cache"
	"PulseTrace/internal/service/devicews"
	"PulseTrace/internal/services/analysis"
	"PulseTrace/internal/usecase"
	pkgch "PulseTrace/pkg/clickhouse"
	"PulseTrace/pkg/config"
	xhttp "PulseTrace/pkg/http"
	pkgkafka "PulseTrace/pkg/kafka"
	applogger "PulseTrace/pkg/logger"
	"PulseTrace/pkg/metrics"
	"PulseTrace/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when
// storage is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	table := db + "." + cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + table + ` (
			source String,
			computed_at DateTime64(3, 'UTC'),
			mean_hr_bpm Float64,
			num_beats UInt32,
			duration Float64,
			beats Array(Float64),
			v_min Float64,
			v_max Float64,
			window_hr_bpm Nullable(Float64)
		) ENGINE=MergeTree ORDER BY (source, computed_at)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideStorage creates the ClickHouse report store when enabled.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled or no reports topic is configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.ReportsTopic == "" {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka report publisher when enabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ReportsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer for inbound strips, or
// nil when Kafka is disabled or no strips topic is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.StripsTopic == "" {
		return nil, nil
	}

	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCache builds the report cache: in-memory always, fronted by
// Redis when configured.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	mem := icache.NewMemory()
	if !cfg.Cache.Redis.Enabled {
		return mem
	}
	rds := icache.NewRedis(icache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	return icache.NewFallback(rds, mem)
}

// ProvideStrategy builds the beat detection threshold strategy.
func ProvideStrategy(cfg *config.Config) (domsvc.ThresholdStrategy, error) {
	return analysis.NewStrategy(
		cfg.Analysis.ThresholdStrategy,
		cfg.Analysis.ThresholdFraction,
		cfg.Analysis.ThresholdValue,
	)
}

// ProvideGate builds the heart rate plausibility gate.
func ProvideGate(cfg *config.Config) domsvc.Gate {
	return analysis.NewGate(cfg.Analysis.MinBPM, cfg.Analysis.MaxBPM)
}

// ProvideWindow builds the default windowed BPM range, nil when
// windowed BPM is off.
func ProvideWindow(cfg *config.Config) *models.Window {
	if !cfg.Analysis.WindowEnabled {
		return nil
	}
	return &models.Window{Start: cfg.Analysis.WindowStart, End: cfg.Analysis.WindowEnd}
}

// ProvideStripProcessor creates the strip analysis use case.
func ProvideStripProcessor(
	strategy domsvc.ThresholdStrategy,
	gate domsvc.Gate,
	window *models.Window,
	store repository.Storage,
	pub repository.Publisher,
	cache icache.BytesCache,
	m repository.Metrics,
) *usecase.StripProcessor {
	return usecase.NewStripProcessor(strategy, gate, window, store, pub, cache, m)
}

// ProvideFileWriter creates the JSON report writer for batch mode.
func ProvideFileWriter(cfg *config.Config) *report.FileWriter {
	return report.NewFileWriter(cfg.Batch.OutputDir)
}

// ProvideBatchRunner creates the batch use case.
func ProvideBatchRunner(
	proc *usecase.StripProcessor,
	writer *report.FileWriter,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.BatchRunner {
	return usecase.NewBatchRunner(proc, writer, logger, cfg.Batch.Workers, cfg.Batch.PerFileLogs)
}

// ProvideSignalStream creates the device gateway WebSocket stream, or
// nil when streaming is disabled.
func ProvideSignalStream(cfg *config.Config) repository.SignalStream {
	if !cfg.Stream.Enabled {
		return nil
	}
	return devicews.New(
		cfg.Stream.Token,
		cfg.Stream.GatewayURL,
		cfg.Stream.DeviceID,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideStreamCollector creates the live stream collector with its
// buffering pipeline, or nil when streaming is disabled.
func ProvideStreamCollector(
	stream repository.SignalStream,
	proc *usecase.StripProcessor,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.StreamCollector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewStripPipeline(proc, m, mid.WithBufferSize(64))
	return usecase.NewStreamCollector(stream, pipe, m, cfg.Stream.DeviceID, cfg.Stream.StripSeconds)
}

// ProvideKafkaStripsHandler registers the handler for the inbound
// strips topic, or nil when the consumer is disabled.
func ProvideKafkaStripsHandler(
	consumer *pkgkafka.Consumer,
	proc *usecase.StripProcessor,
	m repository.Metrics,
	cfg *config.Config,
) pkgkafka.MessageHandler {
	if consumer == nil {
		return nil
	}
	return usecase.NewKafkaStripsHandler(cfg.Kafka.StripsTopic, proc, m)
}

// ProvideHTTPHandler creates the reports API handler.
func ProvideHTTPHandler(
	logger *applogger.Logger,
	proc *usecase.StripProcessor,
	store repository.Storage,
) xhttp.Handler {
	return api.NewReportsEchoHandler(logger, proc, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	runner *usecase.BatchRunner,
	collector *usecase.StreamCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, logger, runner, collector, consumer, kh, producer, chClient)
	app.SetHTTPHandler(httpHandler)
	return app
}
