package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.NewZapLogger("development").Fatal("Cannot load config", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting folio worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Worker needs kafka.brokers", errors.New("no brokers configured"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	store, err := persistence.OpenStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open store", err)
	}
	defer store.Close()

	// Worker Use Cases
	processViewUC := portfolioUC.NewProcessViewEventUseCase(store.Portfolios, metrics.Nop{}, appLogger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		consume(ctx, newReader(cfg, event.TopicViewEvents), appLogger, func(ctx context.Context, evt service.ViewEvent) error {
			return processViewUC.Execute(ctx, evt)
		})
	}()

	// Cache purging only matters when the API caches public views.
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		cache := persistence.NewRedisPortfolioCache(redisClient, cfg.Redis.CacheTTL, appLogger)
		processPortfolioUC := portfolioUC.NewProcessPortfolioEventUseCase(cache, appLogger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			consume(ctx, newReader(cfg, event.TopicPortfolioEvents), appLogger, func(ctx context.Context, evt service.PortfolioEvent) error {
				return processPortfolioUC.Execute(ctx, evt)
			})
		}()
	}

	wg.Wait()
	appLogger.Info("Worker stopped")
}

func newReader(cfg config.Config, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

// consume reads until ctx is cancelled. Undecodable messages are committed
// and skipped; failed ones stay uncommitted so the group redelivers them.
func consume[T any](ctx context.Context, reader *kafka.Reader, log logger.Logger, handle func(context.Context, T) error) {
	defer reader.Close()
	topic := reader.Config().Topic
	log.Info("Worker listening", zap.String("topic", topic))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to read message from Kafka", err, zap.String("topic", topic))
			continue
		}

		var payload T
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			log.Warn("Skipping undecodable event", zap.String("topic", topic), zap.Error(err))
			commitMessage(reader, msg, log)
			continue
		}

		if err := handle(ctx, payload); err != nil {
			log.Error("Failed to process event", err, zap.String("topic", topic), zap.ByteString("key", msg.Key))
			continue
		}

		commitMessage(reader, msg, log)
	}
}

func commitMessage(reader *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := reader.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
