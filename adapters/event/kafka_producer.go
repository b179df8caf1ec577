package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

const (
	TopicPortfolioEvents = "portfolio.events"
	TopicViewEvents      = "view.events"
)

const viewPublishTimeout = 5 * time.Second

type KafkaProducerClient struct {
	PortfolioEventsWriter *kafka.Writer
	ViewEventsWriter      *kafka.Writer
	logger                logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'portfolio.events'
	portfolioWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicPortfolioEvents,
		Balancer: &kafka.Hash{},
	}

	// writer 'view.events'
	viewWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicViewEvents,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))

	return &KafkaProducerClient{
		PortfolioEventsWriter: portfolioWriter,
		ViewEventsWriter:      viewWriter,
		logger:                log,
	}, nil
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

// PublishPortfolioEvent keys by user id so one owner's changes stay ordered.
func (c *KafkaProducerClient) PublishPortfolioEvent(ctx context.Context, evt service.PortfolioEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal portfolio event: %w", err)
	}
	return c.PortfolioEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.UserID),
		Value: payload,
	})
}

func (c *KafkaProducerClient) PublishViewEvent(ctx context.Context, evt service.ViewEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal view event: %w", err)
	}
	return c.ViewEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.Slug),
		Value: payload,
	})
}

func (c *KafkaProducerClient) Close() {
	if c.PortfolioEventsWriter != nil {
		c.PortfolioEventsWriter.Close()
	}
	if c.ViewEventsWriter != nil {
		c.ViewEventsWriter.Close()
	}
	c.logger.Info("Closed Kafka Producers")
}

// KafkaViewRecorder hands views to the worker instead of writing them
// inline.
type KafkaViewRecorder struct {
	producer *KafkaProducerClient
	metrics  metrics.Recorder
	logger   logger.Logger
}

func NewKafkaViewRecorder(producer *KafkaProducerClient, rec metrics.Recorder, log logger.Logger) *KafkaViewRecorder {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &KafkaViewRecorder{producer: producer, metrics: rec, logger: log}
}

var _ service.ViewRecorder = (*KafkaViewRecorder)(nil)

func (r *KafkaViewRecorder) RecordView(ctx context.Context, slug string) {
	evt := service.ViewEvent{Slug: slug, OccurredAt: time.Now().UTC()}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewPublishTimeout)
		defer cancel()
		if err := r.producer.PublishViewEvent(ctx, evt); err != nil {
			r.metrics.ViewRecordFailed()
			r.logger.Error("Failed to publish Kafka 'view.events' event", err, zap.String("slug", slug))
		}
	}()
}
