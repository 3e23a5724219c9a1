package stock

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
)

// Changed is published by the stock service whenever availability moves.
type Changed struct {
	ProductIDs []int64 `json:"product_ids"`
}

// Invalidator drops cached stock for the given products and reports how many
// caches were affected.
type Invalidator interface {
	InvalidateStock(productIDs []int64) int
}

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer invalidates cached snapshots as stock-change events arrive, so
// the next validation refetches.
type Consumer struct {
	reader MessageReader
	target Invalidator
	log    *slog.Logger
}

func NewConsumer(target Invalidator, topic, groupID string, log *slog.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 1e6,
	})
	return NewConsumerWithReader(reader, target, log)
}

func NewConsumerWithReader(reader MessageReader, target Invalidator, log *slog.Logger) *Consumer {
	return &Consumer{reader: reader, target: target, log: logger.OrDefault(log)}
}

// Run reads until ctx is done.
func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		c.next(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing stock reader", "error", err)
	}
}

func (c *Consumer) next(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.WarnContext(ctx, "error reading stock event", "error", err)
		}
		return
	}

	var event Changed
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.WarnContext(ctx, "error parsing stock event", "offset", m.Offset, "error", err)
		return
	}
	if len(event.ProductIDs) == 0 {
		return
	}

	n := c.target.InvalidateStock(event.ProductIDs)
	c.log.DebugContext(ctx, "stock caches invalidated", "products", event.ProductIDs, "caches", n)
}
