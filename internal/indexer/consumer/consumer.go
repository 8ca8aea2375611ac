// Package consumer indexes documents delivered on the ingest Kafka topic.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// DocumentEvent is the JSON payload of an ingest message. Status accepts
// the textual form ("ACTUAL", "BANNED", ...) and defaults to ACTUAL.
type DocumentEvent struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

// Indexer is the engine operation the consumer drives.
type Indexer interface {
	AddDocument(id int, text string, status index.Status, ratings []int) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start consumes messages until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that adds every event to idx.
// Messages that cannot be decoded, and documents the engine rejects as
// invalid, are logged and acknowledged so they are not redelivered.
func HandleMessage(idx Indexer) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		if err := idx.AddDocument(event.ID, event.Text, event.Status, event.Ratings); err != nil {
			if isRejected(err) {
				logger.Warn("document rejected",
					"doc_id", event.ID,
					"error", err,
				)
				return nil
			}
			return fmt.Errorf("indexing document %d: %w", event.ID, err)
		}

		logger.Debug("document indexed",
			"doc_id", event.ID,
			"status", event.Status,
		)
		return nil
	}
}

func isRejected(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidDocumentID) ||
		errors.Is(err, apperrors.ErrInvalidWord)
}
