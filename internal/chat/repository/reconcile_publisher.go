package repository

import (
	"context"
	"encoding/json"

	"vach_chat_service/internal/chat/domain"
	"vach_chat_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ReconcilePublisher 通知 message / conversation 寫入不一致
type ReconcilePublisher interface {
	Publish(ctx context.Context, ev domain.ReconcileEvent) error
}

// MessageWriter subset of *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaReconcilePublisher struct {
	writer MessageWriter
}

// NewKafkaReconcilePublisher reconcile events keyed by message id
func NewKafkaReconcilePublisher(writer MessageWriter) ReconcilePublisher {
	return &kafkaReconcilePublisher{writer: writer}
}

func (p *kafkaReconcilePublisher) Publish(ctx context.Context, ev domain.ReconcileEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.MessageID),
		Value: data,
	})
}

type logReconcilePublisher struct{}

// NewLogReconcilePublisher used when no broker is configured
func NewLogReconcilePublisher() ReconcilePublisher {
	return logReconcilePublisher{}
}

func (logReconcilePublisher) Publish(_ context.Context, ev domain.ReconcileEvent) error {
	logger.Log.Warn("reconcile event",
		zap.String("message_id", ev.MessageID),
		zap.String("conversation_id", ev.ConversationID),
		zap.Bool("message_stored", ev.MessageStored),
		zap.Bool("append_stored", ev.AppendStored),
		zap.String("reason", ev.Reason),
	)
	return nil
}
