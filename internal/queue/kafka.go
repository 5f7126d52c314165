package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"westmarch-almanac/internal/models"
)

// ReportPublisher sends daily reports to the downstream bot renderer over
// Kafka, keyed by guild so one guild's reports stay ordered.
type ReportPublisher struct {
	writer *kafka.Writer
}

// NewReportPublisher creates a publisher for the daily report topic.
func NewReportPublisher(brokers []string, topic string) *ReportPublisher {
	return &ReportPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // Partition by key (guild id)
			RequiredAcks: kafka.RequireOne,
			Async:        false, // Synchronous: a lost daily post is user-visible
		},
	}
}

// Publish sends one daily report.
func (p *ReportPublisher) Publish(ctx context.Context, report *models.DailyReport) error {
	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(report.GuildID),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write report message: %w", err)
	}

	return nil
}

// Close closes the publisher.
func (p *ReportPublisher) Close() error {
	return p.writer.Close()
}

// ReportConsumer reads published daily reports, for renderers and tooling.
type ReportConsumer struct {
	reader *kafka.Reader
}

// NewReportConsumer creates a consumer on the daily report topic.
func NewReportConsumer(brokers []string, topic, groupID string) *ReportConsumer {
	return &ReportConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0, // Manual commit
			StartOffset:    kafka.LastOffset,
		}),
	}
}

// Consume fetches the next report message.
func (c *ReportConsumer) Consume(ctx context.Context) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}

// Commit commits the message offset.
func (c *ReportConsumer) Commit(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	return nil
}

// Close closes the consumer.
func (c *ReportConsumer) Close() error {
	return c.reader.Close()
}

// ReportHandler processes one decoded daily report.
type ReportHandler func(ctx context.Context, report *models.DailyReport) error

// ReportSource is the fetch/commit surface TailReports reads from.
type ReportSource interface {
	Consume(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// TailReports reads published reports until the context is cancelled,
// handing each decoded report to handler. A message is committed only
// after its handler call succeeds, so an interrupted tail resumes at the
// first unhandled report.
func TailReports(ctx context.Context, src ReportSource, handler ReportHandler) error {
	for {
		msg, err := src.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var report models.DailyReport
		if err := json.Unmarshal(msg.Value, &report); err != nil {
			return fmt.Errorf("failed to decode report message: %w", err)
		}

		if err := handler(ctx, &report); err != nil {
			return err
		}

		if err := src.Commit(ctx, msg); err != nil {
			return err
		}
	}
}
