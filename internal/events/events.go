// Package events publishes pipeline run events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeSnapshotExtracted  = "snapshot.extracted"
	TypeSnapshotNormalized = "snapshot.normalized"
	TypeFileLoaded         = "file.loaded"
)

// Event is one pipeline occurrence, keyed by the object it concerns.
type Event struct {
	Type      string           `json:"type"`
	RunID     string           `json:"run_id"`
	Key       string           `json:"key"`
	Outputs   []string         `json:"outputs,omitempty"`
	Rows      map[string]int64 `json:"rows,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, ...Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Config holds Kafka configuration.
type Config struct {
	Brokers []string
	Topic   string
}

// ParseBrokers splits a comma-separated broker list.
func ParseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// messageWriter is the subset of *kafka.Writer used by Kafka.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON messages keyed by object key.
type Kafka struct {
	writer messageWriter
}

// NewKafka creates a Kafka publisher.
func NewKafka(cfg Config) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			// Lets a first publish succeed in dev clusters before the topic exists.
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish implements Publisher.
func (k *Kafka) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding %s event: %w", e.Type, err)
		}
		msgs[i] = kafka.Message{
			Key:   []byte(e.Key),
			Value: value,
			Time:  e.Timestamp,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(e.Type)},
			},
		}
	}

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d events: %w", len(msgs), err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
