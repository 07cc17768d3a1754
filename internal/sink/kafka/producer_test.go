package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/hamed0406/metaprobe/internal/domain"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestProducer_PublishesRunKeyedByID(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "metaprobe-runs"}

	run := &domain.Run{ID: "run-7", Endpoint: "http://meta/api", Summary: domain.Summary{Passed: 2, Total: 2}}
	if err := p.Publish(context.Background(), run); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "run-7" {
		t.Fatalf("unexpected messages: %+v", w.msgs)
	}
	var got domain.Run
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("value not JSON: %v", err)
	}
	if got.Summary != run.Summary || got.Endpoint != run.Endpoint {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestProducer_WrapsWriteError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("no brokers")}, topic: "t"}
	err := p.Publish(context.Background(), &domain.Run{ID: "x"})
	if err == nil || !errors.Is(err, p.writer.(*fakeWriter).err) {
		t.Fatalf("want wrapped write error, got %v", err)
	}
}
