package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_PublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "none")

	err := p.Publish(context.Background(), "forecasts", []byte("AAPL"), map[string]float64{"price": 1.5})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages=%d", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "forecasts" || string(m.Key) != "AAPL" {
		t.Fatalf("message=%+v", m)
	}
	var body map[string]float64
	if err := json.Unmarshal(m.Value, &body); err != nil || body["price"] != 1.5 {
		t.Fatalf("value=%s err=%v", m.Value, err)
	}

	_ = p.Close()
	if !w.closed {
		t.Fatalf("writer not closed")
	}
}

func TestProducer_PublishWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newProducer(&fakeWriter{err: boom}, "none")
	if err := p.Publish(context.Background(), "t", nil, "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = p.Close()
}

func TestParseCompression(t *testing.T) {
	if parseCompression("none") != 0 || parseCompression("gzip") != kafka.Gzip {
		t.Fatalf("unexpected compression mapping")
	}
}
