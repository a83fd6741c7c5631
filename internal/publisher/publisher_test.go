package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type recordingPublisher struct {
	got    int
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, events []Event) error {
	p.got += len(events)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

var now = time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)

func TestNewEvent(t *testing.T) {
	s := models.Series{
		MCVID:  "BTC-KRW-UPBIT",
		Ticker: "BTC",
		History: []models.Candle{
			{Date: "2024-02-29"},
			{Date: "2024-03-01", Close: models.Float(100), RSI: models.Float(61.2)},
		},
	}

	e, ok := NewEvent("run-1", "upbit", s, now)
	if !ok {
		t.Fatal("Expected an event")
	}
	if e.Candle.Date != "2024-03-01" || *e.Candle.RSI != 61.2 {
		t.Errorf("Expected the latest candle, got %+v", e.Candle)
	}

	if _, ok := NewEvent("run-1", "upbit", models.Series{MCVID: "EMPTY"}, now); ok {
		t.Error("Expected no event for an empty series")
	}
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, quietLogger())

	events := []Event{
		{RunID: "r", Source: "upbit", MCVID: "BTC-KRW-UPBIT", Ticker: "BTC", Candle: models.Candle{Date: "2024-03-01"}, PublishedAt: now},
		{RunID: "r", Source: "upbit", MCVID: "ETH-KRW-UPBIT", Ticker: "ETH", Candle: models.Candle{Date: "2024-03-01"}, PublishedAt: now},
	}
	if err := p.Publish(context.Background(), events); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "BTC-KRW-UPBIT" {
		t.Errorf("Expected mcv_id key, got %s", w.msgs[0].Key)
	}

	var decoded map[string]any
	if err := json.Unmarshal(w.msgs[1].Value, &decoded); err != nil {
		t.Fatalf("Message is not JSON: %v", err)
	}
	if decoded["mcv_id"] != "ETH-KRW-UPBIT" || decoded["source"] != "upbit" {
		t.Errorf("Unexpected payload %v", decoded)
	}
	candle := decoded["candle"].(map[string]any)
	if _, ok := candle["rsi"]; !ok {
		t.Error("Expected null indicator fields in the payload")
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Expected writer to be closed, err=%v", err)
	}
}

func TestKafkaPublisherError(t *testing.T) {
	p := NewKafkaPublisher(&fakeWriter{err: errors.New("broker down")}, quietLogger())

	err := p.Publish(context.Background(), []Event{{MCVID: "X"}})
	if err == nil {
		t.Error("Expected the writer error")
	}
	if err := p.Publish(context.Background(), nil); err != nil {
		t.Errorf("Expected no write for no events, got %v", err)
	}
}

func TestMulti(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("sink down")}
	m := Multi{ok, failing, Nop{}}

	err := m.Publish(context.Background(), []Event{{MCVID: "A"}, {MCVID: "B"}})
	if err == nil {
		t.Error("Expected the failing sink's error")
	}
	if ok.got != 2 || failing.got != 2 {
		t.Errorf("Expected every sink to receive both events, got %d and %d", ok.got, failing.got)
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !ok.closed || !failing.closed {
		t.Error("Expected every sink to be closed")
	}
}

func TestKey(t *testing.T) {
	if got := Key("yahoo-kr", "005930-KRW-KOSPI"); got != "momentum:yahoo-kr:005930-KRW-KOSPI" {
		t.Errorf("Unexpected key %s", got)
	}
}
