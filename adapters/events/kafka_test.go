package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
	"github.com/satriahrh/jurubahasa/internal/metrics"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
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

func sampleEvent() repositories.ResultEvent {
	return repositories.ResultEvent{
		SessionID:      "session-1",
		CaptureID:      "capture-1",
		SourceLanguage: "en",
		TargetLanguage: "es",
		Phase:          entities.PhaseCompleted,
		Transcript:     "Hello",
		Translation:    "Hola",
		Timestamp:      time.Unix(1700000000, 0).UTC(),
	}
}

func TestNewKafkaPublisher_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no brokers", Config{Topic: "results"}},
		{"empty brokers", Config{Brokers: []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewKafkaPublisher(tt.cfg, nil, zaptest.NewLogger(t))
			assert.False(t, p.Enabled())
			assert.NoError(t, p.PublishResult(context.Background(), sampleEvent()))
			assert.NoError(t, p.Close())
		})
	}
}

func TestNewKafkaPublisher_DefaultTopic(t *testing.T) {
	p := NewKafkaPublisher(Config{}, nil, zaptest.NewLogger(t))
	assert.Equal(t, defaultTopic, p.topic)

	p = NewKafkaPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "custom"}, nil, zaptest.NewLogger(t))
	assert.True(t, p.Enabled())
	assert.Equal(t, "custom", p.topic)
}

func TestKafkaPublisher_PublishResult(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "results", metrics: m, logger: zaptest.NewLogger(t)}

	require.NoError(t, p.PublishResult(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "session-1", string(msg.Key))

	var decoded repositories.ResultEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Hola", decoded.Translation)
	assert.Equal(t, entities.PhaseCompleted, decoded.Phase)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishTotal.WithLabelValues("published")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_PublishResult_WriteError(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "results", metrics: m, logger: zaptest.NewLogger(t)}

	err := p.PublishResult(context.Background(), sampleEvent())
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishTotal.WithLabelValues("error")))
}

func TestKafkaPublisher_LogOnlyCountsEvents(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	p := NewKafkaPublisher(Config{}, m, zaptest.NewLogger(t))

	failed := sampleEvent()
	failed.Phase = entities.PhaseFailed
	failed.Failure = &entities.StageError{Stage: entities.StageTranslation, Kind: entities.KindTranslationFailed, Reason: "quota"}

	require.NoError(t, p.PublishResult(context.Background(), failed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishTotal.WithLabelValues("logged")))
}
