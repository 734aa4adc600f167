package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	name   string
	events []AnalysisEvent
}

func (r *recordingObserver) OnEvent(_ context.Context, e AnalysisEvent) {
	r.events = append(r.events, e)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, AnalysisEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                { return "panicking" }

func TestEventPublisher_SynchronousAndPanicSafe(t *testing.T) {
	p := NewEventPublisher()
	first := &recordingObserver{name: "first"}
	last := &recordingObserver{name: "last"}
	p.Subscribe(first)
	p.Subscribe(panickingObserver{})
	p.Subscribe(last)

	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted, Mode: "ocr"})

	require.Len(t, first.events, 1)
	require.Len(t, last.events, 1, "a panicking observer must not stop delivery")
	assert.False(t, last.events[0].Timestamp.IsZero())
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	p := NewEventPublisher()
	obs := &recordingObserver{name: "obs"}
	p.Subscribe(obs)
	p.Unsubscribe(&recordingObserver{name: "obs"})

	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	assert.Empty(t, obs.events)
}

func TestMetricsObserver_Snapshot(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted, Mode: "shelf"})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, Mode: "shelf", ProcessingTime: 200 * time.Millisecond})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted, Mode: "ocr"})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisFailed, Mode: "ocr", Stage: "empty_response"})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted, Mode: "ocr"})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, Mode: "ocr", ProcessingTime: 400 * time.Millisecond})
	m.OnEvent(ctx, AnalysisEvent{EventType: ImageFetchFailed})

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.TotalAnalyses)
	assert.Equal(t, int64(2), s.SuccessfulAnalyses)
	assert.Equal(t, int64(1), s.FailedAnalyses)
	assert.Equal(t, map[string]int64{"empty_response": 1}, s.FailuresByStage)
	assert.Equal(t, map[string]int64{"shelf": 1, "ocr": 2}, s.AnalysesByMode)
	assert.Equal(t, int64(1), s.ImageFetchFailures)
	assert.InDelta(t, 300.0, s.AvgProcessingTimeMs, 0.001)

	// snapshots are copies
	s.AnalysesByMode["shelf"] = 100
	assert.Equal(t, int64(1), m.Snapshot().AnalysesByMode["shelf"])
}

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx := WithRequestID(context.Background(), "req-1")
	NewLoggingObserver(log).OnEvent(ctx, AnalysisEvent{
		EventType:    AnalysisFailed,
		Mode:         "navigation",
		Stage:        "model_invocation",
		ErrorMessage: "quota exceeded",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "navigation", entry["mode"])
	assert.Equal(t, "model_invocation", entry["stage"])
	assert.Equal(t, "quota exceeded", entry["error"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), "abc")))
}
