package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	Notifier
	mu     sync.Mutex
	docs   []*EventDocument
	sent   []string
	failed []string
}

func (s *sliceSource) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.State == StateNew {
			d.State = StateClaimed
			return d, nil
		}
	}
	return nil, nil
}

func (s *sliceSource) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *sliceSource) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, id)
	return nil
}

type recordingProducer struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (p *recordingProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	src := &sliceSource{Notifier: NewNotifier(), docs: []*EventDocument{
		{ID: "e1", Name: "booking.requested", Aggregate: "b1", Payload: []byte(`{"booking_id":"b1"}`), State: StateNew},
		{ID: "e2", Name: "review.submitted", Aggregate: "r1", Payload: []byte(`{"review_id":"r1"}`), State: StateNew},
	}}
	prod := &recordingProducer{}
	w := &Worker{Source: src, Producer: prod, TopicPrefix: "dev.", ID: "w1"}

	require.NoError(t, w.drain(context.Background()))

	assert.Equal(t, []string{"dev.booking.events.v1", "dev.review.events.v1"}, prod.topics)
	assert.Equal(t, []string{"e1", "e2"}, src.sent)

	var evt map[string]any
	require.NoError(t, json.Unmarshal(prod.payloads[0], &evt))
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "e1", evt["id"])
	assert.Equal(t, "b1", evt["subject"])
}

func TestWorkerMarksFailedOnPublishError(t *testing.T) {
	src := &sliceSource{Notifier: NewNotifier(), docs: []*EventDocument{
		{ID: "e1", Name: "booking.requested", Payload: []byte(`{}`), State: StateNew},
	}}
	w := &Worker{Source: src, Producer: &recordingProducer{err: errors.New("broker down")}, ID: "w1"}

	require.NoError(t, w.drain(context.Background()))
	assert.Equal(t, []string{"e1"}, src.failed)
	assert.Empty(t, src.sent)
}

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	n.Notify()
	n.Notify()
	<-n.Wake()
	select {
	case <-n.Wake():
		t.Fatal("expected a single pending signal")
	default:
	}
}

func TestNextRetryUsesBackoffSchedule(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}
	now := time.Now()
	assert.WithinDuration(t, now.Add(time.Second), w.nextRetry(0), time.Second)
	assert.WithinDuration(t, now.Add(time.Minute), w.nextRetry(5), time.Second)
}
