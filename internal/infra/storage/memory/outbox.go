package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	appoutbox "staylane/internal/app/outbox"
	infraoutbox "staylane/internal/infra/outbox"
)

// Outbox keeps event records in memory and hands them to the relay worker
// with the same claim protocol as the Mongo store.
type Outbox struct {
	infraoutbox.Notifier

	mu      sync.Mutex
	records map[string]*infraoutbox.EventDocument
}

func NewOutbox() *Outbox {
	return &Outbox{
		Notifier: infraoutbox.NewNotifier(),
		records:  make(map[string]*infraoutbox.EventDocument),
	}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records[record.ID] = &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     append([]byte(nil), record.Payload...),
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       infraoutbox.StateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.Notify()
	return nil
}

// Claim returns the oldest due record, or nil when none is waiting.
func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	var due []*infraoutbox.EventDocument
	for _, doc := range o.records {
		if (doc.State == infraoutbox.StateNew || doc.State == infraoutbox.StateFailed) && !doc.NextAttempt.After(now) {
			due = append(due, doc)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	doc := due[0]
	doc.State = infraoutbox.StateClaimed
	doc.ClaimedBy = workerID
	doc.ClaimedAt = now
	claimed := *doc
	return &claimed, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc, ok := o.records[id]; ok {
		doc.State = infraoutbox.StateSent
		doc.SentAt = time.Now().UTC()
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc, ok := o.records[id]; ok {
		doc.State = infraoutbox.StateFailed
		doc.NextAttempt = next
		doc.LastError = errMsg
		doc.Attempts++
	}
	return nil
}

// Pending lists records not yet sent, oldest first.
func (o *Outbox) Pending() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.records))
	for _, doc := range o.records {
		if doc.State != infraoutbox.StateSent {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
