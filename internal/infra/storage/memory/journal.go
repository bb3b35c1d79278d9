package memory

import (
	"context"
	"sync"

	"staylane/internal/app/policies"
)

// ReconciliationJournal keeps incidents in memory when no object storage is configured.
type ReconciliationJournal struct {
	mu        sync.Mutex
	incidents []policies.Incident
}

func NewReconciliationJournal() *ReconciliationJournal {
	return &ReconciliationJournal{}
}

func (j *ReconciliationJournal) Record(ctx context.Context, incident policies.Incident) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.incidents = append(j.incidents, incident)
	return nil
}

func (j *ReconciliationJournal) Incidents() []policies.Incident {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]policies.Incident(nil), j.incidents...)
}

var _ policies.ReconciliationJournal = (*ReconciliationJournal)(nil)
