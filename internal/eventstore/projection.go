package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const runStatusRunning = "running"

// RunSummary is a read model summarizing a release run.
type RunSummary struct {
	RunID       string     `json:"run_id"`
	Package     string     `json:"package,omitempty"`
	Status      string     `json:"status"` // "running" or the terminal state
	Kind        string     `json:"kind,omitempty"`
	Version     string     `json:"version,omitempty"`
	DryRun      bool       `json:"dry_run,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Stages      int        `json:"stages"`
	FailedStage string     `json:"failed_stage,omitempty"`
}

// Duration returns how long a finished run took.
func (s *RunSummary) Duration() time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// RunHistoryProjection maintains an in-memory view of run history,
// reconstructed from events stored in the event store.
type RunHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	runs    map[string]*RunSummary
	maxSize int
}

// NewRunHistoryProjection creates a new projection backed by the given store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	return nil
}

// Apply processes a single event and updates the projection.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    runStatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeRunStarted:
		summary.StartedAt = event.Timestamp()
		var payload struct {
			Package string `json:"package"`
			DryRun  bool   `json:"dry_run"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Package = payload.Package
			summary.DryRun = payload.DryRun
		}

	case TypeStageCompleted:
		summary.Stages++
		var payload struct {
			Stage  string `json:"stage"`
			Result string `json:"result"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			if payload.Result == "fatal" && summary.FailedStage == "" {
				summary.FailedStage = payload.Stage
			}
		}

	case TypeRunFinished:
		now := event.Timestamp()
		summary.CompletedAt = &now
		var payload struct {
			State   string `json:"state"`
			Kind    string `json:"kind"`
			Version string `json:"version"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Status = payload.State
			summary.Kind = payload.Kind
			summary.Version = payload.Version
		}
	}
}

// History returns run summaries, newest first, bounded by the projection size.
func (p *RunHistoryProjection) History() []*RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*RunSummary, 0, len(p.runs))
	for _, s := range p.runs {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RunID > out[j].RunID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if len(out) > p.maxSize {
		out = out[:p.maxSize]
	}
	return out
}

// GetRun returns the summary for one run.
func (p *RunHistoryProjection) GetRun(runID string) (*RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.runs[runID]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}
