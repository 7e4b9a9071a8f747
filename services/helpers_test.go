package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"deluxe-isa/models"
	"deluxe-isa/testutil"

	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.ProgressionEvent
	err    error
}

func (r *recordingSink) Emit(_ context.Context, _ string, ev models.ProgressionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) kinds() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type fixture struct {
	db          *gorm.DB
	sink        *recordingSink
	progression *ProgressionService
	engagement  *EngagementService
	posts       *PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	sink := &recordingSink{}
	progression := NewProgressionService(db, sink, log)
	engagement := NewEngagementService(db, progression, log, DefaultProjectionBatchSize)
	return &fixture{
		db:          db,
		sink:        sink,
		progression: progression,
		engagement:  engagement,
		posts:       NewPostService(db, progression, engagement, log),
	}
}

func (f *fixture) totalXP(t *testing.T, userID string) int64 {
	t.Helper()
	view, err := f.progression.GetProgression(context.Background(), userID)
	if err != nil {
		t.Fatalf("load progression: %v", err)
	}
	return view.TotalXP
}

var errSinkDown = errors.New("sink down")
