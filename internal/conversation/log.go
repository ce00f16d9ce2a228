package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scamcheck/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the durable backing for a conversation log. Implemented by
// repository.RecordRepository.
type Store interface {
	Insert(ctx context.Context, rec *models.Record) error
	ListByIdentity(ctx context.Context, identityID string) ([]models.Record, error)
}

// Log is an append-only, per-identity sequence of records with live
// subscriptions. Every append fans the full refreshed snapshot out to all
// subscribers of that identity; subscribers get whole snapshots, not diffs,
// and are expected to sort them before rendering.
type Log struct {
	store  Store
	logger *zap.Logger

	mu      sync.Mutex
	subs    map[string]map[int]chan []models.Record
	nextSub int
}

// NewLog creates a conversation log over the given store.
func NewLog(store Store, logger *zap.Logger) *Log {
	return &Log{
		store:  store,
		logger: logger,
		subs:   make(map[string]map[int]chan []models.Record),
	}
}

// Append assigns an id and server timestamp to the draft, persists it and
// notifies subscribers. Store failures are returned to the caller, never
// swallowed. Records are never mutated or removed after a successful append.
func (l *Log) Append(ctx context.Context, identity models.Identity, draft models.RecordDraft) (models.Record, error) {
	now := time.Now().UTC()
	rec := models.Record{
		ID:             uuid.NewString(),
		IdentityID:     identity.ID,
		Text:           draft.Text,
		Sender:         draft.Sender,
		CreatedAt:      &now,
		Classification: draft.Classification,
	}

	if err := l.store.Insert(ctx, &rec); err != nil {
		return models.Record{}, fmt.Errorf("failed to append record: %w", err)
	}

	snapshot, err := l.store.ListByIdentity(ctx, identity.ID)
	if err != nil {
		// The record is durable; only the fan-out snapshot failed.
		l.logger.Error("Failed to load snapshot after append",
			zap.String("identity_id", identity.ID),
			zap.Error(err))
		return rec, nil
	}

	l.notify(identity.ID, snapshot)

	l.logger.Debug("Record appended",
		zap.String("identity_id", identity.ID),
		zap.String("record_id", rec.ID),
		zap.String("sender", string(rec.Sender)))

	return rec, nil
}

// Snapshot returns the current records for an identity, unsorted.
func (l *Log) Snapshot(ctx context.Context, identityID string) ([]models.Record, error) {
	return l.store.ListByIdentity(ctx, identityID)
}

// Subscribe registers a live view on an identity's log. The current snapshot
// is delivered immediately, then an updated one after every append. The
// channel always holds at most the latest snapshot; a slow consumer skips
// intermediate states instead of blocking appends. The returned cancel
// function stops future delivery and closes the channel; in-flight appends
// are unaffected.
func (l *Log) Subscribe(ctx context.Context, identityID string) (<-chan []models.Record, func(), error) {
	snapshot, err := l.store.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load initial snapshot: %w", err)
	}

	ch := make(chan []models.Record, 1)
	ch <- snapshot

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	if l.subs[identityID] == nil {
		l.subs[identityID] = make(map[int]chan []models.Record)
	}
	l.subs[identityID][id] = ch
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[identityID][id]; ok {
			delete(l.subs[identityID], id)
			close(sub)
		}
	}

	return ch, cancel, nil
}

func (l *Log) notify(identityID string, snapshot []models.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ch := range l.subs[identityID] {
		// Replace a stale undelivered snapshot with the latest one.
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// SortByTime orders records for presentation: by CreatedAt ascending, with
// pending records (nil timestamp) after all timestamped ones. The sort is
// stable, so pending records keep their arrival order, which preserves the
// "still sending" placement at the bottom of a conversation.
func SortByTime(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].CreatedAt, records[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
