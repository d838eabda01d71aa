// Package feedback keeps the client-side cache of feedback records and keeps
// it consistent with the API.
//
// The cache only ever holds records the server returned: nothing is created
// optimistically. A failed call leaves the cache exactly as it was.
// Mutations on the same record id are applied in the order they were
// dispatched; a Refresh that resolves after a mutation still replaces the
// whole cache.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/models"
	usermodels "github.com/nikhil/teamglow/internal/models/users"
	"github.com/nikhil/teamglow/internal/service/session"
)

// ErrInvalidInput wraps validation failures for drafts and changes. Nothing is
// sent when it is returned.
var ErrInvalidInput = errors.New("invalid feedback")

// Remote is the subset of the API client used by the store.
type Remote interface {
	ListFeedback(ctx context.Context) ([]models.Feedback, error)
	CreateFeedback(ctx context.Context, draft models.Draft) (models.Feedback, error)
	UpdateFeedback(ctx context.Context, id string, changes models.Changes) (models.Feedback, error)
	AcknowledgeFeedback(ctx context.Context, id string) (models.Feedback, error)
}

type Store struct {
	remote Remote
	Log    *logger.Logger

	mu       sync.RWMutex
	items    []models.Feedback
	inflight int
	// epoch changes on Reset so responses from a previous session are dropped.
	epoch uint64

	ids *keyLock
}

// NewStore creates an empty cache backed by remote.
func NewStore(remote Remote, log *logger.Logger) *Store {
	if remote == nil {
		panic("feedback: NewStore requires a remote")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{remote: remote, Log: log, ids: newKeyLock()}
}

// Bind ties the cache to a session: it loads once the session is
// authenticated and clears when it becomes anonymous. If the session is
// already authenticated the initial load happens immediately.
func (s *Store) Bind(ctx context.Context, sess *session.Store) {
	sess.OnChange(func(state session.State, _ *usermodels.User) {
		switch state {
		case session.StateAuthenticated:
			s.Reset()
			if err := s.Refresh(ctx); err != nil {
				s.Log.Warn("Initial feedback load failed", "error", err)
			}
		case session.StateAnonymous:
			s.Reset()
		}
	})

	if sess.State() == session.StateAuthenticated {
		if err := s.Refresh(ctx); err != nil {
			s.Log.Warn("Initial feedback load failed", "error", err)
		}
	}
}

// Refresh replaces the cache with the server's list. Overlapping refreshes
// are not coordinated; whichever response arrives last wins.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.inflight++
	epoch := s.epoch
	s.mu.Unlock()

	items, err := s.remote.ListFeedback(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if err != nil {
		s.Log.Error("Error fetching feedback", "error", err)
		return err
	}
	if epoch != s.epoch {
		s.Log.Debug("Dropping feedback list from a previous session")
		return nil
	}

	s.items = append(make([]models.Feedback, 0, len(items)), items...)
	s.Log.Debug("Feedback refreshed", "count", len(items))
	return nil
}

// AddFeedback creates feedback and prepends the server's record to the cache.
func (s *Store) AddFeedback(ctx context.Context, draft models.Draft) (models.Feedback, error) {
	if err := models.Validate(draft); err != nil {
		return models.Feedback{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	epoch := s.currentEpoch()
	created, err := s.remote.CreateFeedback(ctx, draft)
	if err != nil {
		s.Log.Error("Error creating feedback", "error", err)
		return models.Feedback{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.Log.Warn("Session changed while creating feedback", "feedback_id", created.ID)
		return created, nil
	}

	items := make([]models.Feedback, 0, len(s.items)+1)
	items = append(items, created)
	s.items = append(items, s.items...)
	return created, nil
}

// UpdateFeedback sends a partial update for id and replaces the cached entry
// in place. Existence is not checked locally; the server decides.
func (s *Store) UpdateFeedback(ctx context.Context, id string, changes models.Changes) (models.Feedback, error) {
	if err := models.Validate(changes); err != nil {
		return models.Feedback{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock := s.ids.Lock(id)
	defer unlock()

	epoch := s.currentEpoch()
	updated, err := s.remote.UpdateFeedback(ctx, id, changes)
	if err != nil {
		s.Log.Error("Error updating feedback", "feedback_id", id, "error", err)
		return models.Feedback{}, err
	}

	s.replace(epoch, id, updated)
	return updated, nil
}

// AcknowledgeFeedback acknowledges id and replaces the cached entry with the
// server's copy. Re-acknowledging is left to the server to accept or reject.
func (s *Store) AcknowledgeFeedback(ctx context.Context, id string) (models.Feedback, error) {
	unlock := s.ids.Lock(id)
	defer unlock()

	epoch := s.currentEpoch()
	acked, err := s.remote.AcknowledgeFeedback(ctx, id)
	if err != nil {
		s.Log.Error("Error acknowledging feedback", "feedback_id", id, "error", err)
		return models.Feedback{}, err
	}

	s.replace(epoch, id, acked)
	return acked, nil
}

// ForEmployee returns cached feedback addressed to employeeID in cache order.
func (s *Store) ForEmployee(employeeID string) []models.Feedback {
	return s.filter(func(f *models.Feedback) bool { return f.EmployeeID == employeeID })
}

// ForManager returns cached feedback authored by managerID in cache order.
func (s *Store) ForManager(managerID string) []models.Feedback {
	return s.filter(func(f *models.Feedback) bool { return f.ManagerID == managerID })
}

// All returns a copy of the cache.
func (s *Store) All() []models.Feedback {
	return s.filter(func(*models.Feedback) bool { return true })
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// IsLoading reports whether a Refresh is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Reset empties the cache and discards responses still in flight.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.epoch++
	s.mu.Unlock()
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Store) replace(epoch uint64, id string, rec models.Feedback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.Log.Warn("Session changed while updating feedback", "feedback_id", id)
		return
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = rec
			return
		}
	}
	s.Log.Debug("Updated feedback not in cache", "feedback_id", id)
}

func (s *Store) filter(keep func(*models.Feedback) bool) []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Feedback{}
	for i := range s.items {
		if keep(&s.items[i]) {
			out = append(out, s.items[i])
		}
	}
	return out
}
