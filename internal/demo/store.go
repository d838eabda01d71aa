// Package demo is an in-memory stand-in for the TeamGlow API used for local
// runs and end-to-end tests. It enforces the same role rules as the real
// service but keeps nothing on disk.
package demo

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikhil/teamglow/internal/models"
	teammodels "github.com/nikhil/teamglow/internal/models/teams"
	usermodels "github.com/nikhil/teamglow/internal/models/users"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnknownEmployee    = errors.New("unknown employee")
)

type account struct {
	user         usermodels.User
	passwordHash []byte
}

// Store holds accounts and feedback. Feedback is kept in creation order.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	byEmail  map[string]string
	feedback []*models.Feedback
	now      func() time.Time
	cost     int
}

func NewStore() *Store {
	return &Store{
		accounts: map[string]*account{},
		byEmail:  map[string]string{},
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetHashCost lowers the bcrypt cost, which keeps seeding fast in tests.
func (s *Store) SetHashCost(cost int) {
	s.mu.Lock()
	s.cost = cost
	s.mu.Unlock()
}

// AddUser registers u with password. An empty ID is replaced with a UUID.
func (s *Store) AddUser(u usermodels.User, password string) (usermodels.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.byEmail[email]; exists {
		return usermodels.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return usermodels.User{}, err
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.accounts[u.ID] = &account{user: u, passwordHash: hash}
	s.byEmail[email] = u.ID
	return u, nil
}

// Seed creates the demo team: one manager and three reports sharing password.
func (s *Store) Seed(password string) (manager usermodels.User, employees []usermodels.User, err error) {
	teamID := uuid.NewString()
	manager, err = s.AddUser(usermodels.User{
		Name:   "Sarah Johnson",
		Email:  "sarah@company.com",
		Role:   usermodels.RoleManager,
		TeamID: teamID,
	}, password)
	if err != nil {
		return usermodels.User{}, nil, err
	}

	for _, e := range []struct{ name, email string }{
		{"Mike Chen", "mike@company.com"},
		{"Emily Davis", "emily@company.com"},
		{"John Smith", "john@company.com"},
	} {
		u, err := s.AddUser(usermodels.User{
			Name:      e.name,
			Email:     e.email,
			Role:      usermodels.RoleEmployee,
			TeamID:    teamID,
			ManagerID: manager.ID,
		}, password)
		if err != nil {
			return usermodels.User{}, nil, err
		}
		employees = append(employees, u)
	}
	return manager, employees, nil
}

// Authenticate checks an email/password pair.
func (s *Store) Authenticate(email, password string) (usermodels.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var acc *account
	if ok {
		acc = s.accounts[id]
	}
	s.mu.RUnlock()

	if acc == nil {
		return usermodels.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return usermodels.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

func (s *Store) User(id string) (usermodels.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return usermodels.User{}, false
	}
	return acc.user, true
}

// ListFeedback returns feedback authored by a manager or received by an
// employee, in creation order.
func (s *Store) ListFeedback(userID string) ([]models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}

	out := []models.Feedback{}
	for _, f := range s.feedback {
		if acc.user.IsManager() && f.ManagerID == userID {
			out = append(out, *f)
		} else if !acc.user.IsManager() && f.EmployeeID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

// CreateFeedback stores a draft authored by managerID.
func (s *Store) CreateFeedback(managerID string, d models.Draft) (models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mgr, ok := s.accounts[managerID]
	if !ok || !mgr.user.IsManager() {
		return models.Feedback{}, ErrForbidden
	}
	emp, ok := s.accounts[d.EmployeeID]
	if !ok {
		return models.Feedback{}, ErrUnknownEmployee
	}

	ts := s.timestamp()
	f := &models.Feedback{
		ID:             uuid.NewString(),
		ManagerID:      managerID,
		EmployeeID:     d.EmployeeID,
		ManagerName:    mgr.user.Name,
		EmployeeName:   emp.user.Name,
		Strengths:      d.Strengths,
		AreasToImprove: d.AreasToImprove,
		Sentiment:      d.Sentiment,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	s.feedback = append(s.feedback, f)
	return *f, nil
}

// UpdateFeedback applies changes; only the authoring manager may edit.
func (s *Store) UpdateFeedback(userID, id string, c models.Changes) (models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.find(id)
	if f == nil {
		return models.Feedback{}, ErrNotFound
	}
	if f.ManagerID != userID {
		return models.Feedback{}, ErrForbidden
	}

	if c.Strengths != nil {
		f.Strengths = *c.Strengths
	}
	if c.AreasToImprove != nil {
		f.AreasToImprove = *c.AreasToImprove
	}
	if c.Sentiment != nil {
		f.Sentiment = *c.Sentiment
	}
	f.UpdatedAt = s.timestamp()
	return *f, nil
}

// AcknowledgeFeedback marks feedback as seen by the receiving employee.
// Acknowledging an already acknowledged entry is a no-op.
func (s *Store) AcknowledgeFeedback(userID, id string) (models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.find(id)
	if f == nil {
		return models.Feedback{}, ErrNotFound
	}
	if f.EmployeeID != userID {
		return models.Feedback{}, ErrForbidden
	}

	if f.Acknowledged {
		return *f, nil
	}

	ts := s.timestamp()
	f.Acknowledged = true
	f.AcknowledgedAt = ts
	f.UpdatedAt = ts
	return *f, nil
}

// TeamMembers lists the direct reports of managerID.
func (s *Store) TeamMembers(managerID string) ([]teammodels.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mgr, ok := s.accounts[managerID]
	if !ok || !mgr.user.IsManager() {
		return nil, ErrForbidden
	}

	out := []teammodels.Member{}
	for _, acc := range s.accounts {
		if acc.user.ManagerID == managerID {
			out = append(out, teammodels.Member{ID: acc.user.ID, Name: acc.user.Name, Email: acc.user.Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) find(id string) *models.Feedback {
	for _, f := range s.feedback {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
