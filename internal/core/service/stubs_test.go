package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/choafros/jdm-vault/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	byName map[string]*domain.User
	order  []string
	nextID int

	findErr   error // if set, FindByUsername returns this error
	createErr error // if set, Create returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byName: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byName[u.Username]; ok {
		return nil, domain.ErrDuplicateUsername
	}
	r.nextID++
	clone := *u
	clone.ID = fmt.Sprintf("u%d", r.nextID)
	r.byName[u.Username] = &clone
	r.order = append(r.order, u.Username)
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) List(context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.order))
	for _, name := range r.order {
		clone := *r.byName[name]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, name := range r.order {
		if r.byName[name].ID == id {
			delete(r.byName, name)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

// stubHasher is reversible so tests stay fast; it counts Verify calls.
type stubHasher struct {
	mu       sync.Mutex
	verifies int
	hashErr  error
}

func (h *stubHasher) Hash(p string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + p, nil
}

func (h *stubHasher) Verify(p, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return hash != "" && strings.TrimPrefix(hash, "hashed:") == p
}

type stubTokens struct {
	issueErr error
	issued   []domain.Claims
}

func (t *stubTokens) Issue(subjectID string, role domain.Role) (string, error) {
	if t.issueErr != nil {
		return "", t.issueErr
	}
	t.issued = append(t.issued, domain.Claims{SubjectID: subjectID, Role: role})
	return "token-for-" + subjectID, nil
}

func (t *stubTokens) Verify(string) (*domain.Claims, error) {
	return nil, errors.New("not implemented")
}

type stubLimiter struct {
	mu       sync.Mutex
	failures map[string]int
	max      int
	err      error
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{failures: make(map[string]int), max: max}
}

func (l *stubLimiter) Blocked(_ context.Context, username string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	return l.max > 0 && l.failures[username] >= l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.failures[username]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	delete(l.failures, username)
	return nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (a *stubAudit) Record(e domain.AuthEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *stubAudit) types() []domain.AuthEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuthEventType, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Type)
	}
	return out
}
