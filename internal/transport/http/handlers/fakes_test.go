package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/repository"
)

type fakeEmployeeRepo struct {
	mu           sync.Mutex
	employees    map[string]domain.Employee
	emailLookups int
}

func newFakeEmployeeRepo(employees ...domain.Employee) *fakeEmployeeRepo {
	repo := &fakeEmployeeRepo{employees: make(map[string]domain.Employee)}
	for _, e := range employees {
		repo.employees[e.ID] = e
	}
	return repo
}

func (r *fakeEmployeeRepo) Create(_ context.Context, employee domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if employee, ok := r.employees[id]; ok {
		copied := employee
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emailLookups++
	for _, employee := range r.employees {
		if employee.Email == email {
			copied := employee
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context) ([]domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]domain.Employee, 0, len(r.employees))
	for _, employee := range r.employees {
		list = append(list, employee)
	}
	return list, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, employee domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[employee.ID]; !ok {
		return repository.ErrNotFound
	}
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	employee, ok := r.employees[id]
	if !ok {
		return repository.ErrNotFound
	}
	employee.IsActive = active
	r.employees[id] = employee
	return nil
}

func (r *fakeEmployeeRepo) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emailLookups
}

type fakeSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]domain.Session
	revokeErr error
}

func (r *fakeSessionRepo) setRevokeErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokeErr = err
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = session
	return nil
}

func (r *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[tokenHash]; ok {
		copied := session
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) Revoke(_ context.Context, tokenHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revokeErr != nil {
		return r.revokeErr
	}
	if session, ok := r.sessions[tokenHash]; ok && session.RevokedAt == nil {
		session.RevokedAt = &at
		r.sessions[tokenHash] = session
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllForEmployee(_ context.Context, employeeID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	revoked := 0
	for hash, session := range r.sessions {
		if session.EmployeeID == employeeID && session.RevokedAt == nil {
			session.RevokedAt = &at
			r.sessions[hash] = session
			revoked++
		}
	}
	return revoked, nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	return 0, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
}

func (r *fakeEventRepo) Append(_ context.Context, event domain.SecurityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) eventsOfType(eventType domain.SecurityEventType) []domain.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.SecurityEvent
	for _, event := range r.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
