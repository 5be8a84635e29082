package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/repository"
)

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]domain.Employee
	err       error
}

func newFakeEmployeeRepo(employees ...domain.Employee) *fakeEmployeeRepo {
	repo := &fakeEmployeeRepo{employees: make(map[string]domain.Employee)}
	for _, e := range employees {
		repo.employees[e.ID] = e
	}
	return repo
}

func (r *fakeEmployeeRepo) Create(_ context.Context, employee domain.Employee) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if employee, ok := r.employees[id]; ok {
		copied := employee
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, employee := range r.employees {
		if employee.Email == email {
			copied := employee
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context) ([]domain.Employee, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]domain.Employee, 0, len(r.employees))
	for _, employee := range r.employees {
		list = append(list, employee)
	}
	return list, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, employee domain.Employee) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.employees[employee.ID]
	if !ok {
		return repository.ErrNotFound
	}
	employee.PasswordHash = existing.PasswordHash
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) SetActive(_ context.Context, id string, active bool) error {
	if r.err != nil {
		return r.err
	}
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

func (r *fakeEmployeeRepo) setRole(id string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	employee := r.employees[id]
	employee.Role = role
	r.employees[id] = employee
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	err      error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session domain.Session) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = session
	return nil
}

func (r *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[tokenHash]; ok {
		copied := session
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) Revoke(_ context.Context, tokenHash string, at time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[tokenHash]
	if !ok || session.RevokedAt != nil {
		return nil
	}
	session.RevokedAt = &at
	r.sessions[tokenHash] = session
	return nil
}

func (r *fakeSessionRepo) RevokeAllForEmployee(_ context.Context, employeeID string, at time.Time) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
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
	if r.err != nil {
		return 0, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for hash, session := range r.sessions {
		if session.ExpiresAt.Before(before) {
			delete(r.sessions, hash)
			deleted++
		}
	}
	return deleted, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
	err    error
}

func (r *fakeEventRepo) Append(_ context.Context, event domain.SecurityEvent) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) recorded() []domain.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SecurityEvent(nil), r.events...)
}

type fakeEventPublisher struct {
	mu        sync.Mutex
	published []domain.SecurityEvent
	err       error
}

func (p *fakeEventPublisher) PublishSecurityEvent(_ context.Context, event domain.SecurityEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}
