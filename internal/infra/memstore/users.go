package memstore

import (
	"context"
	"sort"
	"strings"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.Conflict("email already registered")
		}
	}
	r.s.users[user.ID] = user
	return nil
}

func (r *UserRepository) Get(_ context.Context, id string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.NotFound("user")
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, domain.NotFound("user")
}

func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

var _ usecase.UserRepository = (*UserRepository)(nil)
