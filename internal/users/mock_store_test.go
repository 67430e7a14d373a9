package users

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eion/userhub/internal/query"
)

// recordingStore keeps users in memory and records the filters of every list call
type recordingStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]UserSchema
	listFilters [][]query.Filter
	writes      int
	err         error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{users: make(map[uuid.UUID]UserSchema)}
}

func (s *recordingStore) CreateUser(_ context.Context, user *UserSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return usernameTaken(user.Username, nil)
		}
	}
	s.writes++
	s.users[user.ID] = *user
	return nil
}

func (s *recordingStore) GetUser(_ context.Context, id uuid.UUID) (*UserSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *recordingStore) UpdateUser(_ context.Context, user *UserSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	s.writes++
	s.users[user.ID] = *user
	return nil
}

func (s *recordingStore) DeleteUser(_ context.Context, id uuid.UUID) (*UserSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	s.writes++
	delete(s.users, id)
	return &user, nil
}

func (s *recordingStore) ListUsers(_ context.Context, filters ...query.Filter) ([]UserSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFilters = append(s.listFilters, filters)
	if s.err != nil {
		return nil, s.err
	}

	rows := make([]UserSchema, 0, len(s.users))
	for _, u := range s.users {
		rows = append(rows, u)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedDate.Before(rows[j].CreatedDate) })
	return rows, nil
}

func (s *recordingStore) lastListFilters() []query.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.listFilters) == 0 {
		return nil
	}
	return s.listFilters[len(s.listFilters)-1]
}

func (s *recordingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// seed stores a user directly, bypassing the service
func (s *recordingStore) seed(user UserSchema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// checkPassword reports whether password matches the stored hash
func checkPassword(user *UserSchema, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
