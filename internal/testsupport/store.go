package testsupport

import (
	"context"
	"sort"
	"sync"

	"hourtrim/model"
	"hourtrim/repository"
)

// MemoryUserRepository is an in-memory repository.UserRepository for tests.
// A non-nil Err is returned by every call.
type MemoryUserRepository struct {
	Err error

	mu     sync.Mutex
	nextID int64
	users  map[string]*model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*model.User)}
}

func (m *MemoryUserRepository) CreateUser(_ context.Context, user *model.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if _, ok := m.users[user.Username]; ok {
		return 0, repository.ErrDuplicateUser
	}
	m.nextID++
	stored := *user
	stored.ID = m.nextID
	m.users[user.Username] = &stored
	user.ID = stored.ID
	return stored.ID, nil
}

func (m *MemoryUserRepository) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.users[username]
	return ok, nil
}

// Count returns the number of stored users.
func (m *MemoryUserRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// MemoryTrimRecords is an in-memory repository.TrimRecordRepository.
type MemoryTrimRecords struct {
	mu      sync.Mutex
	Records []*model.TrimRecord
}

func (m *MemoryTrimRecords) Create(_ context.Context, record *model.TrimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *record
	m.Records = append(m.Records, &cp)
	return nil
}

func (m *MemoryTrimRecords) ListRecent(_ context.Context, limit int) ([]*model.TrimRecord, error) {
	return m.list(func(*model.TrimRecord) bool { return true }, limit), nil
}

func (m *MemoryTrimRecords) ListByPath(_ context.Context, relativePath string, limit int) ([]*model.TrimRecord, error) {
	return m.list(func(r *model.TrimRecord) bool { return r.RelativePath == relativePath }, limit), nil
}

func (m *MemoryTrimRecords) list(keep func(*model.TrimRecord) bool, limit int) []*model.TrimRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.TrimRecord, 0, len(m.Records))
	for _, r := range m.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = repository.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out
}
