package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/moodlync/tokencore/internal/domain/job"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

// MockTransactor runs fn without a real transaction
type MockTransactor struct {
	Calls int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	Users         map[int64]*user.User
	EmailIndex    map[string]*user.User
	Relationships map[[2]int64]*user.FamilyRelationship
	NextID        int64
	Locked        [][]int64
	CreateError   error
	GetError      error
	UpdateError   error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:         make(map[int64]*user.User),
		EmailIndex:    make(map[string]*user.User),
		Relationships: make(map[[2]int64]*user.FamilyRelationship),
		NextID:        1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.EmailIndex[u.Email]; ok {
		return errors.Conflict("User already exists")
	}
	u.ID = m.NextID
	m.NextID++
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	existing, ok := m.Users[u.ID]
	if !ok {
		return errors.NotFound("User")
	}
	existing.Username = u.Username
	existing.Role = u.Role
	return nil
}

func (m *MockUserRepository) UpdatePremiumState(ctx context.Context, userID int64, state user.PremiumState) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	u, ok := m.Users[userID]
	if !ok {
		return errors.NotFound("User")
	}
	u.IsPremium = state.IsPremium
	u.PremiumPlanType = state.PremiumPlanType
	u.PremiumExpiryDate = state.PremiumExpiryDate
	u.TrialStartDate = state.TrialStartDate
	u.TrialEndDate = state.TrialEndDate
	u.CancelledAt = state.CancelledAt
	return nil
}

func (m *MockUserRepository) Lock(ctx context.Context, ids ...int64) error {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		if _, ok := m.Users[id]; !ok {
			return errors.NotFound("User")
		}
	}
	m.Locked = append(m.Locked, sorted)
	return nil
}

func (m *MockUserRepository) SetLedgerFrozen(ctx context.Context, userID int64, frozen bool) error {
	u, ok := m.Users[userID]
	if !ok {
		return errors.NotFound("User")
	}
	u.LedgerFrozen = frozen
	return nil
}

func (m *MockUserRepository) Anonymize(ctx context.Context, id int64) error {
	u, ok := m.Users[id]
	if !ok || u.IsDeleted() {
		return errors.NotFound("User")
	}
	delete(m.EmailIndex, u.Email)
	u.Email = ""
	u.Username = ""
	u.PasswordHash = ""
	u.DeletedAt = &u.UpdatedAt
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	var users []*user.User
	for _, id := range m.ids() {
		if u := m.Users[id]; !u.IsDeleted() {
			users = append(users, u)
		}
	}
	total := int64(len(users))
	if offset >= len(users) {
		return []*user.User{}, total, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end], total, nil
}

func (m *MockUserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	return m.ids(), nil
}

func (m *MockUserRepository) ids() []int64 {
	ids := make([]int64, 0, len(m.Users))
	for id := range m.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *MockUserRepository) GetFamilyRelationship(ctx context.Context, ownerID, memberID int64) (*user.FamilyRelationship, error) {
	rel, ok := m.Relationships[[2]int64{ownerID, memberID}]
	if !ok {
		return nil, errors.NotFound("Family relationship")
	}
	return rel, nil
}

func (m *MockUserRepository) UpsertFamilyRelationship(ctx context.Context, rel *user.FamilyRelationship) error {
	member, ok := m.Users[rel.MemberID]
	if !ok {
		return errors.NotFound("User")
	}
	m.Relationships[[2]int64{rel.OwnerID, rel.MemberID}] = rel
	owner := rel.OwnerID
	member.FamilyPlanOwnerID = &owner
	return nil
}

// MockSubscriptionRepository is a mock implementation of subscription.Repository
type MockSubscriptionRepository struct {
	Subscriptions map[int64]*subscription.Subscription
	NextID        int64
	Updates       int
	UpdateError   error
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{
		Subscriptions: make(map[int64]*subscription.Subscription),
		NextID:        1,
	}
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if _, ok := m.Subscriptions[sub.UserID]; ok {
		return errors.Conflict("Subscription already exists")
	}
	sub.ID = m.NextID
	m.NextID++
	m.Subscriptions[sub.UserID] = sub
	return nil
}

func (m *MockSubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	sub, ok := m.Subscriptions[userID]
	if !ok {
		return nil, errors.NotFound("Subscription")
	}
	copied := *sub
	return &copied, nil
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Subscriptions[sub.UserID]; !ok {
		return errors.NotFound("Subscription")
	}
	copied := *sub
	m.Subscriptions[sub.UserID] = &copied
	m.Updates++
	return nil
}

// MockJobRepository is a mock implementation of job.Repository
type MockJobRepository struct {
	mu         sync.Mutex
	Executions map[string]*job.Execution
	Order      []string
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Executions: make(map[string]*job.Execution),
	}
}

func (m *MockJobRepository) CreateExecution(ctx context.Context, e *job.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *e
	m.Executions[e.ID] = &copied
	m.Order = append(m.Order, e.ID)
	return nil
}

func (m *MockJobRepository) UpdateExecution(ctx context.Context, e *job.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Executions[e.ID]; !ok {
		return errors.NotFound("Job execution")
	}
	copied := *e
	m.Executions[e.ID] = &copied
	return nil
}

func (m *MockJobRepository) ListExecutions(ctx context.Context, filter job.ExecutionFilter, limit, offset int) ([]*job.Execution, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*job.Execution
	for i := len(m.Order) - 1; i >= 0; i-- {
		e := m.Executions[m.Order[i]]
		if filter.JobType != "" && e.JobType != filter.JobType {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	total := int64(len(out))
	if offset >= len(out) {
		return []*job.Execution{}, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

// Get returns a recorded execution
func (m *MockJobRepository) Get(id string) *job.Execution {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Executions[id]
}
