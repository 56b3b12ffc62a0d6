package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"taskmanager/internal/models"
)

// MockUnitOfWorkFactory is an in-memory implementation of UnitOfWorkFactory.
// Reads see the committed state; writes are staged per unit of work and
// applied on Commit, mirroring the transactional gateway contract.
type MockUnitOfWorkFactory struct {
	mu    sync.RWMutex
	users map[string]models.User
	tasks map[string]models.Task
}

// NewMockUnitOfWorkFactory creates an empty in-memory factory.
func NewMockUnitOfWorkFactory() *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{
		users: make(map[string]models.User),
		tasks: make(map[string]models.Task),
	}
}

// Begin opens a new in-memory unit of work.
func (f *MockUnitOfWorkFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	uow := &mockUnitOfWork{store: f}
	uow.users = &mockUserRepository{uow: uow}
	uow.tasks = &mockTaskRepository{uow: uow}
	return uow, nil
}

// SeedUser inserts a user directly into the committed state. Test helper.
func (f *MockUnitOfWorkFactory) SeedUser(user models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
}

// SeedTask inserts a task directly into the committed state. Test helper.
func (f *MockUnitOfWorkFactory) SeedTask(task models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = task
}

type mockUnitOfWork struct {
	store       *MockUnitOfWorkFactory
	pending     []func(store *MockUnitOfWorkFactory)
	stagedUsers []models.User
	affected    int64
	users       *mockUserRepository
	tasks       *mockTaskRepository
	finished    bool
}

func (u *mockUnitOfWork) Users() UserRepository {
	return u.users
}

func (u *mockUnitOfWork) Tasks() TaskRepository {
	return u.tasks
}

func (u *mockUnitOfWork) Commit() (int64, error) {
	if u.finished {
		return 0, fmt.Errorf("unit of work already finished")
	}
	u.finished = true

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	// Committing a user whose email is already taken mimics the unique
	// index violation of the real gateway.
	for _, staged := range u.stagedUsers {
		for id, user := range u.store.users {
			if staged.ID != id && strings.EqualFold(staged.Email, user.Email) {
				return 0, fmt.Errorf("failed to commit: duplicate email %s", staged.Email)
			}
		}
	}

	for _, apply := range u.pending {
		apply(u.store)
	}
	return u.affected, nil
}

func (u *mockUnitOfWork) Rollback() error {
	if u.finished {
		return nil
	}
	u.finished = true
	u.pending = nil
	return nil
}

type mockUserRepository struct {
	uow *mockUnitOfWork
}

func (r *mockUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	staged := *user
	r.uow.stage(func(store *MockUnitOfWorkFactory) {
		store.users[staged.ID] = staged
	})
	r.uow.trackUser(staged)
	return nil
}

func (r *mockUserRepository) GetByID(id string) (*models.User, error) {
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	user, ok := r.uow.store.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

func (r *mockUserRepository) GetAll() ([]models.User, error) {
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	users := make([]models.User, 0, len(r.uow.store.users))
	for _, u := range r.uow.store.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *mockUserRepository) GetByEmail(email string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	for _, u := range r.uow.store.users {
		if strings.ToLower(u.Email) == normalized {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", normalized, ErrNotFound)
}

type mockTaskRepository struct {
	uow *mockUnitOfWork
}

func (r *mockTaskRepository) Create(task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	staged := *task
	r.uow.stage(func(store *MockUnitOfWorkFactory) {
		store.tasks[staged.ID] = staged
	})
	return nil
}

func (r *mockTaskRepository) GetByID(id string) (*models.Task, error) {
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	task, ok := r.uow.store.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task with ID %s: %w", id, ErrNotFound)
	}
	return &task, nil
}

func (r *mockTaskRepository) GetAll() ([]models.Task, error) {
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	tasks := make([]models.Task, 0, len(r.uow.store.tasks))
	for _, t := range r.uow.store.tasks {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *mockTaskRepository) Update(task *models.Task) error {
	r.uow.store.mu.RLock()
	_, ok := r.uow.store.tasks[task.ID]
	r.uow.store.mu.RUnlock()
	if !ok {
		return fmt.Errorf("task with ID %s: %w", task.ID, ErrNotFound)
	}

	staged := *task
	r.uow.stage(func(store *MockUnitOfWorkFactory) {
		store.tasks[staged.ID] = staged
	})
	return nil
}

func (r *mockTaskRepository) Delete(id string) error {
	r.uow.store.mu.RLock()
	_, ok := r.uow.store.tasks[id]
	r.uow.store.mu.RUnlock()
	if !ok {
		return fmt.Errorf("task with ID %s: %w", id, ErrNotFound)
	}

	r.uow.stage(func(store *MockUnitOfWorkFactory) {
		delete(store.tasks, id)
	})
	return nil
}

func (r *mockTaskRepository) Search(query string) ([]models.Task, int64, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	var matches []models.Task
	for _, t := range r.uow.store.tasks {
		haystacks := []string{t.Title, t.Description, t.Remarks, t.Status}
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				matches = append(matches, t)
				break
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedOn.After(matches[j].CreatedOn)
	})
	return matches, int64(len(matches)), nil
}

func (u *mockUnitOfWork) stage(apply func(store *MockUnitOfWorkFactory)) {
	u.pending = append(u.pending, apply)
	u.affected++
}

func (u *mockUnitOfWork) trackUser(user models.User) {
	u.stagedUsers = append(u.stagedUsers, user)
}
