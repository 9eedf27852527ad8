// Package memory provides a process-local Store used by tests and the memory driver.
package memory

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
)

type txKey struct{}

// Store keeps accounts, sessions and tasks in maps guarded by a single mutex.
type Store struct {
	mu    sync.Mutex
	state state
	seq   int64
}

type state struct {
	accounts map[string]domain.Account
	avatars  map[string][]byte
	tasks    map[string]taskRow
}

type taskRow struct {
	task domain.Task
	seq  int64
}

var _ repository.Store = (*Store)(nil)

// New constructs an empty Store.
func New() *Store {
	return &Store{state: state{
		accounts: make(map[string]domain.Account),
		avatars:  make(map[string][]byte),
		tasks:    make(map[string]taskRow),
	}}
}

// lock acquires the store mutex unless ctx already belongs to a transaction on this store.
func (s *Store) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx serializes fn against every other store call and restores the
// previous state when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CreateAccount inserts an account, rejecting duplicate ids and emails.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	defer s.lock(ctx)()
	if _, ok := s.state.accounts[account.ID]; ok {
		return repository.ErrConflict
	}
	if s.emailTaken(account.Email, "") {
		return repository.ErrConflict
	}
	stored := *account
	stored.Sessions = nil
	stored.PasswordHash = slices.Clone(account.PasswordHash)
	s.state.accounts[account.ID] = stored
	return nil
}

// GetAccountByID fetches an account with its sessions.
func (s *Store) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	defer s.lock(ctx)()
	account, ok := s.state.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(account), nil
}

// GetAccountByEmail fetches an account by its normalized email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	defer s.lock(ctx)()
	for _, account := range s.state.accounts {
		if strings.EqualFold(account.Email, email) {
			return copyAccount(account), nil
		}
	}
	return nil, repository.ErrNotFound
}

// UpdateAccount replaces profile fields of an existing account.
func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	defer s.lock(ctx)()
	current, ok := s.state.accounts[account.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.emailTaken(account.Email, account.ID) {
		return repository.ErrConflict
	}
	current.Name = account.Name
	current.Email = account.Email
	current.Age = account.Age
	current.PasswordHash = slices.Clone(account.PasswordHash)
	current.UpdatedAt = account.UpdatedAt
	s.state.accounts[account.ID] = current
	return nil
}

// DeleteAccount removes an account together with its sessions and avatar.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	if _, ok := s.state.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.state.accounts, id)
	delete(s.state.avatars, id)
	return nil
}

// AppendSession adds a session at the end of the account's list.
func (s *Store) AppendSession(ctx context.Context, session domain.Session) error {
	defer s.lock(ctx)()
	account, ok := s.state.accounts[session.AccountID]
	if !ok {
		return repository.ErrNotFound
	}
	account.Sessions = append(slices.Clone(account.Sessions), session)
	s.state.accounts[account.ID] = account
	return nil
}

// RemoveSession drops the session with the given digest; absent digests are ignored.
func (s *Store) RemoveSession(ctx context.Context, accountID, digest string) error {
	defer s.lock(ctx)()
	account, ok := s.state.accounts[accountID]
	if !ok {
		return nil
	}
	account.Sessions = slices.DeleteFunc(slices.Clone(account.Sessions), func(sess domain.Session) bool {
		return sess.TokenDigest == digest
	})
	s.state.accounts[accountID] = account
	return nil
}

// ClearSessions empties the account's session list.
func (s *Store) ClearSessions(ctx context.Context, accountID string) error {
	defer s.lock(ctx)()
	account, ok := s.state.accounts[accountID]
	if !ok {
		return nil
	}
	account.Sessions = nil
	s.state.accounts[accountID] = account
	return nil
}

// SetAvatar stores or, with a nil image, clears the avatar of an account.
func (s *Store) SetAvatar(ctx context.Context, accountID string, image []byte) error {
	defer s.lock(ctx)()
	if _, ok := s.state.accounts[accountID]; !ok {
		return repository.ErrNotFound
	}
	if image == nil {
		delete(s.state.avatars, accountID)
		return nil
	}
	s.state.avatars[accountID] = slices.Clone(image)
	return nil
}

// GetAvatar returns the stored avatar image.
func (s *Store) GetAvatar(ctx context.Context, accountID string) ([]byte, error) {
	defer s.lock(ctx)()
	image, ok := s.state.avatars[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return slices.Clone(image), nil
}

// CreateTask inserts a task for an existing owner.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) error {
	defer s.lock(ctx)()
	if _, ok := s.state.accounts[task.OwnerID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.state.tasks[task.ID]; ok {
		return repository.ErrConflict
	}
	s.seq++
	s.state.tasks[task.ID] = taskRow{task: *task, seq: s.seq}
	return nil
}

// GetTask returns a task only when it belongs to ownerID.
func (s *Store) GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	defer s.lock(ctx)()
	row, ok := s.state.tasks[taskID]
	if !ok || row.task.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	task := row.task
	return &task, nil
}

// UpdateTask applies patch to a task owned by ownerID.
func (s *Store) UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	defer s.lock(ctx)()
	row, ok := s.state.tasks[taskID]
	if !ok || row.task.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	if patch.Description != nil {
		row.task.Description = *patch.Description
	}
	if patch.Completed != nil {
		row.task.Completed = *patch.Completed
	}
	row.task.UpdatedAt = time.Now().UTC()
	s.state.tasks[taskID] = row
	task := row.task
	return &task, nil
}

// DeleteTask removes and returns a task owned by ownerID.
func (s *Store) DeleteTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	defer s.lock(ctx)()
	row, ok := s.state.tasks[taskID]
	if !ok || row.task.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	delete(s.state.tasks, taskID)
	task := row.task
	return &task, nil
}

// DeleteTasksByOwner removes every task owned by ownerID.
func (s *Store) DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error) {
	defer s.lock(ctx)()
	var removed int64
	for id, row := range s.state.tasks {
		if row.task.OwnerID == ownerID {
			delete(s.state.tasks, id)
			removed++
		}
	}
	return removed, nil
}

// ListTasks snapshots the matching tasks when iteration starts and yields them in order.
func (s *Store) ListTasks(ctx context.Context, ownerID string, query domain.TaskQuery) iter.Seq2[domain.Task, error] {
	return func(yield func(domain.Task, error) bool) {
		rows := s.matchingTasks(ctx, ownerID, query)
		slices.SortStableFunc(rows, func(a, b taskRow) int {
			if c := compareTasks(a.task, b.task, query.SortBy); c != 0 {
				if query.Desc {
					return -c
				}
				return c
			}
			return cmp.Compare(a.seq, b.seq)
		})
		if query.Skip > 0 {
			if query.Skip >= len(rows) {
				return
			}
			rows = rows[query.Skip:]
		}
		if query.Limit > 0 && query.Limit < len(rows) {
			rows = rows[:query.Limit]
		}
		for _, row := range rows {
			if !yield(row.task, nil) {
				return
			}
		}
	}
}

func (s *Store) matchingTasks(ctx context.Context, ownerID string, query domain.TaskQuery) []taskRow {
	defer s.lock(ctx)()
	rows := make([]taskRow, 0)
	for _, row := range s.state.tasks {
		if row.task.OwnerID != ownerID {
			continue
		}
		if query.Completed != nil && row.task.Completed != *query.Completed {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Store) emailTaken(email, exceptID string) bool {
	for id, account := range s.state.accounts {
		if id != exceptID && strings.EqualFold(account.Email, email) {
			return true
		}
	}
	return false
}

func (st state) clone() state {
	out := state{
		accounts: make(map[string]domain.Account, len(st.accounts)),
		avatars:  make(map[string][]byte, len(st.avatars)),
		tasks:    make(map[string]taskRow, len(st.tasks)),
	}
	for k, v := range st.accounts {
		v.Sessions = slices.Clone(v.Sessions)
		out.accounts[k] = v
	}
	for k, v := range st.avatars {
		out.avatars[k] = v
	}
	for k, v := range st.tasks {
		out.tasks[k] = v
	}
	return out
}

func copyAccount(account domain.Account) *domain.Account {
	account.Sessions = slices.Clone(account.Sessions)
	account.PasswordHash = slices.Clone(account.PasswordHash)
	return &account
}

func compareTasks(a, b domain.Task, field domain.TaskSortField) int {
	switch field {
	case domain.TaskSortDescription:
		return strings.Compare(a.Description, b.Description)
	case domain.TaskSortCompleted:
		switch {
		case a.Completed == b.Completed:
			return 0
		case !a.Completed:
			return -1
		default:
			return 1
		}
	case domain.TaskSortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.TaskSortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return 0
	}
}
