package sqlite

import (
	"context"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
)

const accountColumns = `id, name, email, age, password_hash, created_at, updated_at`

// CreateAccount inserts an account.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	const query = `INSERT INTO accounts (id, name, email, age, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.conn(ctx).ExecContext(ctx, query, account.ID, account.Name, account.Email, account.Age,
		account.PasswordHash, toMillis(account.CreatedAt), toMillis(account.UpdatedAt))
	return translate(err)
}

// GetAccountByID fetches an account and its sessions.
func (s *Store) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

// GetAccountByEmail fetches an account by email; the column collates case-insensitively.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

func (s *Store) getAccount(ctx context.Context, query, arg string) (*domain.Account, error) {
	var (
		a                domain.Account
		created, updated int64
	)
	row := s.conn(ctx).QueryRowContext(ctx, query, arg)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Age, &a.PasswordHash, &created, &updated); err != nil {
		return nil, translate(err)
	}
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	sessions, err := s.listSessions(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Sessions = sessions
	return &a, nil
}

// UpdateAccount writes profile fields back to the account row.
func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	const query = `UPDATE accounts SET name = ?, email = ?, age = ?, password_hash = ?, updated_at = ? WHERE id = ?`
	res, err := s.conn(ctx).ExecContext(ctx, query, account.Name, account.Email, account.Age,
		account.PasswordHash, toMillis(account.UpdatedAt), account.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// DeleteAccount removes the account row; sessions and tasks follow through foreign keys.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// AppendSession records a newly issued session.
func (s *Store) AppendSession(ctx context.Context, session domain.Session) error {
	const query = `INSERT INTO account_sessions (account_id, token_digest, created_at) VALUES (?, ?, ?)`
	_, err := s.conn(ctx).ExecContext(ctx, query, session.AccountID, session.TokenDigest, toMillis(session.CreatedAt))
	return translate(err)
}

// RemoveSession deletes one session; deleting an absent session is not an error.
func (s *Store) RemoveSession(ctx context.Context, accountID, digest string) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM account_sessions WHERE account_id = ? AND token_digest = ?`, accountID, digest)
	return translate(err)
}

// ClearSessions deletes every session of an account.
func (s *Store) ClearSessions(ctx context.Context, accountID string) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM account_sessions WHERE account_id = ?`, accountID)
	return translate(err)
}

func (s *Store) listSessions(ctx context.Context, accountID string) ([]domain.Session, error) {
	const query = `SELECT account_id, token_digest, created_at FROM account_sessions
		WHERE account_id = ? ORDER BY rowid`
	rows, err := s.conn(ctx).QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		var (
			sess    domain.Session
			created int64
		)
		if err := rows.Scan(&sess.AccountID, &sess.TokenDigest, &created); err != nil {
			return nil, err
		}
		sess.CreatedAt = fromMillis(created)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SetAvatar stores the avatar image; nil clears it.
func (s *Store) SetAvatar(ctx context.Context, accountID string, image []byte) error {
	var value any
	if image != nil {
		value = image
	}
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE accounts SET avatar = ? WHERE id = ?`, value, accountID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// GetAvatar returns the stored avatar image.
func (s *Store) GetAvatar(ctx context.Context, accountID string) ([]byte, error) {
	var image []byte
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT avatar FROM accounts WHERE id = ?`, accountID)
	if err := row.Scan(&image); err != nil {
		return nil, translate(err)
	}
	if len(image) == 0 {
		return nil, repository.ErrNotFound
	}
	return image, nil
}
