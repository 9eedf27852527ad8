package postgres

import (
	"context"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
)

const accountColumns = `id, name, email, age, password_hash, created_at, updated_at`

// CreateAccount inserts an account.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	const query = `INSERT INTO accounts (id, name, email, age, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.conn(ctx).Exec(ctx, query, account.ID, account.Name, account.Email, account.Age, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	return translate(err)
}

// GetAccountByID fetches an account and its sessions.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getAccount(ctx, query, id)
}

// GetAccountByEmail fetches an account by email, ignoring case.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return r.getAccount(ctx, query, email)
}

func (r *Repository) getAccount(ctx context.Context, query string, arg string) (*domain.Account, error) {
	row := r.conn(ctx).QueryRow(ctx, query, arg)
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Age, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	sessions, err := r.listSessions(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Sessions = sessions
	return &a, nil
}

// UpdateAccount writes profile fields back to the account row.
func (r *Repository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	const query = `UPDATE accounts SET name = $2, email = $3, age = $4, password_hash = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.conn(ctx).Exec(ctx, query, account.ID, account.Name, account.Email, account.Age, account.PasswordHash, account.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteAccount removes the account row; sessions and tasks follow through foreign keys.
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AppendSession records a newly issued session.
func (r *Repository) AppendSession(ctx context.Context, session domain.Session) error {
	const query = `INSERT INTO account_sessions (account_id, token_digest, created_at) VALUES ($1, $2, $3)`
	_, err := r.conn(ctx).Exec(ctx, query, session.AccountID, session.TokenDigest, session.CreatedAt)
	return translate(err)
}

// RemoveSession deletes one session; deleting an absent session is not an error.
func (r *Repository) RemoveSession(ctx context.Context, accountID, digest string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM account_sessions WHERE account_id = $1 AND token_digest = $2`, accountID, digest)
	return translate(err)
}

// ClearSessions deletes every session of an account in one statement.
func (r *Repository) ClearSessions(ctx context.Context, accountID string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM account_sessions WHERE account_id = $1`, accountID)
	return translate(err)
}

func (r *Repository) listSessions(ctx context.Context, accountID string) ([]domain.Session, error) {
	const query = `SELECT account_id, token_digest, created_at FROM account_sessions
		WHERE account_id = $1 ORDER BY seq`
	rows, err := r.conn(ctx).Query(ctx, query, accountID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.AccountID, &s.TokenDigest, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SetAvatar stores the avatar image; nil clears it.
func (r *Repository) SetAvatar(ctx context.Context, accountID string, image []byte) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE accounts SET avatar = $2 WHERE id = $1`, accountID, image)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetAvatar returns the stored avatar image.
func (r *Repository) GetAvatar(ctx context.Context, accountID string) ([]byte, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT avatar FROM accounts WHERE id = $1`, accountID)
	var image []byte
	if err := row.Scan(&image); err != nil {
		return nil, translate(err)
	}
	if image == nil {
		return nil, repository.ErrNotFound
	}
	return image, nil
}
