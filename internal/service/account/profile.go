package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
	"github.com/iranadryan/task-manager/pkg/crypto"
)

var updatableFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// UpdateProfile applies a partial update. Every key must be updatable and every
// value valid before anything is written.
func (s Service) UpdateProfile(ctx context.Context, accountID string, fields map[string]json.RawMessage) (*domain.Account, error) {
	keys := slices.Sorted(maps.Keys(fields))
	for _, key := range keys {
		if !updatableFields[key] {
			return nil, domain.NewValidationError(key, "is not an updatable field")
		}
	}

	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := s.applyField(account, key, fields[key]); err != nil {
			return nil, err
		}
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, domain.NewValidationError("email", "is already registered")
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	s.logger.Info("account updated", "account_id", account.ID, "fields", keys)
	return account, nil
}

func (s Service) applyField(account *domain.Account, key string, raw json.RawMessage) error {
	switch key {
	case "name":
		value, err := decodeString(key, raw)
		if err != nil {
			return err
		}
		if account.Name, err = normalizeName(value); err != nil {
			return err
		}
	case "email":
		value, err := decodeString(key, raw)
		if err != nil {
			return err
		}
		if account.Email, err = normalizeEmail(value); err != nil {
			return err
		}
	case "password":
		value, err := decodeString(key, raw)
		if err != nil {
			return err
		}
		if err := validatePassword(value); err != nil {
			return err
		}
		hash, err := crypto.HashPassword(value, s.cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = hash
	case "age":
		var age *int
		if err := json.Unmarshal(raw, &age); err != nil || age == nil {
			return domain.NewValidationError(key, "must be a number")
		}
		if *age < 0 {
			return domain.NewValidationError(key, "must be a positive number")
		}
		account.Age = *age
	}
	return nil
}

func decodeString(key string, raw json.RawMessage) (string, error) {
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil || value == nil {
		return "", domain.NewValidationError(key, "must be a string")
	}
	return *value, nil
}
