package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/iranadryan/task-manager/internal/avatar"
	"github.com/iranadryan/task-manager/internal/domain"
)

// SetAvatar normalizes raw into a square PNG and stores it.
func (s Service) SetAvatar(ctx context.Context, accountID string, raw []byte) error {
	img, err := avatar.Normalize(raw)
	if err != nil {
		if errors.Is(err, avatar.ErrUnsupportedImage) || errors.Is(err, avatar.ErrTooLarge) {
			return domain.NewValidationError("avatar", err.Error())
		}
		return err
	}
	if err := s.avatars.Put(ctx, accountID, img); err != nil {
		if errors.Is(err, avatar.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("store avatar: %w", err)
	}
	s.logger.Info("avatar updated", "account_id", accountID, "bytes", len(img))
	return nil
}

// RemoveAvatar drops the stored avatar, if any.
func (s Service) RemoveAvatar(ctx context.Context, accountID string) error {
	if err := s.avatars.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("remove avatar: %w", err)
	}
	return nil
}

// Avatar returns the PNG avatar of accountID.
func (s Service) Avatar(ctx context.Context, accountID string) ([]byte, error) {
	if _, err := s.Get(ctx, accountID); err != nil {
		return nil, err
	}
	img, err := s.avatars.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, avatar.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load avatar: %w", err)
	}
	return img, nil
}
