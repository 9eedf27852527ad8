package avatar

import (
	"context"
	"errors"

	"github.com/iranadryan/task-manager/internal/repository"
)

// RepositoryStore keeps avatars in the account store.
type RepositoryStore struct {
	repo repository.AvatarRepository
}

// NewRepositoryStore constructs a RepositoryStore.
func NewRepositoryStore(repo repository.AvatarRepository) RepositoryStore {
	return RepositoryStore{repo: repo}
}

// Put stores img for accountID.
func (s RepositoryStore) Put(ctx context.Context, accountID string, img []byte) error {
	if err := s.repo.SetAvatar(ctx, accountID, img); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Get loads the avatar of accountID.
func (s RepositoryStore) Get(ctx context.Context, accountID string) ([]byte, error) {
	img, err := s.repo.GetAvatar(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return img, err
}

// Delete clears the avatar of accountID. Missing accounts are ignored.
func (s RepositoryStore) Delete(ctx context.Context, accountID string) error {
	if err := s.repo.SetAvatar(ctx, accountID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}
