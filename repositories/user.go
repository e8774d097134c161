//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-vault/domain"
	"chat-vault/errors"
	"chat-vault/storage"
	"context"
	goerrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// IUserRepository is the user directory used to snapshot message authors.
type IUserRepository interface {
	Save(ctx context.Context, user domain.User) error
	Lookup(ctx context.Context, id string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

func (u UserRepository) Save(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.ID == "" {
		return fmt.Errorf("%w: user id is required", errors.ErrInvalidArgument)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), storage.EncodeUser(user))
	})
}

// Lookup returns ErrUserNotFound when the directory has no entry for id.
func (u UserRepository) Lookup(ctx context.Context, id string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = storage.DecodeUser(val)
			return err
		})
	})
	return user, err
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}
