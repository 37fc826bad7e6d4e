package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"chat-backend/entity"
)

// UserRepository backs the identity directory: profile lookups consumed by
// the chat and message services.
type UserRepository struct {
	Repository[entity.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{Repository[entity.User]{DB: db}}
}

func (repo *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := repo.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *UserRepository) FindByUsernameOrEmail(ctx context.Context, term string) (*entity.User, error) {
	var user entity.User
	err := repo.DB.WithContext(ctx).
		Where("username = ? OR email = ?", term, term).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
