package db

import (
	"context"
	"strings"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := UserModel{
		ID:           user.ID,
		Email:        strings.ToLower(strings.TrimSpace(user.Email)),
		DisplayName:  user.DisplayName,
		Department:   stringPtrIfNotEmpty(user.Department),
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return translateError(err, "user")
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	if r.db == nil {
		return domain.User{}, errDBUnavailable
	}
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return domain.User{}, translateError(err, "user")
	}
	return userFromModel(model), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if r.db == nil {
		return domain.User{}, errDBUnavailable
	}
	var model UserModel
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error
	if err != nil {
		return domain.User{}, translateError(err, "user")
	}
	return userFromModel(model), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []UserModel
	if err := r.db.WithContext(ctx).Order("email ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(models))
	for _, m := range models {
		out = append(out, userFromModel(m))
	}
	return out, nil
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		Department:   derefString(m.Department),
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

var _ usecase.UserRepository = (*UserRepository)(nil)
