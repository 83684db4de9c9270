package implementation

import (
	"context"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepositoryImpl struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) repository.ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

func (r *ProfileRepositoryImpl) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).
		Select("email").
		Where("id = ?", userID).
		First(&profile).Error
	if err != nil {
		return "", err
	}
	return profile.Email, nil
}
