package repository

import (
	"context"

	"courtpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FacilityRepository is a read-only lookup used to scope sessions.
type FacilityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Facility, error)
	List(ctx context.Context) ([]model.Facility, error)
}

type facilityRepo struct{ db *gorm.DB }

func NewFacilityRepository(db *gorm.DB) FacilityRepository { return &facilityRepo{db: db} }

func (r *facilityRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Facility, error) {
	var f model.Facility
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *facilityRepo) List(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&facilities).Error
	return facilities, err
}
