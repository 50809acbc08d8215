package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/justinhsu1477/Pet-sub000/internal/domain"
)

type PetRepo struct{ db *gorm.DB }

func NewPetRepo(db *gorm.DB) *PetRepo {
	return &PetRepo{db: db}
}

func (r *PetRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Pet{})
}

func (r *PetRepo) Create(ctx context.Context, p *domain.Pet) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PetRepo) ByID(ctx context.Context, id string) (*domain.Pet, error) {
	var p domain.Pet
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
