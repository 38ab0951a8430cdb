package implementation

import (
	"context"
	"errors"

	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/mapper"
	"outfit-stylist-be/internal/model"
	"outfit-stylist-be/internal/repository/contract"
	"outfit-stylist-be/internal/repository/specification"

	"gorm.io/gorm"
)

type OutfitRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OutfitMapper
}

func NewOutfitRepository(db *gorm.DB) contract.OutfitRepository {
	return &OutfitRepositoryImpl{
		db:     db,
		mapper: mapper.NewOutfitMapper(),
	}
}

func (r *OutfitRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *OutfitRepositoryImpl) Create(ctx context.Context, outfit *entity.OutfitRecord) error {
	m := r.mapper.ToModel(outfit)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*outfit = *r.mapper.ToEntity(m)
	return nil
}

func (r *OutfitRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Outfit{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OutfitRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OutfitRecord, error) {
	var m model.Outfit
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *OutfitRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OutfitRecord, error) {
	var models []*model.Outfit
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
