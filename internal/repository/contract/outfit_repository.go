package contract

import (
	"context"

	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/repository/specification"
)

type OutfitRepository interface {
	Create(ctx context.Context, outfit *entity.OutfitRecord) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OutfitRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OutfitRecord, error)
}
