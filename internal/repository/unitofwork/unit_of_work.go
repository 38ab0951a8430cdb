package unitofwork

import (
	"context"

	"outfit-stylist-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OutfitRepository() contract.OutfitRepository
}
