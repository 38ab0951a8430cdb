package specification

import (
	"outfit-stylist-be/internal/repository/scope"

	"gorm.io/gorm"
)

// BySession filters outfits by anonymous session.
type BySession struct {
	SessionID string
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// NewestFirst orders by creation time, newest first.
type NewestFirst struct{}

func (s NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(scope.OrderByCreatedDesc)
}

type SavedOnly struct{}

func (s SavedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(scope.OnlySaved)
}
