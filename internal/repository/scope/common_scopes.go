package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// OnlySaved hides transient analysis rows.
func OnlySaved(db *gorm.DB) *gorm.DB {
	return db.Where("saved = ?", true)
}
