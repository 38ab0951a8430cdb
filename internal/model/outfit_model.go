package model

import (
	"time"

	"gorm.io/datatypes"
)

type Outfit struct {
	Id                     string                                `gorm:"type:varchar(64);primaryKey"`
	SessionId              string                                `gorm:"type:varchar(128);not null;index:idx_outfits_session_created,priority:1"`
	TopUrl                 string                                `gorm:"type:text"`
	TopLayerUrl            string                                `gorm:"type:text"`
	BottomUrl              string                                `gorm:"type:text"`
	ShoesUrl               string                                `gorm:"type:text"`
	AccessoriesUrl         string                                `gorm:"type:text"`
	AiDescription          string                                `gorm:"type:text"`
	AiImageUrl             string                                `gorm:"type:text"`
	Season                 string                                `gorm:"type:varchar(32)"`
	Formality              string                                `gorm:"type:varchar(32)"`
	Aesthetic              datatypes.JSONSlice[string]           `gorm:"type:jsonb"`
	Colors                 datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	AccessoriesDescription string                                `gorm:"type:text"`
	AccessoriesTags        datatypes.JSONSlice[string]           `gorm:"type:jsonb"`
	Saved                  bool                                  `gorm:"not null;default:true"`
	Confidence             float64                               `gorm:"type:numeric(4,3)"`
	CreatedAt              time.Time                             `gorm:"index:idx_outfits_session_created,priority:2,sort:desc"`
}

func (Outfit) TableName() string {
	return "outfits"
}
