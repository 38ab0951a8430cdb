package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
	SeasonWinter Season = "Winter"
)

var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// ParseSeason matches case-insensitively and accepts "Autumn" for Fall.
func ParseSeason(s string) (Season, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "autumn") {
		return SeasonFall, true
	}
	for _, season := range Seasons {
		if strings.EqualFold(s, string(season)) {
			return season, true
		}
	}
	return Season(s), false
}

type Formality string

const (
	FormalityCasual         Formality = "casual"
	FormalitySemiFormal     Formality = "semi-formal"
	FormalityBusinessCasual Formality = "business-casual"
	FormalitySports         Formality = "sports"
)

var Formalities = []Formality{FormalityCasual, FormalitySemiFormal, FormalityBusinessCasual, FormalitySports}

func ParseFormality(s string) (Formality, bool) {
	s = strings.TrimSpace(s)
	for _, f := range Formalities {
		if strings.EqualFold(s, string(f)) {
			return f, true
		}
	}
	return Formality(s), false
}

// Slot is a garment category. The order of Slots is the display order.
type Slot string

const (
	SlotTop         Slot = "top"
	SlotTopLayer    Slot = "topLayer"
	SlotBottom      Slot = "bottom"
	SlotShoes       Slot = "shoes"
	SlotAccessories Slot = "accessories"
)

var (
	Slots        = []Slot{SlotTop, SlotTopLayer, SlotBottom, SlotShoes, SlotAccessories}
	GarmentSlots = []Slot{SlotTop, SlotTopLayer, SlotBottom, SlotShoes}
)

func ParseSlot(s string) (Slot, bool) {
	for _, slot := range Slots {
		if strings.EqualFold(s, string(slot)) {
			return slot, true
		}
	}
	return Slot(s), false
}

// ImageRefs holds one resolved image URL per slot. Empty means absent.
type ImageRefs struct {
	TopUrl         string
	TopLayerUrl    string
	BottomUrl      string
	ShoesUrl       string
	AccessoriesUrl string
}

func (r ImageRefs) URL(slot Slot) string {
	switch slot {
	case SlotTop:
		return r.TopUrl
	case SlotTopLayer:
		return r.TopLayerUrl
	case SlotBottom:
		return r.BottomUrl
	case SlotShoes:
		return r.ShoesUrl
	case SlotAccessories:
		return r.AccessoriesUrl
	}
	return ""
}

func (r ImageRefs) Has(slot Slot) bool {
	return r.URL(slot) != ""
}

func (r *ImageRefs) Set(slot Slot, url string) {
	switch slot {
	case SlotTop:
		r.TopUrl = url
	case SlotTopLayer:
		r.TopLayerUrl = url
	case SlotBottom:
		r.BottomUrl = url
	case SlotShoes:
		r.ShoesUrl = url
	case SlotAccessories:
		r.AccessoriesUrl = url
	}
}

// Populated lists slots with an image, in slot order.
func (r ImageRefs) Populated() []Slot {
	var slots []Slot
	for _, slot := range Slots {
		if r.Has(slot) {
			slots = append(slots, slot)
		}
	}
	return slots
}

// SessionContext is the caller-owned state passed into every operation.
type SessionContext struct {
	SessionId string
	Season    Season
	Formality Formality
}

// OutfitContext is what analyze works from: the session plus uploaded images.
type OutfitContext struct {
	Session SessionContext
	Images  ImageRefs
}

// OutfitRecord is immutable once created. Saving or rerolling produces a new record.
type OutfitRecord struct {
	Id        string
	SessionId string
	ImageRefs

	AiDescription          string
	AiImageUrl             string
	Season                 Season
	Formality              Formality
	Aesthetic              []string
	Colors                 map[Slot]string
	AccessoriesDescription string
	AccessoriesTags        []string

	Saved      bool
	CreatedAt  time.Time
	Confidence float64
}

// Clone returns a deep copy so a tier can assign its own id without touching the input.
func (r *OutfitRecord) Clone() *OutfitRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Aesthetic = append([]string(nil), r.Aesthetic...)
	c.AccessoriesTags = append([]string(nil), r.AccessoriesTags...)
	if r.Colors != nil {
		c.Colors = make(map[Slot]string, len(r.Colors))
		for k, v := range r.Colors {
			c.Colors[k] = v
		}
	}
	return &c
}

// Origin tells which tier created a record. It is read from the id prefix.
type Origin string

const (
	OriginBackend   Origin = "backend"
	OriginLocal     Origin = "local"
	OriginSynthetic Origin = "synthetic"
	OriginAnalysis  Origin = "analysis"
)

const (
	LocalIdPrefix     = "local_"
	SyntheticIdPrefix = "synthetic_"
	AnalysisIdPrefix  = "analysis_"
)

func OriginOf(id string) Origin {
	switch {
	case strings.HasPrefix(id, LocalIdPrefix):
		return OriginLocal
	case strings.HasPrefix(id, SyntheticIdPrefix):
		return OriginSynthetic
	case strings.HasPrefix(id, AnalysisIdPrefix):
		return OriginAnalysis
	default:
		return OriginBackend
	}
}

func NewLocalId() string {
	return LocalIdPrefix + uuid.NewString()
}

func NewSyntheticId() string {
	return SyntheticIdPrefix + uuid.NewString()
}

func NewAnalysisId() string {
	return AnalysisIdPrefix + uuid.NewString()
}

// ImageUpload is a single file handed to the upload operation.
type ImageUpload struct {
	Category Slot
	Filename string
	Data     []byte
}
