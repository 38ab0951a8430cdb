package dto

import (
	"strings"
	"time"
)

// AnalysisPayload is the flat analyze response. The hosted analysis function
// and the local synthesizer both produce exactly this shape.
type AnalysisPayload struct {
	Top                    string            `json:"top,omitempty"`
	TopLayer               string            `json:"topLayer,omitempty"`
	Bottom                 string            `json:"bottom,omitempty"`
	Shoes                  string            `json:"shoes,omitempty"`
	Accessories            []string          `json:"accessories"`
	Aesthetic              []string          `json:"aesthetic"`
	Colors                 map[string]string `json:"colors"`
	AiDescription          string            `json:"ai_description"`
	AccessoriesDescription string            `json:"accessories_description,omitempty"`
	AccessoriesTags        []string          `json:"accessories_tags"`
	AiImageUrl             string            `json:"ai_image_url,omitempty"`
	Season                 string            `json:"season"`
	Formality              string            `json:"formality"`
	Confidence             float64           `json:"confidence"`
	Timestamp              time.Time         `json:"timestamp"`
}

// Descriptive reports whether the payload carries at least one descriptive field.
func (p *AnalysisPayload) Descriptive() bool {
	if p == nil {
		return false
	}
	for _, s := range []string{p.Top, p.TopLayer, p.Bottom, p.Shoes, p.AiDescription, p.AccessoriesDescription} {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return len(p.Aesthetic) > 0 || len(p.Accessories) > 0 || len(p.AccessoriesTags) > 0
}

// Garment returns the description for a garment slot name.
func (p *AnalysisPayload) Garment(slot string) string {
	switch slot {
	case "top":
		return p.Top
	case "topLayer":
		return p.TopLayer
	case "bottom":
		return p.Bottom
	case "shoes":
		return p.Shoes
	}
	return ""
}

type AnalyzeOutfitRequest struct {
	SessionId      string `json:"-" validate:"required,max=128"`
	Season         string `json:"season" validate:"max=32"`
	Formality      string `json:"formality" validate:"max=32"`
	TopUrl         string `json:"top_url" validate:"max=2048"`
	TopLayerUrl    string `json:"top_layer_url" validate:"max=2048"`
	BottomUrl      string `json:"bottom_url" validate:"max=2048"`
	ShoesUrl       string `json:"shoes_url" validate:"max=2048"`
	AccessoriesUrl string `json:"accessories_url" validate:"max=2048"`
}

type AnalyzeOutfitResponse struct {
	Analysis *AnalysisPayload `json:"analysis"`
	Outfit   *OutfitResponse  `json:"outfit"`
}

// AnalyzeFunctionRequest is the body sent to the hosted analysis function.
type AnalyzeFunctionRequest struct {
	SessionId      string `json:"session_id"`
	Season         string `json:"season"`
	Formality      string `json:"formality"`
	TopUrl         string `json:"top_url,omitempty"`
	TopLayerUrl    string `json:"top_layer_url,omitempty"`
	BottomUrl      string `json:"bottom_url,omitempty"`
	ShoesUrl       string `json:"shoes_url,omitempty"`
	AccessoriesUrl string `json:"accessories_url,omitempty"`
}

// OutfitResponse is an OutfitRecord as JSON. It is also the form records take
// in the local cache and on the wire to the hosted persistence functions.
type OutfitResponse struct {
	Id                     string            `json:"id"`
	SessionId              string            `json:"session_id"`
	TopUrl                 string            `json:"top_url,omitempty"`
	TopLayerUrl            string            `json:"top_layer_url,omitempty"`
	BottomUrl              string            `json:"bottom_url,omitempty"`
	ShoesUrl               string            `json:"shoes_url,omitempty"`
	AccessoriesUrl         string            `json:"accessories_url,omitempty"`
	AiDescription          string            `json:"ai_description"`
	AiImageUrl             string            `json:"ai_image_url,omitempty"`
	Season                 string            `json:"season"`
	Formality              string            `json:"formality"`
	Aesthetic              []string          `json:"aesthetic"`
	Colors                 map[string]string `json:"colors"`
	AccessoriesDescription string            `json:"accessories_description,omitempty"`
	AccessoriesTags        []string          `json:"accessories_tags"`
	Saved                  bool              `json:"saved"`
	CreatedAt              time.Time         `json:"created_at"`
	Confidence             float64           `json:"confidence"`
}

type SaveOutfitRequest struct {
	SessionId              string            `json:"-" validate:"required,max=128"`
	TopUrl                 string            `json:"top_url" validate:"max=2048"`
	TopLayerUrl            string            `json:"top_layer_url" validate:"max=2048"`
	BottomUrl              string            `json:"bottom_url" validate:"max=2048"`
	ShoesUrl               string            `json:"shoes_url" validate:"max=2048"`
	AccessoriesUrl         string            `json:"accessories_url" validate:"max=2048"`
	AiDescription          string            `json:"ai_description" validate:"max=4096"`
	AiImageUrl             string            `json:"ai_image_url"`
	Season                 string            `json:"season" validate:"max=32"`
	Formality              string            `json:"formality" validate:"max=32"`
	Aesthetic              []string          `json:"aesthetic" validate:"max=16,dive,max=64"`
	Colors                 map[string]string `json:"colors" validate:"max=5"`
	AccessoriesDescription string            `json:"accessories_description" validate:"max=1024"`
	AccessoriesTags        []string          `json:"accessories_tags" validate:"max=16,dive,max=64"`
	Confidence             float64           `json:"confidence" validate:"gte=0,lte=1"`
}

type ListOutfitsFunctionRequest struct {
	SessionId string `json:"session_id"`
}

type DeleteOutfitFunctionRequest struct {
	Id string `json:"id"`
}

type DeleteOutfitFunctionResponse struct {
	Deleted bool `json:"deleted"`
}

type DeleteOutfitResponse struct {
	Id      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type UploadImageRequest struct {
	SessionId string `validate:"required,max=128"`
	Category  string `validate:"required,oneof=top topLayer bottom shoes accessories"`
}

type UploadImageResponse struct {
	Category string `json:"category"`
	Url      string `json:"url"`
}

type UploadOutfitResponse struct {
	Images map[string]string `json:"images"`
	Failed []string          `json:"failed,omitempty"`
}

type TierStatResponse struct {
	Operation    string           `json:"operation"`
	LastTier     string           `json:"last_tier"`
	LastServedAt time.Time        `json:"last_served_at"`
	Served       map[string]int64 `json:"served"`
	Failed       map[string]int64 `json:"failed"`
}

// TierServedMessage travels over the in-process bus from the executor observer
// to the tier stats consumer.
type TierServedMessage struct {
	Operation  string    `json:"operation"`
	Tier       string    `json:"tier"`
	Success    bool      `json:"success"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

type SeasonPresetResponse struct {
	Season      string   `json:"season"`
	Colors      []string `json:"colors"`
	Accessories []string `json:"accessories"`
	Aesthetic   []string `json:"aesthetic"`
	Description string   `json:"description"`
}

type PresetCatalogResponse struct {
	Seasons       []SeasonPresetResponse `json:"seasons"`
	Formalities   []string               `json:"formalities"`
	DefaultSeason string                 `json:"default_season"`
}
