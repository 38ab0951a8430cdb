package mapper

import (
	"time"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/model"

	"gorm.io/datatypes"
)

type OutfitMapper struct{}

func NewOutfitMapper() *OutfitMapper {
	return &OutfitMapper{}
}

func (m *OutfitMapper) ToEntity(o *model.Outfit) *entity.OutfitRecord {
	if o == nil {
		return nil
	}

	return &entity.OutfitRecord{
		Id:        o.Id,
		SessionId: o.SessionId,
		ImageRefs: entity.ImageRefs{
			TopUrl:         o.TopUrl,
			TopLayerUrl:    o.TopLayerUrl,
			BottomUrl:      o.BottomUrl,
			ShoesUrl:       o.ShoesUrl,
			AccessoriesUrl: o.AccessoriesUrl,
		},
		AiDescription:          o.AiDescription,
		AiImageUrl:             o.AiImageUrl,
		Season:                 entity.Season(o.Season),
		Formality:              entity.Formality(o.Formality),
		Aesthetic:              []string(o.Aesthetic),
		Colors:                 colorsToEntity(o.Colors.Data()),
		AccessoriesDescription: o.AccessoriesDescription,
		AccessoriesTags:        []string(o.AccessoriesTags),
		Saved:                  o.Saved,
		CreatedAt:              o.CreatedAt,
		Confidence:             o.Confidence,
	}
}

func (m *OutfitMapper) ToModel(r *entity.OutfitRecord) *model.Outfit {
	if r == nil {
		return nil
	}

	return &model.Outfit{
		Id:                     r.Id,
		SessionId:              r.SessionId,
		TopUrl:                 r.TopUrl,
		TopLayerUrl:            r.TopLayerUrl,
		BottomUrl:              r.BottomUrl,
		ShoesUrl:               r.ShoesUrl,
		AccessoriesUrl:         r.AccessoriesUrl,
		AiDescription:          r.AiDescription,
		AiImageUrl:             r.AiImageUrl,
		Season:                 string(r.Season),
		Formality:              string(r.Formality),
		Aesthetic:              datatypes.NewJSONSlice(nonNil(r.Aesthetic)),
		Colors:                 datatypes.NewJSONType(colorsToWire(r.Colors)),
		AccessoriesDescription: r.AccessoriesDescription,
		AccessoriesTags:        datatypes.NewJSONSlice(nonNil(r.AccessoriesTags)),
		Saved:                  r.Saved,
		Confidence:             r.Confidence,
		CreatedAt:              r.CreatedAt,
	}
}

func (m *OutfitMapper) ToEntities(outfits []*model.Outfit) []*entity.OutfitRecord {
	entities := make([]*entity.OutfitRecord, len(outfits))
	for i, o := range outfits {
		entities[i] = m.ToEntity(o)
	}
	return entities
}

func (m *OutfitMapper) ToResponse(r *entity.OutfitRecord) *dto.OutfitResponse {
	if r == nil {
		return nil
	}

	return &dto.OutfitResponse{
		Id:                     r.Id,
		SessionId:              r.SessionId,
		TopUrl:                 r.TopUrl,
		TopLayerUrl:            r.TopLayerUrl,
		BottomUrl:              r.BottomUrl,
		ShoesUrl:               r.ShoesUrl,
		AccessoriesUrl:         r.AccessoriesUrl,
		AiDescription:          r.AiDescription,
		AiImageUrl:             r.AiImageUrl,
		Season:                 string(r.Season),
		Formality:              string(r.Formality),
		Aesthetic:              nonNil(r.Aesthetic),
		Colors:                 colorsToWire(r.Colors),
		AccessoriesDescription: r.AccessoriesDescription,
		AccessoriesTags:        nonNil(r.AccessoriesTags),
		Saved:                  r.Saved,
		CreatedAt:              r.CreatedAt,
		Confidence:             r.Confidence,
	}
}

func (m *OutfitMapper) ToResponses(records []*entity.OutfitRecord) []*dto.OutfitResponse {
	responses := make([]*dto.OutfitResponse, len(records))
	for i, r := range records {
		responses[i] = m.ToResponse(r)
	}
	return responses
}

// FromResponse restores a record from its JSON form. Colors for slots without
// an image are dropped.
func (m *OutfitMapper) FromResponse(res *dto.OutfitResponse) *entity.OutfitRecord {
	if res == nil {
		return nil
	}

	r := &entity.OutfitRecord{
		Id:        res.Id,
		SessionId: res.SessionId,
		ImageRefs: entity.ImageRefs{
			TopUrl:         res.TopUrl,
			TopLayerUrl:    res.TopLayerUrl,
			BottomUrl:      res.BottomUrl,
			ShoesUrl:       res.ShoesUrl,
			AccessoriesUrl: res.AccessoriesUrl,
		},
		AiDescription:          res.AiDescription,
		AiImageUrl:             res.AiImageUrl,
		Season:                 entity.Season(res.Season),
		Formality:              entity.Formality(res.Formality),
		Aesthetic:              append([]string(nil), res.Aesthetic...),
		AccessoriesDescription: res.AccessoriesDescription,
		AccessoriesTags:        append([]string(nil), res.AccessoriesTags...),
		Saved:                  res.Saved,
		CreatedAt:              res.CreatedAt,
		Confidence:             clamp01(res.Confidence),
	}
	r.Colors = populatedColors(r.ImageRefs, res.Colors)
	return r
}

func (m *OutfitMapper) FromSaveRequest(req *dto.SaveOutfitRequest) *entity.OutfitRecord {
	r := &entity.OutfitRecord{
		SessionId: req.SessionId,
		ImageRefs: entity.ImageRefs{
			TopUrl:         req.TopUrl,
			TopLayerUrl:    req.TopLayerUrl,
			BottomUrl:      req.BottomUrl,
			ShoesUrl:       req.ShoesUrl,
			AccessoriesUrl: req.AccessoriesUrl,
		},
		AiDescription:          req.AiDescription,
		AiImageUrl:             req.AiImageUrl,
		Season:                 entity.Season(req.Season),
		Formality:              entity.Formality(req.Formality),
		Aesthetic:              append([]string(nil), req.Aesthetic...),
		AccessoriesDescription: req.AccessoriesDescription,
		AccessoriesTags:        append([]string(nil), req.AccessoriesTags...),
		Confidence:             clamp01(req.Confidence),
	}
	r.Colors = populatedColors(r.ImageRefs, req.Colors)
	return r
}

// FromAnalysis turns an analysis payload into a transient record with the given id.
func (m *OutfitMapper) FromAnalysis(id string, oc entity.OutfitContext, p *dto.AnalysisPayload) *entity.OutfitRecord {
	season := oc.Session.Season
	if s, ok := entity.ParseSeason(p.Season); ok {
		season = s
	}
	formality := oc.Session.Formality
	if f, ok := entity.ParseFormality(p.Formality); ok {
		formality = f
	}
	createdAt := p.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &entity.OutfitRecord{
		Id:                     id,
		SessionId:              oc.Session.SessionId,
		ImageRefs:              oc.Images,
		AiDescription:          p.AiDescription,
		AiImageUrl:             p.AiImageUrl,
		Season:                 season,
		Formality:              formality,
		Aesthetic:              append([]string(nil), p.Aesthetic...),
		Colors:                 populatedColors(oc.Images, p.Colors),
		AccessoriesDescription: p.AccessoriesDescription,
		AccessoriesTags:        append([]string(nil), p.AccessoriesTags...),
		Saved:                  false,
		CreatedAt:              createdAt,
		Confidence:             clamp01(p.Confidence),
	}
}

// NormalizeAnalysis returns a copy of p restricted to the populated slots:
// garment descriptions and color keys for empty slots are dropped, as are the
// accessory fields when no accessories image was given.
func (m *OutfitMapper) NormalizeAnalysis(images entity.ImageRefs, p *dto.AnalysisPayload) *dto.AnalysisPayload {
	if p == nil {
		return nil
	}
	out := *p
	if !images.Has(entity.SlotTop) {
		out.Top = ""
	}
	if !images.Has(entity.SlotTopLayer) {
		out.TopLayer = ""
	}
	if !images.Has(entity.SlotBottom) {
		out.Bottom = ""
	}
	if !images.Has(entity.SlotShoes) {
		out.Shoes = ""
	}

	if images.Has(entity.SlotAccessories) {
		out.Accessories = nonNil(append([]string(nil), p.Accessories...))
		out.AccessoriesTags = nonNil(append([]string(nil), p.AccessoriesTags...))
	} else {
		out.Accessories = []string{}
		out.AccessoriesTags = []string{}
		out.AccessoriesDescription = ""
	}

	out.Aesthetic = nonNil(append([]string(nil), p.Aesthetic...))
	out.Colors = colorsToWire(populatedColors(images, p.Colors))
	return &out
}

func populatedColors(images entity.ImageRefs, colors map[string]string) map[entity.Slot]string {
	out := make(map[entity.Slot]string)
	for key, color := range colors {
		slot, ok := entity.ParseSlot(key)
		if !ok || color == "" || !images.Has(slot) {
			continue
		}
		out[slot] = color
	}
	return out
}

func colorsToEntity(colors map[string]string) map[entity.Slot]string {
	out := make(map[entity.Slot]string, len(colors))
	for k, v := range colors {
		out[entity.Slot(k)] = v
	}
	return out
}

func colorsToWire(colors map[entity.Slot]string) map[string]string {
	out := make(map[string]string, len(colors))
	for k, v := range colors {
		out[string(k)] = v
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
