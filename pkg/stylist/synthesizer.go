package stylist

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"
)

// SyntheticConfidence marks an analysis as generated from presets, not by a model.
const SyntheticConfidence = 0.5

// PlaceholderImage is an inline SVG preview. It never triggers a network fetch.
const PlaceholderImage = "data:image/svg+xml;utf8," +
	"%3Csvg xmlns='http://www.w3.org/2000/svg' width='240' height='320' viewBox='0 0 240 320'%3E" +
	"%3Crect width='240' height='320' rx='16' fill='%23f4efe9'/%3E" +
	"%3Cpath d='M84 40l36 20 36-20 40 28-20 36-16-8v164H80V96l-16 8-20-36z' fill='%23c9b8a6'/%3E" +
	"%3Ctext x='120' y='300' font-family='sans-serif' font-size='14' text-anchor='middle' fill='%237a6a5a'%3EStyle preview%3C/text%3E" +
	"%3C/svg%3E"

// RandomSource picks an index in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Synthesizer builds a complete analysis from presets without any network call.
// It cannot fail.
type Synthesizer struct {
	catalog *Catalog
	mu      sync.Mutex
	rnd     RandomSource
	now     func() time.Time
}

// NewSynthesizer uses rnd for every pseudo-random pick. A nil rnd gets a
// time-seeded source.
func NewSynthesizer(catalog *Catalog, rnd RandomSource) *Synthesizer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{
		catalog: catalog,
		rnd:     rnd,
		now:     time.Now,
	}
}

func (s *Synthesizer) Catalog() *Catalog {
	return s.catalog
}

func (s *Synthesizer) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.rnd.Intn(len(options))
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}

func (s *Synthesizer) Synthesize(oc entity.OutfitContext) *dto.AnalysisPayload {
	preset := s.catalog.Season(oc.Session.Season)
	formality, formalityTags := s.catalog.Formality(oc.Session.Formality)

	garments := make(map[entity.Slot]string, len(entity.GarmentSlots))
	for _, slot := range entity.GarmentSlots {
		if oc.Images.Has(slot) {
			garments[slot] = s.pick(preset.Garments[slot])
		}
	}

	var accessories []string
	if oc.Images.Has(entity.SlotAccessories) {
		accessories = firstN(preset.Accessories, 2)
	}

	aesthetic := firstN(preset.Aesthetic, 2)
	if tag := s.pick(formalityTags); tag != "" {
		aesthetic = append(aesthetic, tag)
	}

	colors := make(map[string]string)
	for i, slot := range entity.GarmentSlots {
		if garments[slot] != "" && i < len(preset.Colors) {
			colors[string(slot)] = preset.Colors[i]
		}
	}
	if len(accessories) > 0 {
		colors[string(entity.SlotAccessories)] = MixedMaterials
	}

	var fragments []string
	for _, slot := range entity.GarmentSlots {
		if d := garments[slot]; d != "" {
			fragments = append(fragments, d)
		}
	}
	var accessoriesDescription string
	if len(accessories) > 0 {
		named := strings.ToLower(strings.Join(accessories, " and "))
		fragments = append(fragments, "accessorized with "+named)
		accessoriesDescription = fmt.Sprintf("Finish the look with a %s.", named)
	}

	return &dto.AnalysisPayload{
		Top:                    garments[entity.SlotTop],
		TopLayer:               garments[entity.SlotTopLayer],
		Bottom:                 garments[entity.SlotBottom],
		Shoes:                  garments[entity.SlotShoes],
		Accessories:            nonNil(accessories),
		Aesthetic:              aesthetic,
		Colors:                 colors,
		AiDescription:          strings.Join(fragments, ", "),
		AccessoriesDescription: accessoriesDescription,
		AccessoriesTags:        nonNil(append([]string(nil), accessories...)),
		AiImageUrl:             PlaceholderImage,
		Season:                 string(preset.Season),
		Formality:              string(formality),
		Confidence:             SyntheticConfidence,
		Timestamp:              s.now(),
	}
}

func firstN(items []string, n int) []string {
	if len(items) < n {
		n = len(items)
	}
	return append([]string(nil), items[:n]...)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
