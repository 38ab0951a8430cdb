package stylist

import "outfit-stylist-be/internal/entity"

// SeasonPreset is the static reference data for one season.
// Colors holds at least four entries and Aesthetic at least two.
type SeasonPreset struct {
	Season      entity.Season
	Colors      []string
	Accessories []string
	Aesthetic   []string
	Description string
	Garments    map[entity.Slot][]string
}

// Catalog is the read-only preset data the synthesizer draws from.
type Catalog struct {
	seasons       map[entity.Season]*SeasonPreset
	formalityTags map[entity.Formality][]string
	defaultSeason entity.Season
}

// DefaultSeason is used whenever an unrecognized season is requested.
const DefaultSeason = entity.SeasonSpring

// MixedMaterials is the color label given to accessories.
const MixedMaterials = "Mixed Materials"

func DefaultCatalog() *Catalog {
	return &Catalog{
		seasons: map[entity.Season]*SeasonPreset{
			entity.SeasonSpring: {
				Season:      entity.SeasonSpring,
				Colors:      []string{"Blush Pink", "Sage Green", "Cream", "Light Denim", "Lavender"},
				Accessories: []string{"Straw Tote", "Silk Scarf", "Delicate Gold Necklace"},
				Aesthetic:   []string{"Fresh", "Romantic", "Airy"},
				Description: "Soft pastels and light layers for mild days and cool evenings.",
				Garments: map[entity.Slot][]string{
					entity.SlotTop:      {"Floral print blouse", "Pastel knit tee", "Linen button-up shirt"},
					entity.SlotTopLayer: {"Light trench coat", "Cropped denim jacket", "Cotton cardigan"},
					entity.SlotBottom:   {"Wide-leg linen trousers", "Pleated midi skirt", "Light-wash straight jeans"},
					entity.SlotShoes:    {"White leather sneakers", "Ballet flats", "Espadrille loafers"},
				},
			},
			entity.SeasonSummer: {
				Season:      entity.SeasonSummer,
				Colors:      []string{"Crisp White", "Coral", "Sky Blue", "Sand", "Citrus Yellow"},
				Accessories: []string{"Sunglasses", "Woven Bucket Hat", "Beaded Bracelet"},
				Aesthetic:   []string{"Breezy", "Vibrant", "Relaxed"},
				Description: "Breathable fabrics and bright accents built for heat.",
				Garments: map[entity.Slot][]string{
					entity.SlotTop:      {"Cotton tank top", "Short-sleeve camp shirt", "Ribbed crop top"},
					entity.SlotTopLayer: {"Sheer linen overshirt", "Lightweight kimono", "Open crochet cardigan"},
					entity.SlotBottom:   {"Denim cutoff shorts", "Flowy maxi skirt", "Tailored linen shorts"},
					entity.SlotShoes:    {"Leather slide sandals", "Canvas slip-ons", "Strappy flat sandals"},
				},
			},
			entity.SeasonFall: {
				Season:      entity.SeasonFall,
				Colors:      []string{"Rust", "Camel", "Olive", "Chocolate Brown", "Burgundy"},
				Accessories: []string{"Leather Crossbody Bag", "Wool Beanie", "Tortoiseshell Glasses"},
				Aesthetic:   []string{"Cozy", "Earthy", "Layered"},
				Description: "Warm earth tones and textured layers for crisp weather.",
				Garments: map[entity.Slot][]string{
					entity.SlotTop:      {"Chunky knit sweater", "Flannel shirt", "Ribbed turtleneck"},
					entity.SlotTopLayer: {"Suede jacket", "Quilted vest", "Wool blazer"},
					entity.SlotBottom:   {"Corduroy trousers", "Dark-wash jeans", "Plaid midi skirt"},
					entity.SlotShoes:    {"Chelsea boots", "Leather loafers", "Lace-up ankle boots"},
				},
			},
			entity.SeasonWinter: {
				Season:      entity.SeasonWinter,
				Colors:      []string{"Charcoal", "Ivory", "Navy", "Black", "Forest Green"},
				Accessories: []string{"Cashmere Scarf", "Leather Gloves", "Knit Beanie"},
				Aesthetic:   []string{"Polished", "Warm", "Minimal"},
				Description: "Deep neutrals and insulating pieces for the cold months.",
				Garments: map[entity.Slot][]string{
					entity.SlotTop:      {"Cashmere crewneck", "Thermal henley", "Merino turtleneck"},
					entity.SlotTopLayer: {"Wool overcoat", "Puffer jacket", "Shearling-lined parka"},
					entity.SlotBottom:   {"Wool trousers", "Fleece-lined leggings", "Black straight jeans"},
					entity.SlotShoes:    {"Waterproof winter boots", "Leather combat boots", "Shearling-lined sneakers"},
				},
			},
		},
		formalityTags: map[entity.Formality][]string{
			entity.FormalityCasual:         {"Laid-back", "Everyday", "Effortless"},
			entity.FormalitySemiFormal:     {"Refined", "Elegant", "Tailored"},
			entity.FormalityBusinessCasual: {"Smart", "Professional", "Versatile"},
			entity.FormalitySports:         {"Athletic", "Sporty", "Performance"},
		},
		defaultSeason: DefaultSeason,
	}
}

// Season returns the preset for s, or the default season's preset when s is unknown.
func (c *Catalog) Season(s entity.Season) *SeasonPreset {
	if parsed, ok := entity.ParseSeason(string(s)); ok {
		if preset, found := c.seasons[parsed]; found {
			return preset
		}
	}
	return c.seasons[c.defaultSeason]
}

// Formality resolves f, falling back to casual, and returns its tag candidates.
func (c *Catalog) Formality(f entity.Formality) (entity.Formality, []string) {
	if parsed, ok := entity.ParseFormality(string(f)); ok {
		if tags, found := c.formalityTags[parsed]; found {
			return parsed, tags
		}
	}
	return entity.FormalityCasual, c.formalityTags[entity.FormalityCasual]
}

func (c *Catalog) DefaultSeason() entity.Season {
	return c.defaultSeason
}

// Seasons returns presets in calendar order.
func (c *Catalog) Seasons() []*SeasonPreset {
	presets := make([]*SeasonPreset, 0, len(entity.Seasons))
	for _, s := range entity.Seasons {
		if p, ok := c.seasons[s]; ok {
			presets = append(presets, p)
		}
	}
	return presets
}
