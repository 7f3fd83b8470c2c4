package taxonomy

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

/*
Closed vocabularies for product categories and payment types. Every raw
label observed in the input normalizes onto exactly one slot of these
vocabularies, so order and client records always carry the same fixed set
of value columns.
*/

// Category is one slot of the closed product-category vocabulary.
type Category int

const (
	CategoryHome Category = iota
	CategorySportsLeisure
	CategoryElectronicsMultimedia
	CategoryUnknown
	CategoryToys
	CategoryAuto
	CategoryToolsProfessional
	CategoryHealthBeauty
	CategoryPetShop
	CategoryBaby
	CategoryWatchesGifts
	CategoryArtCinemaMusic
	CategoryStationery
	CategoryFashion
	CategoryOther
	CategoryBooks
	CategorySecurity

	NumCategories = 17
)

var categoryLabels = [NumCategories]string{
	"home",
	"sports_leisure",
	"electronics_and_multimedia",
	"unknown",
	"toys",
	"auto",
	"tools_and_professional_material",
	"health_and_beauty",
	"pet_shop",
	"baby",
	"watches_gifts",
	"art_cinema_music",
	"stationery",
	"fashion",
	"other",
	"books",
	"security",
}

var categoryColumns = [NumCategories]string{
	"value_home",
	"value_sports_leisure",
	"value_electronics_and_multimedia",
	"value_unknown",
	"value_toys",
	"value_auto",
	"value_tools_and_professional_material",
	"value_health_and_beauty",
	"value_pet_shop",
	"value_baby",
	"value_watches_gifts",
	"value_art_cinema_music",
	"value_stationery",
	"value_fashion",
	"value_other",
	"value_books",
	"value_security",
}

func (c Category) String() string { return categoryLabels[c] }

// Column is the output column name carrying this category's spend.
func (c Category) Column() string { return categoryColumns[c] }

// Categories returns every vocabulary slot in column order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// PaymentType is one slot of the closed payment-type vocabulary.
type PaymentType int

const (
	PaymentCreditCard PaymentType = iota
	PaymentDebitCard
	PaymentVoucher
	PaymentBoleto
	PaymentNotDefined

	NumPaymentTypes = 5
)

var paymentLabels = [NumPaymentTypes]string{
	"credit_card",
	"debit_card",
	"voucher",
	"boleto",
	"not_defined",
}

var paymentColumns = [NumPaymentTypes]string{
	"payment_value_credit_card",
	"payment_value_debit_card",
	"payment_value_voucher",
	"payment_value_boleto",
	"payment_value_not_defined",
}

func (p PaymentType) String() string { return paymentLabels[p] }

// Column is the output column name carrying this payment type's value.
func (p PaymentType) Column() string { return paymentColumns[p] }

// PaymentTypes returns every vocabulary slot in column order.
func PaymentTypes() []PaymentType {
	out := make([]PaymentType, NumPaymentTypes)
	for i := range out {
		out[i] = PaymentType(i)
	}
	return out
}

// Curated many-to-one mapping from the fine-grained product taxonomy to the
// coarse business categories. Static data, overridable from a TOML file.
var defaultCategoryMapping = map[string]Category{
	"office_furniture":                        CategoryHome,
	"home_comfort_2":                          CategoryHome,
	"la_cuisine":                              CategoryHome,
	"furniture_mattress_and_upholstery":       CategoryHome,
	"furniture_bedroom":                       CategoryHome,
	"furniture_living_room":                   CategoryHome,
	"fixed_telephony":                         CategoryHome,
	"home_appliances":                         CategoryHome,
	"small_appliances_home_oven_and_coffee":   CategoryHome,
	"home_appliances_2":                       CategoryHome,
	"kitchen_dining_laundry_garden_furniture": CategoryHome,
	"bed_bath_table":                          CategoryHome,
	"furniture_decor":                         CategoryHome,
	"home_confort":                            CategoryHome,
	"housewares":                              CategoryHome,

	"fashion_childrens_clothes": CategoryFashion,
	"fashion_sport":             CategoryFashion,
	"fashion_underwear_beach":   CategoryFashion,
	"fashion_shoes":             CategoryFashion,
	"fashion_male_clothing":     CategoryFashion,
	"fashion_bags_accessories":  CategoryFashion,
	"luggage_accessories":       CategoryFashion,
	"fashio_female_clothing":    CategoryFashion,

	"diapers_and_hygiene": CategoryBaby,

	"perfumery":     CategoryHealthBeauty,
	"health_beauty": CategoryHealthBeauty,

	"arts_and_craftmanship": CategoryArtCinemaMusic,
	"cds_dvds_musicals":     CategoryArtCinemaMusic,
	"cine_photo":            CategoryArtCinemaMusic,
	"audio":                 CategoryArtCinemaMusic,
	"dvds_blu_ray":          CategoryArtCinemaMusic,
	"music":                 CategoryArtCinemaMusic,
	"musical_instruments":   CategoryArtCinemaMusic,
	"art":                   CategoryArtCinemaMusic,

	"books_technical":        CategoryBooks,
	"books_imported":         CategoryBooks,
	"books_general_interest": CategoryBooks,

	"costruction_tools_garden":        CategoryToolsProfessional,
	"agro_industry_and_commerce":      CategoryToolsProfessional,
	"construction_tools_safety":       CategoryToolsProfessional,
	"industry_commerce_and_business":  CategoryToolsProfessional,
	"construction_tools_construction": CategoryToolsProfessional,
	"costruction_tools_tools":         CategoryToolsProfessional,
	"home_construction":               CategoryToolsProfessional,
	"construction_tools_lights":       CategoryToolsProfessional,
	"garden_tools":                    CategoryToolsProfessional,
	"air_conditioning":                CategoryToolsProfessional,

	"security_and_services":  CategorySecurity,
	"signaling_and_security": CategorySecurity,

	"computers":              CategoryElectronicsMultimedia,
	"tablets_printing_image": CategoryElectronicsMultimedia,
	"electronics":            CategoryElectronicsMultimedia,
	"consoles_games":         CategoryElectronicsMultimedia,
	"telephony":              CategoryElectronicsMultimedia,
	"computers_accessories":  CategoryElectronicsMultimedia,
	"small_appliances":       CategoryElectronicsMultimedia,

	"cool_stuff":         CategoryOther,
	"party_supplies":     CategoryOther,
	"food":               CategoryOther,
	"drinks":             CategoryOther,
	"food_drink":         CategoryOther,
	"christmas_supplies": CategoryOther,
	"market_place":       CategoryOther,
	"flowers":            CategoryOther,
}

var defaultPaymentMapping = map[string]PaymentType{
	"credit_card": PaymentCreditCard,
	"debit_card":  PaymentDebitCard,
	"voucher":     PaymentVoucher,
	"boleto":      PaymentBoleto,
	"not_defined": PaymentNotDefined,
}

// Taxonomy normalizes raw category and payment-type labels onto the closed
// vocabularies. Immutable once constructed; safe for concurrent reads.
type Taxonomy struct {
	categoryByLabel map[string]Category
	coarseByRaw     map[string]Category
	paymentByLabel  map[string]PaymentType
}

// Default builds a Taxonomy from the built-in mapping tables.
func Default() *Taxonomy {
	t := &Taxonomy{
		categoryByLabel: make(map[string]Category, NumCategories),
		coarseByRaw:     make(map[string]Category, len(defaultCategoryMapping)),
		paymentByLabel:  make(map[string]PaymentType, NumPaymentTypes),
	}
	for i, label := range categoryLabels {
		t.categoryByLabel[label] = Category(i)
	}
	for raw, c := range defaultCategoryMapping {
		t.coarseByRaw[raw] = c
	}
	for label, p := range defaultPaymentMapping {
		t.paymentByLabel[label] = p
	}
	return t
}

// NormalizeCategory maps a raw category label onto the closed vocabulary.
// Total and idempotent: empty input yields CategoryUnknown, labels already
// in the vocabulary map to themselves, curated raw labels map to their
// coarse category, and everything else falls back to CategoryOther.
func (t *Taxonomy) NormalizeCategory(raw string) Category {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryUnknown
	}
	if c, ok := t.categoryByLabel[raw]; ok {
		return c
	}
	if c, ok := t.coarseByRaw[raw]; ok {
		return c
	}
	return CategoryOther
}

// NormalizePaymentType maps a raw payment-type label onto the closed
// vocabulary, with PaymentNotDefined as the catch-all.
func (t *Taxonomy) NormalizePaymentType(raw string) PaymentType {
	raw = strings.TrimSpace(raw)
	if p, ok := t.paymentByLabel[raw]; ok {
		return p
	}
	return PaymentNotDefined
}

// IsMappedCategory reports whether raw is a vocabulary label or a curated
// raw label, i.e. whether normalization resolved it without the catch-all.
func (t *Taxonomy) IsMappedCategory(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	if _, ok := t.categoryByLabel[raw]; ok {
		return true
	}
	_, ok := t.coarseByRaw[raw]
	return ok
}

// KnownRawLabels returns the curated fine-grained labels, sorted.
func (t *Taxonomy) KnownRawLabels() []string {
	out := make([]string, 0, len(t.coarseByRaw))
	for raw := range t.coarseByRaw {
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

type rawMappingConfig struct {
	Version  int               `toml:"version"`
	Category map[string]string `toml:"category"`
	Payment  map[string]string `toml:"payment"`
}

// Load builds a Taxonomy from the built-in tables plus overrides read from
// a TOML file. Override values must name labels of the closed vocabularies.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	var raw rawMappingConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse taxonomy file: %w", err)
	}

	t := Default()
	for from, to := range raw.Category {
		c, ok := t.categoryByLabel[to]
		if !ok {
			return nil, fmt.Errorf("taxonomy file: category %q maps to unknown label %q", from, to)
		}
		t.coarseByRaw[from] = c
	}
	for from, to := range raw.Payment {
		p, ok := t.paymentByLabel[strings.TrimSpace(to)]
		if !ok {
			return nil, fmt.Errorf("taxonomy file: payment %q maps to unknown label %q", from, to)
		}
		t.paymentByLabel[from] = p
	}
	return t, nil
}

/*
Purchase-moment buckets. Hours bucket into moments of the day, weekdays
into the two halves of the week used for preference detection.
*/

const (
	WeekMomentMonThu = "Monday-Thursday"
	WeekMomentFriSun = "Friday-Sunday"
)

// DayMomentOf buckets an hour of the day (0-23).
func DayMomentOf(hour int) string {
	switch {
	case hour < 6:
		return "night"
	case hour < 11:
		return "morning"
	case hour < 14:
		return "midday"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// WeekdayIndex returns the weekday of t with Monday as 0 and Sunday as 6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekMomentOf buckets a Monday-based weekday index.
func WeekMomentOf(weekday int) string {
	if weekday < 4 {
		return WeekMomentMonThu
	}
	return WeekMomentFriSun
}
