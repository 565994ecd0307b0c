package services

import "strings"

// Canonical target field names for imported cellar records.
const (
	FieldName              = "name"
	FieldWinery            = "winery"
	FieldVintage           = "vintage"
	FieldWineType          = "wine_type_id"
	FieldGrapeVariety      = "grape_variety"
	FieldRegion            = "region"
	FieldSubRegion         = "sub_region"
	FieldAppellation       = "appellation"
	FieldCountry           = "country"
	FieldAlcoholPercentage = "alcohol_percentage"
	FieldClassification    = "classification"
	FieldPriceTier         = "price_tier"
	FieldQuantity          = "quantity"
	FieldNotes             = "notes"
)

// FieldSpec describes one canonical field. The description doubles as the
// field documentation sent in oracle prompts.
type FieldSpec struct {
	Name        string
	Description string
	Required    bool
}

var canonicalFields = []FieldSpec{
	{FieldName, "The wine's name or label, e.g. \"Chateau Margaux\"", true},
	{FieldWinery, "Producer, winery, domaine, estate or bodega", false},
	{FieldVintage, "Harvest year as a four digit number, e.g. 2015", false},
	{FieldWineType, "Wine style or color, e.g. red, white, rose, sparkling", false},
	{FieldGrapeVariety, "Grape variety or varietal blend, e.g. Cabernet Sauvignon", false},
	{FieldRegion, "Wine region, e.g. Bordeaux, Tuscany", false},
	{FieldSubRegion, "Sub-region within the region, e.g. Medoc", false},
	{FieldAppellation, "Appellation or controlled designation, e.g. AOC Margaux", false},
	{FieldCountry, "Country of origin", false},
	{FieldAlcoholPercentage, "Alcohol by volume as a percentage, e.g. 13.5", false},
	{FieldClassification, "Official classification or cru level", false},
	{FieldPriceTier, "Price, price range or price category", false},
	{FieldQuantity, "Number of bottles in the cellar", false},
	{FieldNotes, "Free-form notes, comments or tasting descriptions", false},
}

var canonicalFieldSet = func() map[string]FieldSpec {
	set := make(map[string]FieldSpec, len(canonicalFields))
	for _, f := range canonicalFields {
		set[f.Name] = f
	}
	return set
}()

// headerAliases maps normalized header spellings, including common
// non-English synonyms and abbreviations, to canonical fields.
var headerAliases = map[string]string{
	// name
	"name": FieldName, "wine": FieldName, "wine name": FieldName,
	"wine_name": FieldName, "title": FieldName, "label": FieldName,
	"nom": FieldName, "vin": FieldName, "nombre": FieldName,
	"vino": FieldName, "wein": FieldName, "nome": FieldName,
	"bezeichnung": FieldName,

	// winery
	"winery": FieldWinery, "producer": FieldWinery, "producteur": FieldWinery,
	"productor": FieldWinery, "produttore": FieldWinery, "domaine": FieldWinery,
	"chateau": FieldWinery, "château": FieldWinery, "bodega": FieldWinery,
	"weingut": FieldWinery, "estate": FieldWinery, "maker": FieldWinery,
	"brand": FieldWinery,

	// vintage
	"vintage": FieldVintage, "year": FieldVintage, "yr": FieldVintage,
	"millesime": FieldVintage, "millésime": FieldVintage,
	"jahrgang": FieldVintage, "año": FieldVintage, "ano": FieldVintage,
	"annata": FieldVintage, "anno": FieldVintage, "cosecha": FieldVintage,

	// wine type
	"type": FieldWineType, "wine type": FieldWineType,
	"wine_type": FieldWineType, "style": FieldWineType,
	"color": FieldWineType, "colour": FieldWineType,
	"couleur": FieldWineType, "farbe": FieldWineType,
	"tipo": FieldWineType, "colore": FieldWineType,

	// grape variety
	"grape": FieldGrapeVariety, "grapes": FieldGrapeVariety,
	"variety": FieldGrapeVariety, "varietal": FieldGrapeVariety,
	"grape variety": FieldGrapeVariety, "cepage": FieldGrapeVariety,
	"cépage": FieldGrapeVariety, "rebsorte": FieldGrapeVariety,
	"uva": FieldGrapeVariety, "vitigno": FieldGrapeVariety,
	"cepa": FieldGrapeVariety,

	// region
	"region": FieldRegion, "région": FieldRegion, "regione": FieldRegion,
	"wine region": FieldRegion, "gebiet": FieldRegion,

	// sub-region
	"sub region": FieldSubRegion, "subregion": FieldSubRegion,
	"sub-region": FieldSubRegion, "sous-region": FieldSubRegion,
	"sous-région": FieldSubRegion, "subregione": FieldSubRegion,

	// appellation
	"appellation": FieldAppellation, "aoc": FieldAppellation,
	"aop": FieldAppellation, "doc": FieldAppellation,
	"docg": FieldAppellation, "ava": FieldAppellation,
	"denominacion": FieldAppellation, "denominación": FieldAppellation,
	"denominazione": FieldAppellation,

	// country
	"country": FieldCountry, "pays": FieldCountry, "land": FieldCountry,
	"pais": FieldCountry, "país": FieldCountry, "paese": FieldCountry,
	"origin": FieldCountry, "country of origin": FieldCountry,

	// alcohol percentage
	"alcohol": FieldAlcoholPercentage, "abv": FieldAlcoholPercentage,
	"alc": FieldAlcoholPercentage, "alcohol %": FieldAlcoholPercentage,
	"alc %": FieldAlcoholPercentage,
	"alcohol percentage": FieldAlcoholPercentage,
	"alcool":             FieldAlcoholPercentage,
	"alkohol":            FieldAlcoholPercentage,
	"gradazione":         FieldAlcoholPercentage,

	// classification
	"classification": FieldClassification, "class": FieldClassification,
	"cru": FieldClassification, "classement": FieldClassification,
	"clasificacion": FieldClassification,
	"clasificación": FieldClassification,
	"classificazione": FieldClassification,

	// price tier
	"price tier": FieldPriceTier, "price range": FieldPriceTier,
	"price category": FieldPriceTier, "price": FieldPriceTier,
	"prix": FieldPriceTier, "preis": FieldPriceTier,
	"precio": FieldPriceTier, "prezzo": FieldPriceTier,

	// quantity
	"quantity": FieldQuantity, "qty": FieldQuantity, "count": FieldQuantity,
	"bottles": FieldQuantity, "bottle count": FieldQuantity,
	"stock": FieldQuantity, "quantite": FieldQuantity,
	"quantité": FieldQuantity, "anzahl": FieldQuantity,
	"cantidad": FieldQuantity, "quantita": FieldQuantity,
	"quantità": FieldQuantity, "nb bouteilles": FieldQuantity,

	// notes
	"notes": FieldNotes, "note": FieldNotes, "comments": FieldNotes,
	"comment": FieldNotes, "description": FieldNotes,
	"remarks": FieldNotes, "tasting notes": FieldNotes,
	"notas": FieldNotes, "bemerkungen": FieldNotes,
	"commentaires": FieldNotes,
}

// CanonicalFields returns the registry of target fields in declaration order.
func CanonicalFields() []FieldSpec {
	out := make([]FieldSpec, len(canonicalFields))
	copy(out, canonicalFields)
	return out
}

// IsCanonicalField reports whether name is a known target field.
func IsCanonicalField(name string) bool {
	_, ok := canonicalFieldSet[name]
	return ok
}

// AliasTarget looks up a header spelling in the alias table,
// case-insensitively.
func AliasTarget(header string) (string, bool) {
	target, ok := headerAliases[normalizeHeader(header)]
	return target, ok
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
