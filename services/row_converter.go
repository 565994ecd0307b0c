package services

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"cellar-service/models"
)

// Vintage bounds; out-of-range years omit the field rather than failing the
// row.
const (
	minVintage = 1900
	maxVintage = 2100
)

// nonWineKeywords flags rows that are clearly spirits, beer or cider rather
// than wine. Matching is case-insensitive and token-based, so "Ginger" does
// not trip on "gin".
var nonWineKeywords = map[string]struct{}{
	"whiskey": {}, "whisky": {}, "bourbon": {}, "scotch": {},
	"vodka": {}, "gin": {}, "rum": {}, "tequila": {}, "mezcal": {},
	"brandy": {}, "cognac": {}, "liqueur": {}, "absinthe": {},
	"beer": {}, "ale": {}, "lager": {}, "stout": {}, "pilsner": {},
	"cider": {}, "mead": {}, "soju": {},
}

// IsNonWineRow reports whether a row looks like a non-wine beverage. Only
// columns mapped to the name or wine-type fields are inspected.
func IsNonWineRow(headers []string, row map[string]string, mapping map[string]string) bool {
	for _, h := range headers {
		target := mapping[h]
		if target != FieldName && target != FieldWineType {
			continue
		}
		if containsNonWineKeyword(row[h]) {
			return true
		}
	}
	return false
}

func containsNonWineKeyword(value string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, token := range tokens {
		if _, ok := nonWineKeywords[token]; ok {
			return true
		}
	}
	return false
}

// ConvertRow turns one raw row into a cellar record under the given mapping.
// The second result reports a skip: a row with no name value after
// conversion is skipped regardless of its other content.
//
// Coercion is best-effort and never fails the row; an invalid value just
// omits its field. Headers are walked in original order, so when two headers
// map to the same target the last one wins.
func ConvertRow(headers []string, row map[string]string, mapping map[string]string, defaultQuantity int, now time.Time) (*models.Wine, bool) {
	wine := &models.Wine{
		Quantity: models.WineQuantity{Quantity: defaultQuantity, UpdatedAt: now},
	}

	customFields := make(map[string]string)
	var customOrder []string

	for _, h := range headers {
		target := mapping[h]
		if target == "" || target == MappingTargetSkip {
			continue
		}
		value := strings.TrimSpace(row[h])

		if strings.HasPrefix(target, CustomTargetPrefix) {
			name := strings.TrimSpace(strings.TrimPrefix(target, CustomTargetPrefix))
			if name == "" || value == "" {
				continue
			}
			if _, seen := customFields[name]; !seen {
				customOrder = append(customOrder, name)
			}
			customFields[name] = value
			continue
		}

		if value == "" {
			continue
		}
		switch target {
		case FieldName:
			wine.Name = value
		case FieldWinery:
			wine.Winery = value
		case FieldVintage:
			if vintage, err := strconv.Atoi(value); err == nil && vintage >= minVintage && vintage <= maxVintage {
				wine.Vintage = &vintage
			}
		case FieldWineType:
			wine.WineTypeID = value
		case FieldGrapeVariety:
			wine.GrapeVariety = value
		case FieldRegion:
			wine.Region = value
		case FieldSubRegion:
			wine.SubRegion = value
		case FieldAppellation:
			wine.Appellation = value
		case FieldCountry:
			wine.Country = value
		case FieldAlcoholPercentage:
			raw := strings.TrimSpace(strings.TrimSuffix(value, "%"))
			if alcohol, err := strconv.ParseFloat(raw, 64); err == nil {
				wine.AlcoholPercentage = &alcohol
			}
		case FieldClassification:
			wine.Classification = value
		case FieldPriceTier:
			wine.PriceTier = value
		case FieldQuantity:
			// Truncated integer; overrides the batch default only when
			// positive.
			if q, err := strconv.ParseFloat(value, 64); err == nil && int(q) > 0 {
				wine.Quantity.Quantity = int(q)
			}
		case FieldNotes:
			wine.Notes = value
		}
	}

	if wine.Name == "" {
		return nil, true
	}

	if len(customFields) > 0 {
		wine.CustomFields = customFields
		wine.CustomSearchText = buildSearchText(customOrder, customFields)
	}
	return wine, false
}

// buildSearchText derives the searchable blob over custom fields: the
// space-joined "<name> <value>" pairs in first-seen header order.
func buildSearchText(order []string, fields map[string]string) string {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, name+" "+fields[name])
	}
	return strings.Join(parts, " ")
}
