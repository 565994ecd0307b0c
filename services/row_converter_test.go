package services

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestConvertRowVintageBounds(t *testing.T) {
	headers := []string{"Name", "Year"}
	mapping := map[string]string{"Name": "name", "Year": "vintage"}

	cases := []struct {
		value    string
		accepted bool
	}{
		{"1899", false},
		{"1900", true},
		{"2100", true},
		{"2101", false},
		{"abc", false},
	}
	for _, tc := range cases {
		row := map[string]string{"Name": "Test Wine", "Year": tc.value}
		wine, skip := ConvertRow(headers, row, mapping, 1, testNow)
		if skip {
			t.Fatalf("row with vintage %q unexpectedly skipped", tc.value)
		}
		if tc.accepted && wine.Vintage == nil {
			t.Fatalf("expected vintage %q accepted", tc.value)
		}
		if !tc.accepted && wine.Vintage != nil {
			t.Fatalf("expected vintage %q omitted, got %d", tc.value, *wine.Vintage)
		}
	}
}

func TestConvertRowAlcoholPercentage(t *testing.T) {
	headers := []string{"Name", "ABV"}
	mapping := map[string]string{"Name": "name", "ABV": "alcohol_percentage"}

	row := map[string]string{"Name": "Barolo", "ABV": "14.5%"}
	wine, _ := ConvertRow(headers, row, mapping, 1, testNow)
	if wine.AlcoholPercentage == nil || *wine.AlcoholPercentage != 14.5 {
		t.Fatalf("expected 14.5, got %v", wine.AlcoholPercentage)
	}

	row = map[string]string{"Name": "Barolo", "ABV": "strong"}
	wine, _ = ConvertRow(headers, row, mapping, 1, testNow)
	if wine.AlcoholPercentage != nil {
		t.Fatalf("expected invalid alcohol omitted, got %v", *wine.AlcoholPercentage)
	}
}

func TestConvertRowQuantity(t *testing.T) {
	headers := []string{"Name", "Qty"}
	mapping := map[string]string{"Name": "name", "Qty": "quantity"}

	cases := []struct {
		value    string
		expected int
	}{
		{"3", 3},
		{"2.9", 2}, // truncated
		{"0", 6},   // non-positive keeps the default
		{"-4", 6},
		{"many", 6},
		{"", 6},
	}
	for _, tc := range cases {
		row := map[string]string{"Name": "Test", "Qty": tc.value}
		wine, _ := ConvertRow(headers, row, mapping, 6, testNow)
		if wine.Quantity.Quantity != tc.expected {
			t.Fatalf("quantity %q: expected %d, got %d", tc.value, tc.expected, wine.Quantity.Quantity)
		}
		if !wine.Quantity.UpdatedAt.Equal(testNow) {
			t.Fatalf("expected quantity timestamp seeded")
		}
	}
}

func TestConvertRowPlainFieldSurvivesVerbatim(t *testing.T) {
	headers := []string{"Name", "Region"}
	mapping := map[string]string{"Name": "name", "Region": "region"}
	row := map[string]string{"Name": "Ridge Monte Bello", "Region": "Santa Cruz Mountains"}

	wine, _ := ConvertRow(headers, row, mapping, 1, testNow)
	if wine.Region != "Santa Cruz Mountains" {
		t.Fatalf("expected verbatim region, got %q", wine.Region)
	}
}

func TestConvertRowSkipsWithoutName(t *testing.T) {
	headers := []string{"Name", "Region"}
	mapping := map[string]string{"Name": "name", "Region": "region"}
	row := map[string]string{"Name": "  ", "Region": "Rioja"}

	wine, skip := ConvertRow(headers, row, mapping, 1, testNow)
	if !skip {
		t.Fatalf("expected skip for nameless row, got %+v", wine)
	}
}

func TestConvertRowLastMappedHeaderWins(t *testing.T) {
	headers := []string{"Label", "Wine"}
	mapping := map[string]string{"Label": "name", "Wine": "name"}
	row := map[string]string{"Label": "First", "Wine": "Second"}

	wine, _ := ConvertRow(headers, row, mapping, 1, testNow)
	if wine.Name != "Second" {
		t.Fatalf("expected last mapped header to win, got %q", wine.Name)
	}
}

func TestConvertRowCustomFieldsAndSearchText(t *testing.T) {
	headers := []string{"Name", "Bin", "Rack"}
	mapping := map[string]string{
		"Name": "name",
		"Bin":  "custom:Bin",
		"Rack": "custom:Rack",
	}
	row := map[string]string{"Name": "Tignanello", "Bin": "12", "Rack": "A"}

	wine, _ := ConvertRow(headers, row, mapping, 1, testNow)
	if wine.CustomFields["Bin"] != "12" || wine.CustomFields["Rack"] != "A" {
		t.Fatalf("unexpected custom fields: %v", wine.CustomFields)
	}
	if wine.CustomSearchText != "Bin 12 Rack A" {
		t.Fatalf("unexpected search text: %q", wine.CustomSearchText)
	}
}

func TestConvertRowEmptyCustomValueOmitted(t *testing.T) {
	headers := []string{"Name", "Bin"}
	mapping := map[string]string{"Name": "name", "Bin": "custom:Bin"}
	row := map[string]string{"Name": "Tignanello", "Bin": ""}

	wine, _ := ConvertRow(headers, row, mapping, 1, testNow)
	if len(wine.CustomFields) != 0 {
		t.Fatalf("expected no custom fields, got %v", wine.CustomFields)
	}
	if wine.CustomSearchText != "" {
		t.Fatalf("expected empty search text, got %q", wine.CustomSearchText)
	}
}

func TestIsNonWineRow(t *testing.T) {
	headers := []string{"Name", "Type", "Notes"}
	mapping := map[string]string{"Name": "name", "Type": "wine_type_id", "Notes": "notes"}

	cases := []struct {
		row      map[string]string
		expected bool
	}{
		{map[string]string{"Name": "Chateau Margaux", "Type": "Red"}, false},
		{map[string]string{"Name": "Jameson", "Type": "Whiskey"}, true},
		{map[string]string{"Name": "Old Rasputin Stout", "Type": ""}, true},
		// Keyword match is token-based, not substring.
		{map[string]string{"Name": "Gingerbread Reserve", "Type": "Red"}, false},
		// Only name and wine-type columns are inspected.
		{map[string]string{"Name": "Barolo", "Type": "Red", "Notes": "pairs well with whiskey cake"}, false},
	}
	for i, tc := range cases {
		if got := IsNonWineRow(headers, tc.row, mapping); got != tc.expected {
			t.Fatalf("case %d: expected %v, got %v (%v)", i, tc.expected, got, tc.row)
		}
	}
}
