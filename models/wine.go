package models

import "time"

// WineQuantity tracks the bottle count for a cellar record.
type WineQuantity struct {
	Quantity  int       `bson:"quantity" json:"quantity"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Wine is a single cellar inventory record produced by the import pipeline.
// All canonical fields except Name are optional; an invalid source value
// simply leaves its field unset. Columns without a canonical mapping are
// retained in CustomFields under their original header names, and
// CustomSearchText is the derived searchable blob over those values.
type Wine struct {
	ID                string            `bson:"_id" json:"id"`
	OwnerID           string            `bson:"owner_id" json:"owner_id"`
	Name              string            `bson:"name" json:"name"`
	Winery            string            `bson:"winery,omitempty" json:"winery,omitempty"`
	Vintage           *int              `bson:"vintage,omitempty" json:"vintage,omitempty"`
	WineTypeID        string            `bson:"wine_type_id,omitempty" json:"wine_type_id,omitempty"`
	GrapeVariety      string            `bson:"grape_variety,omitempty" json:"grape_variety,omitempty"`
	Region            string            `bson:"region,omitempty" json:"region,omitempty"`
	SubRegion         string            `bson:"sub_region,omitempty" json:"sub_region,omitempty"`
	Appellation       string            `bson:"appellation,omitempty" json:"appellation,omitempty"`
	Country           string            `bson:"country,omitempty" json:"country,omitempty"`
	AlcoholPercentage *float64          `bson:"alcohol_percentage,omitempty" json:"alcohol_percentage,omitempty"`
	Classification    string            `bson:"classification,omitempty" json:"classification,omitempty"`
	PriceTier         string            `bson:"price_tier,omitempty" json:"price_tier,omitempty"`
	Notes             string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CustomFields      map[string]string `bson:"custom_fields,omitempty" json:"custom_fields,omitempty"`
	CustomSearchText  string            `bson:"custom_search_text,omitempty" json:"custom_search_text,omitempty"`
	Quantity          WineQuantity      `bson:"quantity" json:"quantity"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
}
