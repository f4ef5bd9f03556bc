package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is the catalog entity a provider listing reconciles into.
// ExternalRefID and ExternalReference are the provider's identifiers; either
// one matching an existing row means "same listing".
type Property struct {
	ID                string   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ExternalRefID     string   `json:"external_ref_id" gorm:"uniqueIndex;not null"`
	ExternalReference string   `json:"external_reference" gorm:"uniqueIndex;not null"`
	TitleEN           string   `json:"title_en" gorm:"not null"`
	TitleAR           string   `json:"title_ar"`
	DescriptionEN     string   `json:"description_en"`
	DescriptionAR     string   `json:"description_ar"`
	Price             float64  `json:"price" gorm:"type:decimal(14,2)"`
	Currency          string   `json:"currency" gorm:"default:AED"`
	LocationEN        string   `json:"location_en"`
	LocationAR        string   `json:"location_ar"`
	Bedrooms          int      `json:"bedrooms"`
	Bathrooms         int      `json:"bathrooms"`
	Area              float64  `json:"area"`
	Images            []string `json:"images" gorm:"type:jsonb;serializer:json"`
	Videos            []string `json:"videos" gorm:"type:jsonb;serializer:json"`
	Amenities         []string `json:"amenities" gorm:"type:jsonb;serializer:json"`

	ListingType ListingType    `json:"listing_type" gorm:"default:sale"`
	Status      PropertyStatus `json:"status" gorm:"default:available"`
	Category    Category       `json:"category" gorm:"default:residential"`
	Subtype     string         `json:"subtype" gorm:"default:Apartment"`

	Verified  bool      `json:"verified" gorm:"default:false"`
	Featured  bool      `json:"featured" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListingType string

const (
	ListingTypeSale    ListingType = "sale"
	ListingTypeRent    ListingType = "rent"
	ListingTypeOffPlan ListingType = "off-plan"
)

type PropertyStatus string

const (
	StatusAvailable   PropertyStatus = "available"
	StatusSold        PropertyStatus = "sold"
	StatusRented      PropertyStatus = "rented"
	StatusUnavailable PropertyStatus = "unavailable"
)

type Category string

const (
	CategoryResidential Category = "residential"
	CategoryCommercial  Category = "commercial"
	CategoryLand        Category = "land"
)

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
