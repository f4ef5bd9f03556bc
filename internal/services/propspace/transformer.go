package propspace

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"propsync/internal/models"
)

// ErrMissingIdentity is the only hard transform failure: a listing with
// neither an id nor a reference cannot be correlated to a catalog row.
var ErrMissingIdentity = errors.New("propspace: listing has neither id nor reference")

// maxTextLength bounds title/description text for downstream storage.
const maxTextLength = 5000

// pricePriority is the order in which price amounts are considered. A sale
// amount always wins if present, even when an indicative rent is also listed.
var pricePriority = []string{"sale", "monthly", "yearly", "weekly", "daily"}

// categoryByType maps provider property-type strings to a catalog category.
// Unknown types default to residential.
var categoryByType = map[string]models.Category{
	"apartment":           models.CategoryResidential,
	"villa":               models.CategoryResidential,
	"townhouse":           models.CategoryResidential,
	"penthouse":           models.CategoryResidential,
	"duplex":              models.CategoryResidential,
	"hotel-apartment":     models.CategoryResidential,
	"full-floor":          models.CategoryResidential,
	"office":              models.CategoryCommercial,
	"shop":                models.CategoryCommercial,
	"show-room":           models.CategoryCommercial,
	"warehouse":           models.CategoryCommercial,
	"labour-camp":         models.CategoryCommercial,
	"staff-accommodation": models.CategoryCommercial,
	"land":                models.CategoryLand,
	"plot":                models.CategoryLand,
	"farm":                models.CategoryLand,
}

// subtypeByType normalizes provider property-type strings to display names.
var subtypeByType = map[string]string{
	"apartment":           "Apartment",
	"villa":               "Villa",
	"townhouse":           "Townhouse",
	"penthouse":           "Penthouse",
	"duplex":              "Duplex",
	"hotel-apartment":     "Hotel Apartment",
	"full-floor":          "Full Floor",
	"office":              "Office",
	"shop":                "Shop",
	"show-room":           "Show Room",
	"warehouse":           "Warehouse",
	"labour-camp":         "Labour Camp",
	"staff-accommodation": "Staff Accommodation",
	"land":                "Land",
	"plot":                "Plot",
	"farm":                "Farm",
}

// Transformer maps a provider listing to the catalog schema. Pure aside from
// the location lookup, which may fetch on a cache miss.
type Transformer struct {
	locations *LocationCache
}

func NewTransformer(locations *LocationCache) *Transformer {
	return &Transformer{locations: locations}
}

// Transform converts a provider listing to a catalog property. Malformed
// fields degrade to defaults; only a listing with neither id nor reference
// fails outright.
func (t *Transformer) Transform(ctx context.Context, listing *Listing) (*models.Property, error) {
	if listing.ID == 0 && listing.Reference == "" {
		return nil, ErrMissingIdentity
	}

	price, listingType := t.selectPrice(listing)

	locationEN, locationAR := t.resolveLocation(ctx, listing.LocationID)

	subtype, category := t.classify(listing.PropertyType)

	titleEN, titleAR := t.localizedText(listing.Title, defaultTitle(listing, subtype, locationEN))
	descEN, descAR := t.localizedText(listing.Description, titleEN)

	status := models.StatusUnavailable
	if listing.State.Stage == "live" {
		status = models.StatusAvailable
	}

	// A listing may carry only one of its identifiers; shared fallbacks keep
	// both correlation keys non-empty and collision-free.
	refID := strconv.FormatInt(listing.ID, 10)
	if listing.ID == 0 {
		refID = listing.Reference
	}
	reference := listing.Reference
	if reference == "" {
		reference = refID
	}

	property := &models.Property{
		ExternalRefID:     refID,
		ExternalReference: reference,
		TitleEN:           truncate(titleEN),
		TitleAR:           truncate(titleAR),
		DescriptionEN:     truncate(descEN),
		DescriptionAR:     truncate(descAR),
		Price:             price,
		Currency:          "AED",
		LocationEN:        locationEN,
		LocationAR:        locationAR,
		Bedrooms:          parseCount(listing.Bedrooms),
		Bathrooms:         parseCount(listing.Bathrooms),
		Area:              listing.Size,
		Images:            mediaURLs(listing.Media.Images),
		Videos:            mediaURLs(listing.Media.Videos),
		Amenities:         listing.Amenities,
		ListingType:       listingType,
		Status:            status,
		Category:          category,
		Subtype:           subtype,
		Verified:          listing.Verified,
		Featured:          hasProduct(listing.Products, "featured"),
	}

	return property, nil
}

// selectPrice picks the first non-zero amount in priority order. The chosen
// period determines the listing type; an off-plan completion status overrides
// it.
func (t *Transformer) selectPrice(listing *Listing) (float64, models.ListingType) {
	var price float64
	period := listing.Price.Type

	for _, p := range pricePriority {
		if amount := listing.Price.Amounts[p]; amount > 0 {
			price = amount
			period = p
			break
		}
	}

	listingType := models.ListingTypeRent
	if period == "sale" {
		listingType = models.ListingTypeSale
	}
	if listing.CompletionStatus == "off_plan" {
		listingType = models.ListingTypeOffPlan
	}

	return price, listingType
}

// resolveLocation looks the location id up in the cache. A listing with an
// unknown location must still ingest, so unresolved ids fall back to a
// placeholder embedding the raw id.
func (t *Transformer) resolveLocation(ctx context.Context, locationID int64) (string, string) {
	if locationID != 0 {
		loc, err := t.locations.Resolve(ctx, locationID)
		if err == nil && loc != nil {
			nameAR := loc.NameAR
			if nameAR == "" {
				nameAR = loc.Name
			}
			return loc.Name, nameAR
		}
	}

	placeholder := fmt.Sprintf("Location ID: %d", locationID)
	return placeholder, placeholder
}

// classify derives subtype and category from the provider property type.
func (t *Transformer) classify(propertyType string) (string, models.Category) {
	key := strings.ToLower(strings.TrimSpace(propertyType))

	subtype, ok := subtypeByType[key]
	if !ok {
		subtype = "Apartment"
	}
	category, ok := categoryByType[key]
	if !ok {
		category = models.CategoryResidential
	}

	return subtype, category
}

// localizedText fills each language from the other when one is missing, then
// from the supplied default. Downstream treats both sides as required.
func (t *Transformer) localizedText(text LocalizedText, fallback string) (string, string) {
	en := stringValue(text.EN)
	ar := stringValue(text.AR)

	if en == "" {
		en = ar
	}
	if ar == "" {
		ar = en
	}
	if en == "" {
		en = fallback
		ar = fallback
	}

	return en, ar
}

// defaultTitle builds a templated title for listings that carry no text at
// all.
func defaultTitle(listing *Listing, subtype, location string) string {
	ref := listing.Reference
	if ref == "" {
		ref = strconv.FormatInt(listing.ID, 10)
	}
	return fmt.Sprintf("%s in %s (Ref: %s)", subtype, location, ref)
}

// parseCount parses bedroom/bathroom counts. The sentinel "studio" maps to 0
// and unparsable values default to 0 rather than failing the transform.
func parseCount(raw string) int {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || value == "studio" {
		return 0
	}
	count, err := strconv.Atoi(value)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTextLength {
		return text
	}
	return string(runes[:maxTextLength]) + "..."
}

func mediaURLs(items []MediaItem) []string {
	urls := make([]string, 0, len(items))
	for _, item := range items {
		if item.URL != "" {
			urls = append(urls, item.URL)
		}
	}
	return urls
}

func hasProduct(products []string, name string) bool {
	for _, p := range products {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
