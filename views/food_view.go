package views

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"foodwagen/models"
	"foodwagen/services"
)

const (
	RatingUnavailable  = "N/A"
	PriceUnavailable   = "Price TBD"
	UnknownRestaurant  = "Unknown Restaurant"
	StatusUnavailable  = "Status unavailable"
	EmptyStateTitle    = "No items available"
	EmptyStateMessage  = "Add a food item to get started."
	LoadErrorTitle     = "Failed to load food items."
	UnknownErrorDetail = "Unknown error."
)

// FormatRating shows one decimal, or N/A when the API sent no usable rating.
func FormatRating(r *float64) string {
	if r == nil || math.IsNaN(*r) || math.IsInf(*r, 0) {
		return RatingUnavailable
	}
	return fmt.Sprintf("%.1f", *r)
}

func FormatPrice(p *float64) string {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return PriceUnavailable
	}
	return fmt.Sprintf("$%.2f", *p)
}

// SortByRating orders items best rated first. Items without a rating go
// last and ties keep their API order. items is not modified.
func SortByRating(items []models.FoodItem) []models.FoodItem {
	out := make([]models.FoodItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rating, out[j].Rating
		switch {
		case ri == nil || math.IsNaN(*ri):
			return false
		case rj == nil || math.IsNaN(*rj):
			return true
		}
		return *ri > *rj
	})
	return out
}

// FilterByServiceType narrows items to one service type; an empty type keeps all.
func FilterByServiceType(items []models.FoodItem, st models.ServiceType) []models.FoodItem {
	if st == "" {
		return items
	}
	return services.FilterByServiceType(items, st)
}

type FoodCardView struct {
	ID               string
	Name             string
	Price            string
	Rating           string
	Image            string
	RestaurantName   string
	RestaurantLogo   string
	RestaurantStatus string
	Open             bool
	ServiceType      string
	Updated          string
}

// NewFoodCardView prepares one card. now is used for the relative update time.
func NewFoodCardView(item models.FoodItem, now time.Time) FoodCardView {
	card := FoodCardView{
		ID:               item.ID,
		Name:             item.Name,
		Price:            FormatPrice(item.Price),
		Rating:           FormatRating(item.Rating),
		Image:            item.Image,
		RestaurantName:   UnknownRestaurant,
		RestaurantStatus: StatusUnavailable,
		ServiceType:      string(item.ServiceType),
	}
	if r := item.Restaurant; r != nil {
		if r.Name != "" {
			card.RestaurantName = r.Name
		}
		card.RestaurantLogo = r.Logo
		if r.Status != "" {
			card.RestaurantStatus = string(r.Status)
		}
		card.Open = r.Status == models.RestaurantOpen
	}
	card.Updated = relativeTime(item.UpdatedAt, now)
	if card.Updated == "" {
		card.Updated = relativeTime(item.CreatedAt, now)
	}
	return card
}

func relativeTime(stamp string, now time.Time) string {
	if stamp == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// ListView is the visible list: filtered, sorted and ready to render.
type ListView struct {
	Cards []FoodCardView
	Stale bool
}

func (l ListView) Empty() bool { return len(l.Cards) == 0 }

// NewListView filters by service type and sorts by rating on every render.
func NewListView(items []models.FoodItem, st models.ServiceType, now time.Time) ListView {
	visible := SortByRating(FilterByServiceType(items, st))
	cards := make([]FoodCardView, len(visible))
	for i, it := range visible {
		cards[i] = NewFoodCardView(it, now)
	}
	return ListView{Cards: cards}
}
