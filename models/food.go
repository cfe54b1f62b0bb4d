package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type RestaurantStatus string

const (
	RestaurantOpen   RestaurantStatus = "Open Now"
	RestaurantClosed RestaurantStatus = "Closed"
)

// RestaurantStatuses lists the accepted statuses in display order.
var RestaurantStatuses = []RestaurantStatus{RestaurantOpen, RestaurantClosed}

// ServiceType tags how a food item is served. The empty value means the
// remote record carried a service type we do not recognise.
type ServiceType string

const (
	ServiceDelivery ServiceType = "Delivery"
	ServicePickup   ServiceType = "Pickup"
)

var ServiceTypes = []ServiceType{ServiceDelivery, ServicePickup}

// ParseServiceType normalises a raw service type. ok is false for values
// that are neither delivery nor pickup.
func ParseServiceType(raw string) (ServiceType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "delivery":
		return ServiceDelivery, true
	case "pickup", "pick-up", "pick up":
		return ServicePickup, true
	}
	return "", false
}

// Embedded in a food item, never addressed on its own.
type Restaurant struct {
	ID     string           `json:"id,omitempty"`
	Name   string           `json:"name"`
	Logo   string           `json:"logo"`
	Status RestaurantStatus `json:"status"`
}

// FoodItem is a menu entry as stored by the remote Food API.
// Rating and Price are pointers because the API does not enforce them and
// may hand back nulls.
type FoodItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Rating      *float64    `json:"rating"`
	Price       *float64    `json:"price,omitempty"`
	Image       string      `json:"image"`
	Restaurant  *Restaurant `json:"restaurant,omitempty"`
	ServiceType ServiceType `json:"serviceType,omitempty"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

// legacy field names the remote records have used for the service type
var serviceTypeAliases = []string{"serviceType", "service_type", "deliveryType", "type"}

// UnmarshalJSON decodes a record field by field. The remote API does not
// enforce the data model, so a field of the wrong type is dropped rather
// than failing the record. Only a record that is not a JSON object is an
// error.
func (f *FoodItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*f = FoodItem{}
		return nil
	}
	item := FoodItem{
		ID:          looseID(raw["id"]),
		Name:        looseString(raw["name"]),
		Rating:      looseNumber(raw["rating"]),
		Price:       looseNumber(raw["price"]),
		Image:       looseString(raw["image"]),
		Restaurant:  looseRestaurant(raw["restaurant"]),
		ServiceType: ServiceDelivery,
		CreatedAt:   looseString(raw["createdAt"]),
		UpdatedAt:   looseString(raw["updatedAt"]),
	}
	for _, key := range serviceTypeAliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil || strings.TrimSpace(s) == "" {
			continue
		}
		item.ServiceType, _ = ParseServiceType(s)
		break
	}
	*f = item
	return nil
}

// looseString reads a JSON string. Anything else is "".
func looseString(v json.RawMessage) string {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

// looseID also accepts numeric ids, which some mock backends hand out.
func looseID(v json.RawMessage) string {
	if s := looseString(v); s != "" {
		return s
	}
	var n json.Number
	if len(v) == 0 || json.Unmarshal(v, &n) != nil {
		return ""
	}
	return n.String()
}

// looseNumber reads a number or a numeric string. Anything else is nil.
func looseNumber(v json.RawMessage) *float64 {
	if len(v) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil && string(v) != "null" {
		return &f
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func looseRestaurant(v json.RawMessage) *Restaurant {
	var raw map[string]json.RawMessage
	if len(v) == 0 || json.Unmarshal(v, &raw) != nil || raw == nil {
		return nil
	}
	return &Restaurant{
		ID:     looseID(raw["id"]),
		Name:   looseString(raw["name"]),
		Logo:   looseString(raw["logo"]),
		Status: RestaurantStatus(looseString(raw["status"])),
	}
}

// FoodItemPayload is the body of create and update requests.
type FoodItemPayload struct {
	Name        string      `json:"name"`
	Rating      *float64    `json:"rating"`
	Price       *float64    `json:"price,omitempty"`
	Image       string      `json:"image"`
	Restaurant  *Restaurant `json:"restaurant,omitempty"`
	ServiceType ServiceType `json:"serviceType,omitempty"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

func PayloadFromItem(item FoodItem) FoodItemPayload {
	return FoodItemPayload{
		Name:        item.Name,
		Rating:      item.Rating,
		Price:       item.Price,
		Image:       item.Image,
		Restaurant:  item.Restaurant,
		ServiceType: item.ServiceType,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
