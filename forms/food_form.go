// Package forms holds the food form: raw input as typed by the user,
// declarative validation, and the submit/reset cycle.
package forms

import (
	"context"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"foodwagen/models"
)

// Form field names, shared by the HTML form, JSON bodies and error maps.
const (
	FieldName             = "food_name"
	FieldRating           = "food_rating"
	FieldImage            = "food_image"
	FieldRestaurantName   = "restaurant_name"
	FieldRestaurantLogo   = "restaurant_logo"
	FieldRestaurantStatus = "restaurant_status"
)

var fieldMessages = map[string]string{
	FieldName:             "Food Name is required",
	FieldRating:           "Food Rating must be a number",
	FieldImage:            "Food Image URL is required",
	FieldRestaurantName:   "Restaurant Name is required",
	FieldRestaurantLogo:   "Restaurant Logo URL is required",
	FieldRestaurantStatus: "Restaurant Status must be 'Open Now' or 'Closed'",
}

// FoodFormInput is the form exactly as submitted.
type FoodFormInput struct {
	Name             string `form:"food_name" json:"food_name"`
	Rating           string `form:"food_rating" json:"food_rating"`
	Image            string `form:"food_image" json:"food_image"`
	RestaurantName   string `form:"restaurant_name" json:"restaurant_name"`
	RestaurantLogo   string `form:"restaurant_logo" json:"restaurant_logo"`
	RestaurantStatus string `form:"restaurant_status" json:"restaurant_status"`
}

// DefaultInput is what a blank form shows.
func DefaultInput() FoodFormInput {
	return FoodFormInput{
		Rating:           "1",
		RestaurantStatus: string(models.RestaurantOpen),
	}
}

// FoodFormValues are validated and coerced form values.
type FoodFormValues struct {
	Name             string                  `json:"food_name" validate:"required"`
	Rating           float64                 `json:"food_rating" validate:"gte=1,lte=5"`
	Image            string                  `json:"food_image" validate:"required,url"`
	RestaurantName   string                  `json:"restaurant_name" validate:"required"`
	RestaurantLogo   string                  `json:"restaurant_logo" validate:"required,url"`
	RestaurantStatus models.RestaurantStatus `json:"restaurant_status" validate:"oneof='Open Now' Closed"`
}

// Payload maps the form onto a food item payload. Fields the form does not
// edit (price, service type, timestamps) are carried over from existing
// because updates replace the whole record.
func (v FoodFormValues) Payload(existing *models.FoodItem) models.FoodItemPayload {
	rating := v.Rating
	p := models.FoodItemPayload{
		Name:   v.Name,
		Rating: &rating,
		Image:  v.Image,
		Restaurant: &models.Restaurant{
			Name:   v.RestaurantName,
			Logo:   v.RestaurantLogo,
			Status: v.RestaurantStatus,
		},
	}
	if existing != nil {
		p.Price = existing.Price
		p.ServiceType = existing.ServiceType
		p.CreatedAt = existing.CreatedAt
		if existing.Restaurant != nil {
			p.Restaurant.ID = existing.Restaurant.ID
		}
	}
	return p
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// ValidationError blocks a submission.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = e.Fields[name]
	}
	return strings.Join(msgs, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Validate coerces and checks in. Surrounding whitespace is ignored.
func Validate(in FoodFormInput) (FoodFormValues, error) {
	values := FoodFormValues{
		Name:             strings.TrimSpace(in.Name),
		Rating:           coerceRating(in.Rating),
		Image:            strings.TrimSpace(in.Image),
		RestaurantName:   strings.TrimSpace(in.RestaurantName),
		RestaurantLogo:   strings.TrimSpace(in.RestaurantLogo),
		RestaurantStatus: models.RestaurantStatus(strings.TrimSpace(in.RestaurantStatus)),
	}
	err := validate.Struct(values)
	if err == nil {
		return values, nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FoodFormValues{}, err
	}
	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessages[fe.Field()]
	}
	return FoodFormValues{}, &ValidationError{Fields: fields}
}

// coerceRating turns anything unparsable into 0, which fails the range check.
func coerceRating(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}

// FoodForm is one open form: its current input and the errors of the last
// submit attempt.
type FoodForm struct {
	Input  FoodFormInput
	Errors FieldErrors
}

func NewFoodForm() *FoodForm {
	return &FoodForm{Input: DefaultInput()}
}

// FormFromItem pre-fills an edit form.
func FormFromItem(item *models.FoodItem) *FoodForm {
	if item == nil {
		return NewFoodForm()
	}
	in := DefaultInput()
	in.Name = item.Name
	if item.Rating != nil {
		in.Rating = strconv.FormatFloat(*item.Rating, 'f', -1, 64)
	}
	in.Image = item.Image
	if r := item.Restaurant; r != nil {
		in.RestaurantName = r.Name
		in.RestaurantLogo = r.Logo
		if r.Status != "" {
			in.RestaurantStatus = string(r.Status)
		}
	}
	return &FoodForm{Input: in}
}

// Submit validates the form and hands the values to fn. Invalid input sets
// Errors and fn is not called. The form resets once fn succeeds; when fn
// fails the input is kept so the user can retry.
func (f *FoodForm) Submit(ctx context.Context, fn func(context.Context, FoodFormValues) error) error {
	values, err := Validate(f.Input)
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			f.Errors = verr.Fields
		}
		return err
	}
	f.Errors = nil
	if err := fn(ctx, values); err != nil {
		return err
	}
	f.Reset()
	return nil
}

func (f *FoodForm) Reset() {
	f.Input = DefaultInput()
	f.Errors = nil
}

// Error returns the message for field, if any.
func (f *FoodForm) Error(field string) string {
	return f.Errors[field]
}

// InputFromPayload lets JSON clients go through the same validation as the
// HTML form.
func InputFromPayload(p models.FoodItemPayload) FoodFormInput {
	in := FoodFormInput{Name: p.Name, Image: p.Image}
	if p.Rating != nil {
		in.Rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	if r := p.Restaurant; r != nil {
		in.RestaurantName = r.Name
		in.RestaurantLogo = r.Logo
		in.RestaurantStatus = string(r.Status)
	}
	return in
}
