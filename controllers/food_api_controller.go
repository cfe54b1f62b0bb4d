package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"foodwagen/forms"
	"foodwagen/models"
	"foodwagen/services"
)

// FoodAPIController exposes the cached Food API as JSON for other clients.
type FoodAPIController struct {
	Foods *services.FoodService
}

func NewFoodAPIController(foods *services.FoodService) *FoodAPIController {
	return &FoodAPIController{Foods: foods}
}

// GET /api/foods?name=burger&serviceType=Pickup
func (ac *FoodAPIController) List(c *gin.Context) {
	var st models.ServiceType
	if raw := c.Query("serviceType"); raw != "" {
		parsed, ok := models.ParseServiceType(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "serviceType must be Delivery or Pickup"})
			return
		}
		st = parsed
	}
	res, err := ac.Foods.Foods(c.Request.Context(), c.Query("name"), st)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Stale {
		c.Header("X-Cache", "stale")
	} else {
		c.Header("X-Cache", "fresh")
	}
	c.JSON(http.StatusOK, res.Items)
}

// POST /api/foods?search=<list to refresh>
func (ac *FoodAPIController) Create(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}
	created, err := ac.Foods.Create(c.Request.Context(), c.Query("search"), payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /api/foods/:id?search=<list to refresh>
func (ac *FoodAPIController) Update(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}
	updated, err := ac.Foods.Update(c.Request.Context(), c.Query("search"), c.Param("id"), payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/foods/:id?search=<list to refresh>
func (ac *FoodAPIController) Delete(c *gin.Context) {
	if err := ac.Foods.Delete(c.Request.Context(), c.Query("search"), c.Param("id"), c.Query("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindPayload decodes a food item and runs it through the form schema.
func bindPayload(c *gin.Context) (models.FoodItemPayload, bool) {
	var body models.FoodItemPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return models.FoodItemPayload{}, false
	}
	values, err := forms.Validate(forms.InputFromPayload(body))
	if err != nil {
		writeError(c, err)
		return models.FoodItemPayload{}, false
	}
	return values.Payload(&models.FoodItem{
		Price:       body.Price,
		ServiceType: body.ServiceType,
		CreatedAt:   body.CreatedAt,
		Restaurant:  body.Restaurant,
	}), true
}

func writeError(c *gin.Context, err error) {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
		return
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		c.JSON(upstreamStatus(apiErr.StatusCode), gin.H{"error": apiErr.Message})
		return
	}
	if errors.Is(err, errors.NotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	logger.Errorf("food API request failed: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": strings.TrimSpace(err.Error())})
}
