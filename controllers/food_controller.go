package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"foodwagen/forms"
	"foodwagen/middlewares"
	"foodwagen/models"
	"foodwagen/services"
	"foodwagen/views"
)

var logger = loggo.GetLogger("foodwagen.controllers")

const (
	foodGone     = "This food item no longer exists."
	createFailed = "Unable to add food right now. Try again later."
	updateFailed = "Unable to update food right now. Try again later."
	deleteFailed = "Unable to delete food right now. Try again later."
)

type FoodController struct {
	Foods *services.FoodService
	Clock clock.Clock

	// AuthSecret, when set, means form posts need a dashboard session.
	AuthSecret string
}

func NewFoodController(foods *services.FoodService, clk clock.Clock) *FoodController {
	if clk == nil {
		clk = clock.WallClock
	}
	return &FoodController{Foods: foods, Clock: clk}
}

// dashboardState reads the search term and service type every dashboard
// route carries in its query string. Unknown service types are ignored.
func dashboardState(c *gin.Context) (string, models.ServiceType) {
	search := strings.TrimSpace(c.Query("q"))
	st, _ := models.ParseServiceType(c.Query("service"))
	return search, st
}

// loadDashboard builds the page with the current list. A failed load is
// shown in place of the list rather than failing the page.
func (fc *FoodController) loadDashboard(c *gin.Context, search string, st models.ServiceType) (*views.DashboardView, []models.FoodItem) {
	v := views.NewDashboardView(search, st)
	v.AuthRequired = fc.AuthSecret != ""
	v.SignedIn = middlewares.SessionSubject(c, fc.AuthSecret) != ""
	res, err := fc.Foods.Foods(c.Request.Context(), search, st)
	if err != nil {
		v.LoadError = userMessage(err, views.UnknownErrorDetail)
		return v, nil
	}
	v.List = views.NewListView(res.Items, st, fc.Clock.Now())
	v.List.Stale = res.Stale
	return v, res.Items
}

// GET /?q=&service=&modal=add&edit=<id>&delete=<id>
func (fc *FoodController) Dashboard(c *gin.Context) {
	search, st := dashboardState(c)
	v, items := fc.loadDashboard(c, search, st)

	if c.Query("modal") == "add" {
		v.OpenAdd(forms.NewFoodForm(), "")
	}
	if id := c.Query("edit"); id != "" {
		if item := findItem(items, id); item != nil {
			v.OpenEdit(id, item.Name, forms.FormFromItem(item), "")
		}
	}
	if id := c.Query("delete"); id != "" {
		if item := findItem(items, id); item != nil {
			v.OpenDelete(views.NewFoodCardView(*item, fc.Clock.Now()), "")
		}
	}
	c.HTML(http.StatusOK, views.DashboardTemplate, v)
}

// POST /foods
func (fc *FoodController) CreateFromForm(c *gin.Context) {
	search, st := dashboardState(c)
	form, ok := bindForm(c)
	if !ok {
		return
	}
	err := form.Submit(c.Request.Context(), func(ctx context.Context, values forms.FoodFormValues) error {
		_, err := fc.Foods.Create(ctx, search, values.Payload(nil))
		return err
	})
	if err == nil {
		c.Redirect(http.StatusSeeOther, views.DashboardURL(search, st, nil))
		return
	}

	v, _ := fc.loadDashboard(c, search, st)
	v.OpenAdd(form, formError(err, createFailed))
	c.HTML(failureStatus(err), views.DashboardTemplate, v)
}

// POST /foods/:id
func (fc *FoodController) UpdateFromForm(c *gin.Context) {
	search, st := dashboardState(c)
	id := c.Param("id")
	form, ok := bindForm(c)
	if !ok {
		return
	}
	// Updates replace the whole record, so the fields the form does not
	// edit must come from the current item.
	existing, lookupErr := fc.Foods.FindCurrent(c.Request.Context(), search, st, id)
	err := form.Submit(c.Request.Context(), func(ctx context.Context, values forms.FoodFormValues) error {
		if lookupErr != nil {
			return lookupErr
		}
		_, err := fc.Foods.Update(ctx, search, id, values.Payload(existing))
		return err
	})
	if err == nil {
		c.Redirect(http.StatusSeeOther, views.DashboardURL(search, st, nil))
		return
	}

	name := ""
	if existing != nil {
		name = existing.Name
	}
	v, _ := fc.loadDashboard(c, search, st)
	v.OpenEdit(id, name, form, formError(err, updateFailed))
	c.HTML(failureStatus(err), views.DashboardTemplate, v)
}

// POST /foods/:id/delete
func (fc *FoodController) DeleteFromForm(c *gin.Context) {
	search, st := dashboardState(c)
	id := c.Param("id")
	existing := fc.lookup(c.Request.Context(), search, st, id)
	card := views.FoodCardView{ID: id, Name: "Food"}
	if existing != nil {
		card = views.NewFoodCardView(*existing, fc.Clock.Now())
	}

	err := fc.Foods.Delete(c.Request.Context(), search, id, card.Name)
	if err == nil {
		c.Redirect(http.StatusSeeOther, views.DashboardURL(search, st, nil))
		return
	}

	v, _ := fc.loadDashboard(c, search, st)
	v.OpenDelete(card, userMessage(err, deleteFailed))
	c.HTML(failureStatus(err), views.DashboardTemplate, v)
}

func (fc *FoodController) lookup(ctx context.Context, search string, st models.ServiceType, id string) *models.FoodItem {
	item, err := fc.Foods.Find(ctx, search, st, id)
	if err != nil {
		logger.Debugf("food %q not in cached list: %v", id, err)
		return nil
	}
	return item
}

func bindForm(c *gin.Context) (*forms.FoodForm, bool) {
	var in forms.FoodFormInput
	if err := c.ShouldBind(&in); err != nil {
		c.String(http.StatusBadRequest, "invalid form: %v", err)
		return nil, false
	}
	return &forms.FoodForm{Input: in}, true
}

func findItem(items []models.FoodItem, id string) *models.FoodItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// userMessage is what the person at the dashboard sees. Food API errors
// carry the API's own message; anything else (network failures) gets the
// generic fallback.
func userMessage(err error, fallback string) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, errors.NotFound) {
		return foodGone
	}
	logger.Warningf("food request failed: %v", err)
	return fallback
}

// formError hides validation errors from the banner; they are shown next
// to their fields instead.
func formError(err error, fallback string) string {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return ""
	}
	return userMessage(err, fallback)
}

func failureStatus(err error) int {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		return upstreamStatus(apiErr.StatusCode)
	}
	if errors.Is(err, errors.NotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// upstreamStatus passes Food API client and server errors through. Any
// other non-2xx answer is reported as a bad gateway.
func upstreamStatus(code int) int {
	if code < 400 || code > 599 {
		return http.StatusBadGateway
	}
	return code
}
