package views

import (
	"embed"
	"html/template"
	"net/url"

	"foodwagen/forms"
	"foodwagen/models"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// DashboardTemplate is the name gin renders the page under.
const DashboardTemplate = "dashboard.gohtml"

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.gohtml")
}

// FormView is one modal form.
type FormView struct {
	Title       string
	Description string
	Action      string
	SubmitLabel string
	TestID      string
	Form        *forms.FoodForm
	Error       string
	CancelURL   string
	Statuses    []models.RestaurantStatus
}

// DeleteView is the delete confirmation modal.
type DeleteView struct {
	Food      FoodCardView
	Action    string
	Error     string
	CancelURL string
}

// DashboardView is everything the dashboard page renders. Which modal is
// open lives in the URL, so any link can open one.
type DashboardView struct {
	Search       string
	ServiceType  models.ServiceType
	ServiceTypes []models.ServiceType
	Statuses     []models.RestaurantStatus
	List         ListView
	LoadError    string
	Add          *FormView
	Edit         *FormView
	Delete       *DeleteView
	HomeURL      string
	AddURL       string

	// AuthRequired is set when changes need a signed-in session.
	AuthRequired bool
	SignedIn     bool
}

// DashboardURL builds the dashboard link keeping the current search and
// service type, plus any extra UI state (modal=add, edit=<id>, delete=<id>).
func DashboardURL(search string, st models.ServiceType, extra url.Values) string {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	if st != "" {
		q.Set("service", string(st))
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// NewDashboardView returns a page with no modal open.
func NewDashboardView(search string, st models.ServiceType) *DashboardView {
	return &DashboardView{
		Search:       search,
		ServiceType:  st,
		ServiceTypes: models.ServiceTypes,
		Statuses:     models.RestaurantStatuses,
		HomeURL:      DashboardURL(search, st, nil),
		AddURL:       DashboardURL(search, st, url.Values{"modal": {"add"}}),
	}
}

// ServiceURL is the link switching the service type filter.
func (d *DashboardView) ServiceURL(st models.ServiceType) string {
	return DashboardURL(d.Search, st, nil)
}

func (d *DashboardView) EditURL(id string) string {
	return DashboardURL(d.Search, d.ServiceType, url.Values{"edit": {id}})
}

func (d *DashboardView) DeleteURL(id string) string {
	return DashboardURL(d.Search, d.ServiceType, url.Values{"delete": {id}})
}

// StateQuery is appended to form actions so a post lands back on the same list.
func (d *DashboardView) StateQuery() string {
	q := url.Values{}
	if d.Search != "" {
		q.Set("q", d.Search)
	}
	if d.ServiceType != "" {
		q.Set("service", string(d.ServiceType))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (d *DashboardView) OpenAdd(form *forms.FoodForm, errMsg string) {
	d.Add = &FormView{
		Title:       "Add Food Item",
		Description: "Provide details for the new delicious food item.",
		Action:      "/foods" + d.StateQuery(),
		SubmitLabel: "Add Food",
		TestID:      "food-form",
		Form:        form,
		Error:       errMsg,
		CancelURL:   d.HomeURL,
		Statuses:    d.Statuses,
	}
}

func (d *DashboardView) OpenEdit(id, name string, form *forms.FoodForm, errMsg string) {
	if name == "" {
		name = "Food"
	}
	d.Edit = &FormView{
		Title:       "Edit " + name,
		Description: "Update food details and restaurant information.",
		Action:      "/foods/" + url.PathEscape(id) + d.StateQuery(),
		SubmitLabel: "Update Food",
		TestID:      "food-edit-form",
		Form:        form,
		Error:       errMsg,
		CancelURL:   d.HomeURL,
		Statuses:    d.Statuses,
	}
}

func (d *DashboardView) OpenDelete(card FoodCardView, errMsg string) {
	d.Delete = &DeleteView{
		Food:      card,
		Action:    "/foods/" + url.PathEscape(card.ID) + "/delete" + d.StateQuery(),
		Error:     errMsg,
		CancelURL: d.HomeURL,
	}
}
