package services_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"foodwagen/models"
	"foodwagen/services"
)

// fakeFoodAPI records requests and answers with the configured status and body.
type fakeFoodAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	status   int
	body     string
}

func (f *fakeFoodAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(data))
	status, body := f.status, f.body
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeFoodAPI) last(c *gc.C) (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.Assert(f.requests, gc.Not(gc.HasLen), 0)
	n := len(f.requests) - 1
	return f.requests[n], f.bodies[n]
}

type apiClientSuite struct {
	fake   *fakeFoodAPI
	server *httptest.Server
	client *services.FoodAPIClient
}

var _ = gc.Suite(&apiClientSuite{})

func (s *apiClientSuite) SetUpTest(c *gc.C) {
	s.fake = &fakeFoodAPI{}
	s.server = httptest.NewServer(s.fake)
	s.client = services.NewFoodAPIClient(s.server.URL+"/", nil, nil)
}

func (s *apiClientSuite) TearDownTest(c *gc.C) {
	s.server.Close()
}

func (s *apiClientSuite) TestListURL(c *gc.C) {
	u, err := s.client.ListURL("pad thai")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(u, gc.Equals, s.server.URL+"/Food?name=pad+thai")

	u, err = s.client.ListURL("   ")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(u, gc.Equals, s.server.URL+"/Food")
}

func (s *apiClientSuite) TestList(c *gc.C) {
	s.fake.body = `[{"id":"1","name":"Burger","rating":4},{"id":"2","name":"Fries","serviceType":"Pickup"}]`
	items, err := s.client.List(context.Background(), " burger ", "")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(items, gc.HasLen, 2)
	c.Assert(items[0].ServiceType, gc.Equals, models.ServiceDelivery)

	req, _ := s.fake.last(c)
	c.Assert(req.Method, gc.Equals, http.MethodGet)
	c.Assert(req.URL.Path, gc.Equals, "/Food")
	c.Assert(req.URL.Query().Get("name"), gc.Equals, "burger")
	c.Assert(req.Header.Get("Cache-Control"), gc.Equals, "no-store")
}

func (s *apiClientSuite) TestListFiltersServiceType(c *gc.C) {
	s.fake.body = `[{"id":"1"},{"id":"2","serviceType":"Pickup"},{"id":"3","type":"pick-up"}]`
	items, err := s.client.List(context.Background(), "", models.ServicePickup)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(items, gc.HasLen, 2)
	c.Assert(items[0].ID, gc.Equals, "2")
	c.Assert(items[1].ID, gc.Equals, "3")

	req, _ := s.fake.last(c)
	c.Assert(req.URL.RawQuery, gc.Equals, "")
}

func (s *apiClientSuite) TestListToleratesMalformedRecords(c *gc.C) {
	s.fake.body = `[{"id":"1","rating":4.5},{"id":"2","rating":"4"},{"id":"3","serviceType":1,"rating":"great"},null,"oops",{"id":4,"price":"12.5","restaurant":"nope"}]`
	items, err := s.client.List(context.Background(), "", "")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(items, gc.HasLen, 4)
	c.Assert(*items[0].Rating, gc.Equals, 4.5)
	c.Assert(*items[1].Rating, gc.Equals, 4.0)
	c.Assert(items[2].Rating, gc.IsNil)
	c.Assert(items[2].ServiceType, gc.Equals, models.ServiceDelivery)
	c.Assert(items[3].ID, gc.Equals, "4")
	c.Assert(*items[3].Price, gc.Equals, 12.5)
	c.Assert(items[3].Restaurant, gc.IsNil)
}

func (s *apiClientSuite) TestListNullBody(c *gc.C) {
	s.fake.body = `null`
	items, err := s.client.List(context.Background(), "", "")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(items, gc.NotNil)
	c.Assert(items, gc.HasLen, 0)
}

func (s *apiClientSuite) TestErrorBodyBecomesMessage(c *gc.C) {
	s.fake.status = http.StatusServiceUnavailable
	s.fake.body = "  Service unavailable\n"
	_, err := s.client.List(context.Background(), "", "")
	var apiErr *services.APIError
	c.Assert(errors.As(err, &apiErr), jc.IsTrue)
	c.Assert(apiErr.StatusCode, gc.Equals, http.StatusServiceUnavailable)
	c.Assert(err, gc.ErrorMatches, "Service unavailable")
}

func (s *apiClientSuite) TestEmptyErrorBodyUsesDefault(c *gc.C) {
	s.fake.status = http.StatusInternalServerError
	_, err := s.client.Create(context.Background(), models.FoodItemPayload{Name: "x"})
	c.Assert(err, gc.ErrorMatches, services.DefaultAPIErrorMessage)
}

func (s *apiClientSuite) TestNotFound(c *gc.C) {
	s.fake.status = http.StatusNotFound
	s.fake.body = `"Not found"`
	err := s.client.Delete(context.Background(), "42")
	c.Assert(err, jc.ErrorIs, errors.NotFound)
}

func (s *apiClientSuite) TestNetworkError(c *gc.C) {
	s.server.Close()
	_, err := s.client.List(context.Background(), "", "")
	c.Assert(err, gc.NotNil)
	var apiErr *services.APIError
	c.Assert(errors.As(err, &apiErr), jc.IsFalse)
}

func (s *apiClientSuite) TestCreate(c *gc.C) {
	rating := 4.0
	s.fake.status = http.StatusCreated
	s.fake.body = `{"id":"10","name":"Tacos","rating":4}`
	created, err := s.client.Create(context.Background(), models.FoodItemPayload{Name: "Tacos", Rating: &rating})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(created.ID, gc.Equals, "10")

	req, body := s.fake.last(c)
	c.Assert(req.Method, gc.Equals, http.MethodPost)
	c.Assert(req.URL.Path, gc.Equals, "/Food")
	c.Assert(req.Header.Get("Content-Type"), gc.Equals, "application/json")
	var sent map[string]interface{}
	c.Assert(json.Unmarshal([]byte(body), &sent), jc.ErrorIsNil)
	c.Assert(sent["name"], gc.Equals, "Tacos")
	c.Assert(sent["rating"], gc.Equals, 4.0)
}

func (s *apiClientSuite) TestUpdateAndDeletePaths(c *gc.C) {
	s.fake.body = `{"id":"a/b","name":"Soup"}`
	_, err := s.client.Update(context.Background(), "a/b", models.FoodItemPayload{Name: "Soup"})
	c.Assert(err, jc.ErrorIsNil)
	req, _ := s.fake.last(c)
	c.Assert(req.Method, gc.Equals, http.MethodPut)
	c.Assert(req.URL.EscapedPath(), gc.Equals, "/Food/a%2Fb")

	s.fake.body = ""
	c.Assert(s.client.Delete(context.Background(), "5"), jc.ErrorIsNil)
	req, _ = s.fake.last(c)
	c.Assert(req.Method, gc.Equals, http.MethodDelete)
	c.Assert(req.URL.Path, gc.Equals, "/Food/5")
}

func (s *apiClientSuite) TestFilterByServiceTypeUnknown(c *gc.C) {
	items := []models.FoodItem{{ID: "1", ServiceType: models.ServiceDelivery}}
	c.Assert(services.FilterByServiceType(items, "Drone"), gc.HasLen, 0)
	c.Assert(services.FilterByServiceType(items, "delivery"), gc.HasLen, 1)
}
