package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"foodwagen/config"
	"foodwagen/models"
)

var logger = loggo.GetLogger("foodwagen.services")

// DefaultAPIErrorMessage is used when the Food API fails with an empty body.
const DefaultAPIErrorMessage = "An unexpected error occurred while communicating with FoodWagen API."

const jsonMIME = "application/json"

// Transport performs a single HTTP round trip. *http.Client satisfies it.
type Transport interface {
	Do(*http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer from the Food API. Message is the response
// body when there was one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, errors.NotFound) match a 404.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return errors.NotFound
	}
	return nil
}

// FoodAPIClient talks to the remote Food collection. Every call is a single
// attempt: no retries and no timeout beyond the caller's context.
type FoodAPIClient struct {
	baseURL   string
	transport Transport
	metrics   *Metrics
}

// NewFoodAPIClient returns a client for baseURL. A nil transport uses an
// http.Client without timeout.
func NewFoodAPIClient(baseURL string, transport Transport, metrics *Metrics) *FoodAPIClient {
	if transport == nil {
		transport = &http.Client{}
	}
	return &FoodAPIClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		metrics:   metrics,
	}
}

type listParams struct {
	Name string `url:"name,omitempty"`
}

// ListURL is the request URL for a list call. Blank terms add no filter.
func (c *FoodAPIClient) ListURL(search string) (string, error) {
	v, err := query.Values(listParams{Name: strings.TrimSpace(search)})
	if err != nil {
		return "", errors.Trace(err)
	}
	u := config.ResolveFoodAPIURL(c.baseURL, config.FoodPath)
	if q := v.Encode(); q != "" {
		u += "?" + q
	}
	return u, nil
}

func (c *FoodAPIClient) itemURL(id string) string {
	return config.ResolveFoodAPIURL(c.baseURL, config.FoodPath+"/"+url.PathEscape(id))
}

// List fetches the food items whose name matches search. When serviceType is
// set the result is narrowed locally, since the API cannot filter on it.
func (c *FoodAPIClient) List(ctx context.Context, search string, serviceType models.ServiceType) ([]models.FoodItem, error) {
	u, err := c.ListURL(search)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Annotate(err, "building list request")
	}
	req.Header.Set("Accept", jsonMIME)
	req.Header.Set("Cache-Control", "no-store")

	var records []json.RawMessage
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	items := make([]models.FoodItem, 0, len(records))
	for i, rec := range records {
		if string(rec) == "null" {
			continue
		}
		var item models.FoodItem
		if err := json.Unmarshal(rec, &item); err != nil {
			logger.Warningf("skipping food record %d: %v", i, err)
			continue
		}
		items = append(items, item)
	}
	if serviceType != "" {
		items = FilterByServiceType(items, serviceType)
	}
	return items, nil
}

// Create posts a new food item and returns what the API stored.
func (c *FoodAPIClient) Create(ctx context.Context, payload models.FoodItemPayload) (*models.FoodItem, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, config.ResolveFoodAPIURL(c.baseURL, config.FoodPath), payload)
	if err != nil {
		return nil, err
	}
	var created models.FoodItem
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the food item id with payload.
func (c *FoodAPIClient) Update(ctx context.Context, id string, payload models.FoodItemPayload) (*models.FoodItem, error) {
	req, err := c.jsonRequest(ctx, http.MethodPut, c.itemURL(id), payload)
	if err != nil {
		return nil, err
	}
	var updated models.FoodItem
	if err := c.do(req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the food item id.
func (c *FoodAPIClient) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		return errors.Annotate(err, "building delete request")
	}
	return c.do(req, nil)
}

func (c *FoodAPIClient) jsonRequest(ctx context.Context, method, u string, body interface{}) (*http.Request, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, errors.Annotate(err, "encoding food payload")
	}
	req, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return nil, errors.Annotatef(err, "building %s request", strings.ToLower(method))
	}
	req.Header.Set("Accept", jsonMIME)
	req.Header.Set("Content-Type", jsonMIME)
	return req, nil
}

// do sends req and decodes a 2xx JSON body into result, if result is not nil.
func (c *FoodAPIClient) do(req *http.Request, result interface{}) error {
	start := time.Now()
	resp, err := c.transport.Do(req)
	if err != nil {
		c.metrics.observeUpstream(req.Method, 0, time.Since(start))
		logger.Warningf("%s %s failed: %v", req.Method, req.URL, err)
		return errors.Trace(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	c.metrics.observeUpstream(req.Method, resp.StatusCode, time.Since(start))
	logger.Debugf("%s %s -> %d (%s)", req.Method, req.URL, resp.StatusCode, time.Since(start))
	if err != nil {
		return errors.Annotate(err, "reading food API response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = DefaultAPIErrorMessage
		}
		logger.Warningf("%s %s returned %d: %s", req.Method, req.URL, resp.StatusCode, msg)
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return errors.Annotatef(err, "decoding food API %s response", strings.ToLower(req.Method))
	}
	return nil
}

// FilterByServiceType keeps the items served as serviceType. Items without a
// service type were defaulted to Delivery when decoded.
func FilterByServiceType(items []models.FoodItem, serviceType models.ServiceType) []models.FoodItem {
	want, ok := models.ParseServiceType(string(serviceType))
	if !ok {
		return []models.FoodItem{}
	}
	out := make([]models.FoodItem, 0, len(items))
	for _, it := range items {
		if it.ServiceType == want {
			out = append(out, it)
		}
	}
	return out
}
