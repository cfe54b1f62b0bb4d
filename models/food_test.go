package models_test

import (
	"encoding/json"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"foodwagen/models"
)

type foodSuite struct{}

var _ = gc.Suite(&foodSuite{})

func (s *foodSuite) TestParseServiceType(c *gc.C) {
	for raw, want := range map[string]models.ServiceType{
		"Delivery":   models.ServiceDelivery,
		" delivery ": models.ServiceDelivery,
		"PICKUP":     models.ServicePickup,
		"pick-up":    models.ServicePickup,
		"Pick Up":    models.ServicePickup,
	} {
		got, ok := models.ParseServiceType(raw)
		c.Check(ok, jc.IsTrue, gc.Commentf("%q", raw))
		c.Check(got, gc.Equals, want, gc.Commentf("%q", raw))
	}
	_, ok := models.ParseServiceType("drone")
	c.Assert(ok, jc.IsFalse)
}

func (s *foodSuite) TestUnmarshalDefaultsToDelivery(c *gc.C) {
	var item models.FoodItem
	err := json.Unmarshal([]byte(`{"id":"1","name":"Burger","rating":4.5,"image":"https://x/b.png"}`), &item)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(item.ServiceType, gc.Equals, models.ServiceDelivery)
	c.Assert(*item.Rating, gc.Equals, 4.5)
	c.Assert(item.Price, gc.IsNil)
	c.Assert(item.Restaurant, gc.IsNil)
}

func (s *foodSuite) TestUnmarshalServiceTypeAliases(c *gc.C) {
	for _, doc := range []string{
		`{"id":"1","serviceType":"Pickup"}`,
		`{"id":"1","service_type":"pick-up"}`,
		`{"id":"1","deliveryType":"pickup"}`,
		`{"id":"1","type":"Pick Up"}`,
	} {
		var item models.FoodItem
		c.Assert(json.Unmarshal([]byte(doc), &item), jc.ErrorIsNil)
		c.Check(item.ServiceType, gc.Equals, models.ServicePickup, gc.Commentf(doc))
	}
}

func (s *foodSuite) TestUnmarshalUnknownServiceType(c *gc.C) {
	var item models.FoodItem
	c.Assert(json.Unmarshal([]byte(`{"id":"1","serviceType":"Drone"}`), &item), jc.ErrorIsNil)
	c.Assert(item.ServiceType, gc.Equals, models.ServiceType(""))
}

func (s *foodSuite) TestUnmarshalNullRating(c *gc.C) {
	var item models.FoodItem
	err := json.Unmarshal([]byte(`{"id":"7","name":"Soup","rating":null,"restaurant":{"name":"R","logo":"l","status":"Closed"}}`), &item)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(item.Rating, gc.IsNil)
	c.Assert(item.Restaurant, jc.DeepEquals, &models.Restaurant{Name: "R", Logo: "l", Status: models.RestaurantClosed})
}

func (s *foodSuite) TestUnmarshalWrongFieldTypes(c *gc.C) {
	var item models.FoodItem
	err := json.Unmarshal([]byte(`{"id":12,"name":["x"],"rating":"4","price":true,"serviceType":1,"type":"pickup","restaurant":{"name":"R","status":5}}`), &item)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(item.ID, gc.Equals, "12")
	c.Assert(item.Name, gc.Equals, "")
	c.Assert(*item.Rating, gc.Equals, 4.0)
	c.Assert(item.Price, gc.IsNil)
	c.Assert(item.ServiceType, gc.Equals, models.ServicePickup)
	c.Assert(item.Restaurant, jc.DeepEquals, &models.Restaurant{Name: "R"})
}

func (s *foodSuite) TestUnmarshalUnparsableRatingIsNil(c *gc.C) {
	for _, doc := range []string{
		`{"id":"1","rating":"great"}`,
		`{"id":"1","rating":{}}`,
		`{"id":"1","rating":"NaN"}`,
		`{"id":"1","rating":null}`,
	} {
		var item models.FoodItem
		c.Assert(json.Unmarshal([]byte(doc), &item), jc.ErrorIsNil)
		c.Check(item.Rating, gc.IsNil, gc.Commentf(doc))
	}
}

func (s *foodSuite) TestUnmarshalNotAnObject(c *gc.C) {
	var item models.FoodItem
	c.Assert(json.Unmarshal([]byte(`"oops"`), &item), gc.NotNil)
}

func (s *foodSuite) TestPayloadFromItem(c *gc.C) {
	rating := 3.0
	item := models.FoodItem{
		ID:          "9",
		Name:        "Taco",
		Rating:      &rating,
		Image:       "https://x/t.png",
		ServiceType: models.ServicePickup,
		CreatedAt:   "2025-06-18T00:00:00.000Z",
	}
	p := models.PayloadFromItem(item)
	c.Assert(p.Name, gc.Equals, "Taco")
	c.Assert(p.Rating, gc.Equals, &rating)
	c.Assert(p.ServiceType, gc.Equals, models.ServicePickup)
	c.Assert(p.CreatedAt, gc.Equals, item.CreatedAt)

	out, err := json.Marshal(p)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(string(out), gc.Not(jc.Contains), `"id"`)
}
