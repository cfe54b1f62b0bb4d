package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodwagen/controllers"
	"foodwagen/middlewares"
	"foodwagen/services"
	"foodwagen/views"
)

// Dependencies are the services the router exposes. Activity, Images and
// Gatherer are optional; their routes are left out when nil.
type Dependencies struct {
	Foods       *services.FoodService
	Hub         *services.RealtimeHub
	Activity    *services.ActivityLogService
	Images      services.ImageStore
	Gatherer    prometheus.Gatherer
	Clock       clock.Clock
	JWTSecret   string
	CORSOrigins []string
}

func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Foods == nil || deps.Hub == nil {
		return nil, errors.NotValidf("router without food service or hub")
	}
	tmpl, err := views.Templates()
	if err != nil {
		return nil, errors.Annotate(err, "parsing dashboard templates")
	}

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Dashboard
	foods := controllers.NewFoodController(deps.Foods, deps.Clock)
	foods.AuthSecret = deps.JWTSecret
	r.GET("/", foods.Dashboard)
	dash := r.Group("")
	dash.Use(middlewares.DashboardAuthMiddleware(deps.JWTSecret))
	{
		dash.POST("/foods", foods.CreateFromForm)
		dash.POST("/foods/:id", foods.UpdateFromForm)
		dash.POST("/foods/:id/delete", foods.DeleteFromForm)
	}
	if deps.JWTSecret != "" {
		session := controllers.NewSessionController(deps.JWTSecret, deps.Clock)
		r.POST("/session", session.SignIn)
		r.POST("/session/delete", session.SignOut)
	}

	// JSON API
	api := r.Group("/api")
	api.Use(cors.New(corsConfig(deps.CORSOrigins)))
	{
		foodAPI := controllers.NewFoodAPIController(deps.Foods)
		rt := controllers.NewRealtimeController(deps.Hub)
		api.GET("/foods", foodAPI.List)
		api.GET("/ws", rt.EventsWS)

		guarded := api.Group("")
		guarded.Use(middlewares.AuthMiddleware(deps.JWTSecret))
		guarded.POST("/foods", foodAPI.Create)
		guarded.PUT("/foods/:id", foodAPI.Update)
		guarded.DELETE("/foods/:id", foodAPI.Delete)

		if deps.Activity != nil {
			activity := controllers.NewActivityLogController(deps.Activity)
			api.GET("/activity", activity.Recent)
			api.GET("/foods/:id/activity", activity.ForFood)
		}
		if deps.Images != nil {
			uploads := controllers.NewImageUploadController(deps.Images)
			guarded.POST("/uploads", uploads.Upload)
		}
	}

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-Cache"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
