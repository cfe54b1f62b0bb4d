package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"foodwagen/config"
	"foodwagen/routes"
	"foodwagen/services"
	"foodwagen/utils"
)

var logger = loggo.GetLogger("foodwagen")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "foodwagen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		envFile    string
		issueToken string
		tokenTTL   time.Duration
	)
	fs := gnuflag.NewFlagSet("foodwagen", gnuflag.ContinueOnError)
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	fs.StringVar(&issueToken, "issue-token", "", "print an API token for this subject and exit")
	fs.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of tokens printed by --issue-token")
	if err := fs.Parse(true, args); err != nil {
		return errors.Trace(err)
	}

	settings, err := config.NewSettings(config.Load(envFile))
	if err != nil {
		return errors.Annotate(err, "reading configuration")
	}
	if err := loggo.ConfigureLoggers(settings.LogConfig); err != nil {
		return errors.Annotate(err, "configuring loggers")
	}

	if issueToken != "" {
		token, err := utils.GenerateJWT(issueToken, settings.JWTSecret, tokenTTL)
		if err != nil {
			return errors.Annotate(err, "issuing token")
		}
		fmt.Println(token)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(settings.DBDriver, settings.DBDSN)
	if err != nil {
		return errors.Trace(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	hub := services.NewRealtimeHub()
	activity := services.NewActivityLogService(db, clock.WallClock)
	foods, err := services.NewFoodService(services.FoodServiceConfig{
		API:       services.NewFoodAPIClient(settings.FoodAPIBaseURL, nil, metrics),
		Clock:     clock.WallClock,
		StaleTime: settings.StaleTime,
		GCTime:    settings.GCTime,
		Activity:  activity,
		Hub:       hub,
		Metrics:   metrics,
	})
	if err != nil {
		return errors.Trace(err)
	}

	deps := routes.Dependencies{
		Foods:       foods,
		Hub:         hub,
		Activity:    activity,
		Gatherer:    reg,
		Clock:       clock.WallClock,
		JWTSecret:   settings.JWTSecret,
		CORSOrigins: settings.CORSOrigins,
	}
	if settings.S3Bucket != "" {
		store, err := services.NewS3ImageStoreFromEnv(ctx, settings.S3Bucket, settings.S3Region, settings.ImageBaseURL)
		if err != nil {
			return errors.Trace(err)
		}
		deps.Images = store
	} else {
		logger.Infof("S3_BUCKET not set, image uploads disabled")
	}
	if settings.JWTSecret == "" {
		logger.Warningf("JWT_SECRET not set, API mutations are not authenticated")
	}

	r, err := routes.SetupRouter(deps)
	if err != nil {
		return errors.Trace(err)
	}
	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweepCache(ctx, foods.Cache(), settings.GCTime)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutting down: %v", err)
		}
	}()

	logger.Infof("serving FoodWagen on %s (Food API %s)", srv.Addr, settings.FoodAPIBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Annotate(err, "serving")
	}
	foods.Cache().Wait()
	return nil
}

// sweepCache evicts unread lists even when nobody reads the cache.
func sweepCache(ctx context.Context, cache *services.FoodCache, gcTime time.Duration) {
	if gcTime <= 0 {
		return
	}
	ticker := time.NewTicker(gcTime)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cache.Sweep()
		}
	}
}
