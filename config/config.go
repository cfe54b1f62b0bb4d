package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("foodwagen.config")

const (
	// DefaultFoodAPIBaseURL is the public mock service used when nothing is configured.
	DefaultFoodAPIBaseURL = "https://6852821e0594059b23cdd834.mockapi.io"

	FoodAPIBaseURLKey = "FOOD_API_BASE_URL"
	// legacyFoodAPIBaseURLKey is the name the browser build used.
	legacyFoodAPIBaseURLKey = "NEXT_PUBLIC_FOOD_API_BASE_URL"

	FoodPath = "/Food"
)

// Env is a snapshot of the process environment.
type Env map[string]string

// Load reads an optional .env file into the process environment and
// returns the resulting environment.
func Load(files ...string) Env {
	if err := godotenv.Load(files...); err != nil {
		logger.Debugf("no .env file loaded: %v", err)
	}
	return FromEnviron(os.Environ())
}

// FromEnviron builds an Env from KEY=VALUE pairs.
func FromEnviron(pairs []string) Env {
	env := make(Env, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// ResolveFoodAPIBaseURL picks the Food API base URL out of env. A missing or
// blank value falls back to DefaultFoodAPIBaseURL; a malformed one is a
// configuration error.
func ResolveFoodAPIBaseURL(env Env) (string, error) {
	raw := strings.TrimSpace(env[FoodAPIBaseURLKey])
	if raw == "" {
		raw = strings.TrimSpace(env[legacyFoodAPIBaseURLKey])
	}
	if raw == "" {
		return DefaultFoodAPIBaseURL, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.NewNotValid(err, "food API base URL "+raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.NotValidf("food API base URL %q scheme", raw)
	}
	if u.Host == "" {
		return "", errors.NotValidf("food API base URL %q without host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// ResolveFoodAPIURL joins base and path, defaulting path to the Food collection.
func ResolveFoodAPIURL(base, path string) string {
	if path == "" {
		path = FoodPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}

// Settings is everything the server needs to start.
type Settings struct {
	Port           string
	FoodAPIBaseURL string
	StaleTime      time.Duration
	GCTime         time.Duration
	JWTSecret      string
	DBDriver       string
	DBDSN          string
	S3Bucket       string
	S3Region       string
	ImageBaseURL   string
	CORSOrigins    []string
	LogConfig      string
}

// NewSettings validates env and fills in defaults.
func NewSettings(env Env) (Settings, error) {
	base, err := ResolveFoodAPIBaseURL(env)
	if err != nil {
		return Settings{}, errors.Trace(err)
	}
	stale, err := durationOr(env, "FOOD_CACHE_STALE_TIME", 60*time.Second)
	if err != nil {
		return Settings{}, errors.Trace(err)
	}
	gcTime, err := durationOr(env, "FOOD_CACHE_GC_TIME", 5*time.Minute)
	if err != nil {
		return Settings{}, errors.Trace(err)
	}

	s := Settings{
		Port:           valueOr(env, "PORT", "8080"),
		FoodAPIBaseURL: base,
		StaleTime:      stale,
		GCTime:         gcTime,
		JWTSecret:      env["JWT_SECRET"],
		DBDriver:       strings.ToLower(valueOr(env, "DB_DRIVER", "sqlite")),
		DBDSN:          valueOr(env, "DB_DSN", "foodwagen.db"),
		S3Bucket:       env["S3_BUCKET"],
		S3Region:       valueOr(env, "S3_REGION", env["AWS_REGION"]),
		ImageBaseURL:   env["IMAGE_BASE_URL"],
		LogConfig:      valueOr(env, "LOG_CONFIG", "<root>=INFO"),
	}
	for _, o := range strings.Split(valueOr(env, "CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			s.CORSOrigins = append(s.CORSOrigins, o)
		}
	}
	if s.DBDriver != "sqlite" && s.DBDriver != "postgres" {
		return Settings{}, errors.NotValidf("DB_DRIVER %q", s.DBDriver)
	}
	return s, nil
}

func valueOr(env Env, key, fallback string) string {
	if v := strings.TrimSpace(env[key]); v != "" {
		return v
	}
	return fallback
}

func durationOr(env Env, key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(env[key])
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.NewNotValid(err, key)
	}
	if d < 0 {
		return 0, errors.NotValidf("negative %s", key)
	}
	return d, nil
}
