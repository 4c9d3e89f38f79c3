package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() App {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(".env"); err == nil {
		slog.Info("loaded .env file")
	}

	cfg := App{
		Port:                       getenv("APP_PORT", "8080"),
		DatabaseURL:                must("DATABASE_URL"),
		JWTSecret:                  getenv("JWT_SECRET", "local_dev_secret"),
		Env:                        getenv("APP_ENV", "dev"),
		RetainTerminalRequests:     getenvBool("RETAIN_TERMINAL_REQUESTS", true),
		BlockRequestWhenOutOfStock: getenvBool("BLOCK_REQUEST_WHEN_OUT_OF_STOCK", false),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env, using default", "key", k, "value", v)
		return def
	}
	return b
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
