package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	HostUser       string
	HostPass       string
	SingleSession  bool
	ExportEnabled  bool
	ExportFile     string
	MaxUploadBytes int64
	PublicURL      string
	CORSOrigins    []string
	LogLevel       string
}

// FromEnv reads configuration from the environment. A .env file in the
// working directory is loaded first; variables already set take precedence.
func FromEnv() Config {
	_ = godotenv.Load()

	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.HostUser = os.Getenv("HOST_USER")
	c.HostPass = os.Getenv("HOST_PASS")
	c.SingleSession = getenv("SINGLE_SESSION", "true") == "true"
	c.ExportEnabled = getenv("EXPORT_ENABLED", "false") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./firstframe-games.txt")
	c.MaxUploadBytes = getenvInt64("MAX_UPLOAD_BYTES", 1<<20)
	c.PublicURL = strings.TrimRight(os.Getenv("PUBLIC_URL"), "/")
	c.CORSOrigins = splitList(getenv("CORS_ORIGINS", "*"))
	c.LogLevel = getenv("LOG_LEVEL", "info")
	return c
}

// HostAuthEnabled reports whether session creation sits behind basic auth.
func (c Config) HostAuthEnabled() bool {
	return c.HostUser != "" && c.HostPass != ""
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt64(k string, def int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(k), 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
