package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/firstframe/internal/config"
	"github.com/kiliankoe/firstframe/internal/game"
	"github.com/kiliankoe/firstframe/internal/httpapi"
	"github.com/kiliankoe/firstframe/internal/ws"
	staticserver "github.com/kiliankoe/firstframe/static"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var version = "dev" // Set at build time via -ldflags

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`First Frame - moderator dashboard for the video still quiz

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables (also read from ./.env):
  PORT                Port to listen on (default: 8080)
  HOST_USER           Username for basic auth on session creation and /host
  HOST_PASS           Password for basic auth on session creation and /host
  SINGLE_SESSION      Keep only the newest session (default: true)
  EXPORT_ENABLED      Append finished games to a log file (default: false)
  EXPORT_FILE         Path of the game log (default: ./firstframe-games.txt)
  MAX_UPLOAD_BYTES    Largest accepted round file (default: 1048576)
  PUBLIC_URL          Base URL encoded in viewer QR codes (default: request host)
  CORS_ORIGINS        Comma separated allowed origins (default: *)
  LOG_LEVEL           debug, info, warn or error (default: info)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000

Visit http://localhost:8080 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("First Frame %s\n", version)
		return
	}

	cfg := config.FromEnv()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(cw)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpapi.RequestLogger())
	r.Use(httpapi.CORS(cfg.CORSOrigins))

	rm := game.NewRoomManager(game.SingleSession(cfg.SingleSession))
	api := httpapi.New(rm, cfg)
	sock := ws.New(rm, cfg)
	api.OnChange(sock.EmitState)
	api.Register(r)
	io := sock.Mount(r)
	defer io.Close()

	// Moderator page behind basic auth
	if cfg.HostAuthEnabled() {
		auth := gin.BasicAuth(gin.Accounts{cfg.HostUser: cfg.HostPass})
		r.GET("/host", auth, gin.WrapH(staticserver.Handler()))
		r.GET("/host/*any", auth, gin.WrapH(staticserver.Handler()))
	}

	r.NoRoute(gin.WrapH(staticserver.Handler()))

	log.Info().Str("port", cfg.Port).Bool("singleSession", cfg.SingleSession).Str("version", version).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
