package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/firstframe/internal/config"
	"github.com/kiliankoe/firstframe/internal/game"
	"github.com/kiliankoe/firstframe/internal/metrics"
	"github.com/kiliankoe/firstframe/internal/rounds"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// HostTokenHeader carries the moderator's token on mutating requests.
const HostTokenHeader = "X-Host-Token"

const roomKey = "room"

type Server struct {
	RM       *game.RoomManager
	cfg      config.Config
	onChange func(code string)
}

func New(rm *game.RoomManager, cfg config.Config) *Server {
	return &Server{RM: rm, cfg: cfg, onChange: func(string) {}}
}

// OnChange registers a hook run after every state change, used to push the
// new state to connected screens.
func (srv *Server) OnChange(fn func(code string)) { srv.onChange = fn }

func (srv *Server) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/session")
	if srv.cfg.HostAuthEnabled() {
		auth := gin.BasicAuth(gin.Accounts{srv.cfg.HostUser: srv.cfg.HostPass})
		api.POST("", auth, srv.create)
	} else {
		api.POST("", srv.create)
	}
	api.GET("/active", srv.active)
	api.GET("/:code", srv.state)
	api.GET("/:code/qr.png", srv.qr)

	host := api.Group("/:code", srv.requireHost)
	host.POST("/rounds", srv.upload)
	host.POST("/demo", srv.demo)
	host.POST("/reveal", srv.reveal)
	host.POST("/advance", srv.advance)
	host.POST("/restart", srv.restart)
}

func (srv *Server) create(c *gin.Context) {
	code, hostToken, err := srv.RM.CreateSession()
	if err != nil {
		abort(c, http.StatusInternalServerError, "create_failed", err.Error())
		return
	}
	metrics.SessionsCreated.Inc()
	log.Info().Str("code", code).Msg("session created")
	c.JSON(http.StatusOK, gin.H{"sessionCode": code, "hostToken": hostToken})
}

func (srv *Server) active(c *gin.Context) {
	if code, room := srv.RM.Active(); room != nil {
		c.JSON(http.StatusOK, gin.H{"sessionCode": code})
		return
	}
	c.Status(http.StatusNotFound)
}

func (srv *Server) state(c *gin.Context) {
	room, err := srv.RM.Get(c.Param("code"))
	if err != nil {
		abort(c, http.StatusNotFound, "session_not_found", "Session not found")
		return
	}
	role := game.RoleViewer
	if room.Authorize(c.GetHeader(HostTokenHeader)) == nil {
		role = game.RoleHost
	}
	c.JSON(http.StatusOK, room.View(role, c.GetHeader("Origin")))
}

func (srv *Server) qr(c *gin.Context) {
	code := c.Param("code")
	if _, err := srv.RM.Get(code); err != nil {
		abort(c, http.StatusNotFound, "session_not_found", "Session not found")
		return
	}
	png, err := qrcode.Encode(srv.viewerURL(c, code), qrcode.Medium, 256)
	if err != nil {
		abort(c, http.StatusInternalServerError, "qr_failed", err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (srv *Server) viewerURL(c *gin.Context, code string) string {
	base := srv.cfg.PublicURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/watch/" + code
}

func (srv *Server) requireHost(c *gin.Context) {
	room, err := srv.RM.Get(c.Param("code"))
	if err != nil {
		abort(c, http.StatusNotFound, "session_not_found", "Session not found")
		return
	}
	if err := room.Authorize(c.GetHeader(HostTokenHeader)); err != nil {
		abort(c, http.StatusForbidden, "unauthorized", "Invalid host token")
		return
	}
	c.Set(roomKey, room)
	c.Next()
}

func (srv *Server) upload(c *gin.Context) {
	room := c.MustGet(roomKey).(*game.Room)

	raw, status, err := srv.readRoundFile(c)
	if err != nil {
		metrics.UploadsRejected.WithLabelValues("bad_upload").Inc()
		abort(c, status, "bad_upload", err.Error())
		return
	}

	res, err := room.LoadRaw(raw)
	metrics.ObserveParse(len(res.Items), len(res.Skipped))
	if err != nil {
		writeLoadError(c, err)
		return
	}
	log.Info().Str("code", room.Code).Int("rounds", len(res.Items)).Int("skipped", len(res.Skipped)).Msg("rounds loaded")
	srv.onChange(room.Code)
	c.JSON(http.StatusOK, gin.H{
		"rounds":  len(res.Items),
		"skipped": res.Skipped,
		"state":   room.View(game.RoleHost, c.GetHeader("Origin")),
	})
}

// readRoundFile takes the file from a multipart "file" field, or the raw
// request body otherwise.
func (srv *Server) readRoundFile(c *gin.Context) (string, int, error) {
	limit := srv.cfg.MaxUploadBytes
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", http.StatusBadRequest, fmt.Errorf("missing file field: %w", err)
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") && fh.Header.Get("Content-Type") != "text/csv" {
			return "", http.StatusUnsupportedMediaType, errors.New("please upload a .csv file")
		}
		if fh.Size > limit {
			return "", http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d bytes", limit)
		}
		f, err := fh.Open()
		if err != nil {
			return "", http.StatusBadRequest, err
		}
		defer f.Close()
		return readLimited(f, limit)
	}
	return readLimited(c.Request.Body, limit)
}

func readLimited(r io.Reader, limit int64) (string, int, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", http.StatusBadRequest, err
	}
	if int64(len(b)) > limit {
		return "", http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return string(b), http.StatusOK, nil
}

func writeLoadError(c *gin.Context, err error) {
	var schemaErr *rounds.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		metrics.UploadsRejected.WithLabelValues("invalid_header").Inc()
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "invalid_header",
			"message": "File must contain 'title' and 'link' columns. " + err.Error(),
			"missing": schemaErr.Missing,
			"found":   schemaErr.Found,
		})
	case errors.Is(err, rounds.ErrNoValidRows):
		metrics.UploadsRejected.WithLabelValues("no_valid_rows").Inc()
		abort(c, http.StatusUnprocessableEntity, "no_valid_rows", "No valid videos found. Check columns: title, link, level.")
	default:
		abort(c, http.StatusBadRequest, "bad_upload", err.Error())
	}
}

func (srv *Server) demo(c *gin.Context) {
	room := c.MustGet(roomKey).(*game.Room)
	room.Session.LoadBatch(rounds.DemoItems())
	log.Info().Str("code", room.Code).Msg("demo rounds loaded")
	srv.applied(c, room, "demo")
}

func (srv *Server) reveal(c *gin.Context) {
	room := c.MustGet(roomKey).(*game.Room)
	room.Session.Reveal()
	srv.applied(c, room, "reveal")
}

func (srv *Server) advance(c *gin.Context) {
	room := c.MustGet(roomKey).(*game.Room)
	if room.Advance() {
		log.Info().Str("code", room.Code).Msg("game finished")
		Export(srv.cfg, room)
	}
	srv.applied(c, room, "advance")
}

func (srv *Server) restart(c *gin.Context) {
	room := c.MustGet(roomKey).(*game.Room)
	room.Session.Restart()
	srv.applied(c, room, "restart")
}

func (srv *Server) applied(c *gin.Context, room *game.Room, op string) {
	metrics.Transitions.WithLabelValues(op).Inc()
	srv.onChange(room.Code)
	c.JSON(http.StatusOK, room.View(game.RoleHost, c.GetHeader("Origin")))
}

// Export writes the play log of a finished room when export is enabled.
func Export(cfg config.Config, room *game.Room) {
	if !cfg.ExportEnabled {
		return
	}
	if err := game.ExportSession(room.Code, room.Session, cfg.ExportFile); err != nil {
		log.Error().Err(err).Str("code", room.Code).Msg("failed to export game data")
		return
	}
	log.Info().Str("code", room.Code).Str("file", cfg.ExportFile).Msg("exported game data")
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}
