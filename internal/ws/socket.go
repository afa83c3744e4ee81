package ws

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/firstframe/internal/config"
	"github.com/kiliankoe/firstframe/internal/game"
	"github.com/kiliankoe/firstframe/internal/httpapi"
	"github.com/kiliankoe/firstframe/internal/metrics"
	"github.com/kiliankoe/firstframe/internal/rounds"
	"github.com/rs/zerolog/log"
)

type ConnCtx struct {
	Code  string
	Token string
	Role  game.Role
}

type Server struct {
	RM     *game.RoomManager
	config config.Config

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // sessionCode -> socketID -> Conn
}

func New(rm *game.RoomManager, cfg config.Config) *Server {
	srv := &Server{RM: rm, members: make(map[string]map[string]socketio.Conn), config: cfg}
	rm.OnRemove(srv.closeRoom)
	return srv
}

type resumeRequest struct {
	SessionCode string `json:"sessionCode"`
	Token       string `json:"token"`
}

type watchRequest struct {
	SessionCode string `json:"sessionCode"`
}

type loadRequest struct {
	CSV string `json:"csv"`
}

// Mount attaches the Socket.IO server with its handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "game:create", srv.create)
	io.OnEvent("/", "game:resume", srv.resume)
	io.OnEvent("/", "game:watch", srv.watch)
	io.OnEvent("/", "game:load", srv.load)
	io.OnEvent("/", "game:demo", srv.hostOp("demo", func(room *game.Room) {
		room.Session.LoadBatch(rounds.DemoItems())
	}))
	io.OnEvent("/", "game:reveal", srv.hostOp("reveal", func(room *game.Room) {
		room.Session.Reveal()
	}))
	io.OnEvent("/", "game:advance", srv.hostOp("advance", func(room *game.Room) {
		if room.Advance() {
			log.Info().Str("code", room.Code).Msg("game finished")
			httpapi.Export(srv.config, room)
		}
	}))
	io.OnEvent("/", "game:restart", srv.hostOp("restart", func(room *game.Room) {
		room.Session.Restart()
	}))

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Code != "" {
			srv.removeMember(ctx.Code, s)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	return io
}

func (srv *Server) create(s socketio.Conn) map[string]any {
	if srv.config.HostAuthEnabled() {
		return srv.err(s, "unauthorized", "Create sessions through /api/session")
	}
	code, hostToken, err := srv.RM.CreateSession()
	if err != nil {
		log.Error().Err(err).Msg("game:create")
		return srv.err(s, "internal", "Could not create session")
	}
	metrics.SessionsCreated.Inc()
	srv.attach(s, &ConnCtx{Code: code, Token: hostToken, Role: game.RoleHost})
	log.Info().Str("sid", s.ID()).Str("code", code).Msg("game:create")
	srv.EmitState(code)
	return map[string]any{"sessionCode": code, "hostToken": hostToken}
}

// resume reattaches a reconnecting moderator.
func (srv *Server) resume(s socketio.Conn, req resumeRequest) map[string]any {
	room, err := srv.RM.Get(req.SessionCode)
	if err != nil {
		return srv.err(s, "session_not_found", "Session not found")
	}
	if err := room.Authorize(req.Token); err != nil {
		return srv.err(s, "unauthorized", "Invalid host token")
	}
	srv.attach(s, &ConnCtx{Code: room.Code, Token: req.Token, Role: game.RoleHost})
	log.Info().Str("sid", s.ID()).Str("code", room.Code).Msg("game:resume")
	s.Emit("game:state", room.View(game.RoleHost, ""))
	return map[string]any{"ok": true}
}

func (srv *Server) watch(s socketio.Conn, req watchRequest) map[string]any {
	room, err := srv.RM.Get(req.SessionCode)
	if err != nil {
		return srv.err(s, "session_not_found", "Session not found")
	}
	srv.attach(s, &ConnCtx{Code: room.Code, Role: game.RoleViewer})
	log.Info().Str("sid", s.ID()).Str("code", room.Code).Msg("game:watch")
	s.Emit("game:state", room.View(game.RoleViewer, ""))
	return map[string]any{"ok": true}
}

func (srv *Server) load(s socketio.Conn, req loadRequest) map[string]any {
	room, errResp := srv.hostRoom(s)
	if errResp != nil {
		return errResp
	}
	if int64(len(req.CSV)) > srv.config.MaxUploadBytes {
		return srv.err(s, "bad_upload", "File too large")
	}
	res, err := room.LoadRaw(req.CSV)
	metrics.ObserveParse(len(res.Items), len(res.Skipped))
	var schemaErr *rounds.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		metrics.UploadsRejected.WithLabelValues("invalid_header").Inc()
		return srv.err(s, "invalid_header", "File must contain 'title' and 'link' columns. "+err.Error())
	case errors.Is(err, rounds.ErrNoValidRows):
		metrics.UploadsRejected.WithLabelValues("no_valid_rows").Inc()
		return srv.err(s, "no_valid_rows", "No valid videos found. Check columns: title, link, level.")
	case err != nil:
		return srv.err(s, "bad_upload", err.Error())
	}
	log.Info().Str("code", room.Code).Int("rounds", len(res.Items)).Int("skipped", len(res.Skipped)).Msg("game:load")
	srv.EmitState(room.Code)
	return map[string]any{"rounds": len(res.Items), "skipped": res.Skipped}
}

// hostOp wraps a moderator operation: resolve and authorize the room, apply
// fn, then push the new state to everyone in the room.
func (srv *Server) hostOp(op string, fn func(room *game.Room)) func(s socketio.Conn) map[string]any {
	return func(s socketio.Conn) map[string]any {
		room, errResp := srv.hostRoom(s)
		if errResp != nil {
			return errResp
		}
		fn(room)
		metrics.Transitions.WithLabelValues(op).Inc()
		log.Info().Str("code", room.Code).Str("phase", string(room.Session.Phase())).Msg("game:" + op)
		srv.EmitState(room.Code)
		return map[string]any{"ok": true}
	}
}

func (srv *Server) hostRoom(s socketio.Conn) (*game.Room, map[string]any) {
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil || ctx.Code == "" {
		return nil, srv.err(s, "session_not_found", "Session not found")
	}
	room, err := srv.RM.Get(ctx.Code)
	if err != nil {
		return nil, srv.err(s, "session_not_found", "Session not found")
	}
	if ctx.Role != game.RoleHost || room.Authorize(ctx.Token) != nil {
		return nil, srv.err(s, "unauthorized", "Only the moderator can do that")
	}
	return room, nil
}

func (srv *Server) attach(s socketio.Conn, ctx *ConnCtx) {
	if old, ok := s.Context().(*ConnCtx); ok && old.Code != "" && old.Code != ctx.Code {
		srv.removeMember(old.Code, s)
		s.Leave(old.Code)
	}
	s.SetContext(ctx)
	s.Join(ctx.Code)
	srv.addMember(ctx.Code, s)
}

func (srv *Server) addMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
}

func (srv *Server) removeMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
		if len(m) == 0 {
			delete(srv.members, code)
		}
	}
}

// closeRoom tells every screen still attached to a dropped room that it is
// gone and forgets them.
func (srv *Server) closeRoom(code string) {
	srv.mu.Lock()
	conns := srv.members[code]
	delete(srv.members, code)
	srv.mu.Unlock()

	for _, c := range conns {
		c.Emit("game:closed", map[string]any{"sessionCode": code})
		c.Leave(code)
		if ctx, _ := c.Context().(*ConnCtx); ctx != nil && ctx.Code == code {
			c.SetContext(&ConnCtx{})
		}
	}
	if len(conns) > 0 {
		log.Info().Str("code", code).Int("screens", len(conns)).Msg("room closed")
	}
}

// EmitState sends every screen in the room its own view of the state.
func (srv *Server) EmitState(code string) {
	room, err := srv.RM.Get(code)
	if err != nil {
		srv.closeRoom(code)
		return
	}
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()

	host := room.View(game.RoleHost, "")
	viewer := room.View(game.RoleViewer, "")
	for _, c := range conns {
		if ctx, _ := c.Context().(*ConnCtx); ctx != nil && ctx.Role == game.RoleHost {
			c.Emit("game:state", host)
		} else {
			c.Emit("game:state", viewer)
		}
	}
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
