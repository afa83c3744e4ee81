package game

import (
	"crypto/subtle"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotHost         = errors.New("not host")
)

// Room is one running game: a session plus the moderator's credentials.
type Room struct {
	Code      string
	CreatedAt time.Time
	HostToken string
	Session   *Session
}

// Authorize checks a moderator token against the room's host token.
func (r *Room) Authorize(hostToken string) error {
	if hostToken == "" || subtle.ConstantTimeCompare([]byte(hostToken), []byte(r.HostToken)) != 1 {
		return ErrNotHost
	}
	return nil
}

type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	active   string // active room code when in single-session mode
	single   bool
	sessOpts []SessionOption
	onRemove []func(code string)
}

type ManagerOption func(*RoomManager)

// SingleSession makes every newly created room replace the previous one as
// the active room, and drops the old room.
func SingleSession(on bool) ManagerOption {
	return func(rm *RoomManager) { rm.single = on }
}

// WithSessionOptions applies opts to every session the manager creates.
func WithSessionOptions(opts ...SessionOption) ManagerOption {
	return func(rm *RoomManager) { rm.sessOpts = append(rm.sessOpts, opts...) }
}

func NewRoomManager(opts ...ManagerOption) *RoomManager {
	rm := &RoomManager{rooms: make(map[string]*Room)}
	for _, opt := range opts {
		opt(rm)
	}
	return rm
}

// OnRemove registers fn to run after a room is dropped, either by Remove or
// by a newer room replacing it in single-session mode. fn runs without the
// manager lock held.
func (rm *RoomManager) OnRemove(fn func(code string)) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.onRemove = append(rm.onRemove, fn)
}

func (rm *RoomManager) CreateSession() (code string, hostToken string, err error) {
	rm.mu.Lock()

	code = randomCode(5)
	for rm.rooms[code] != nil {
		code = randomCode(5)
	}
	hostToken = uuid.NewString()
	rm.rooms[code] = &Room{
		Code:      code,
		CreatedAt: time.Now().UTC(),
		HostToken: hostToken,
		Session:   NewSession(rm.sessOpts...),
	}

	var dropped string
	if rm.single && rm.active != "" && rm.rooms[rm.active] != nil {
		dropped = rm.active
		delete(rm.rooms, dropped)
	}
	rm.active = code
	hooks := rm.onRemove
	rm.mu.Unlock()

	if dropped != "" {
		notify(hooks, dropped)
	}
	return code, hostToken, nil
}

func (rm *RoomManager) Get(code string) (*Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	r := rm.rooms[code]
	if r == nil {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

// Active returns the most recently created room that still exists.
func (rm *RoomManager) Active() (string, *Room) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	if rm.active == "" {
		return "", nil
	}
	return rm.active, rm.rooms[rm.active]
}

func (rm *RoomManager) Remove(code string) {
	rm.mu.Lock()
	_, ok := rm.rooms[code]
	delete(rm.rooms, code)
	if rm.active == code {
		rm.active = ""
	}
	hooks := rm.onRemove
	rm.mu.Unlock()

	if ok {
		notify(hooks, code)
	}
}

func notify(hooks []func(string), code string) {
	for _, fn := range hooks {
		fn(code)
	}
}

func (rm *RoomManager) Len() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
