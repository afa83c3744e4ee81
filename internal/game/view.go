package game

import (
	"github.com/kiliankoe/firstframe/internal/rounds"
)

type Role string

const (
	RoleHost   Role = "host"
	RoleViewer Role = "viewer"
)

type MediaView struct {
	HintImage     string `json:"hintImage"`
	FallbackImage string `json:"fallbackImage"`
	Embed         string `json:"embed,omitempty"`
}

// StateView is the payload pushed to screens.
type StateView struct {
	SessionCode string `json:"sessionCode"`
	Role        Role   `json:"role"`
	Snapshot
	Media *MediaView `json:"media,omitempty"`
}

// LoadRaw parses a round file and starts a game with it. On a schema error
// or when no row survives, the session is left as it was.
func (r *Room) LoadRaw(raw string) (rounds.Result, error) {
	res, err := rounds.ParseReport(raw)
	if err != nil {
		return res, err
	}
	if len(res.Items) == 0 {
		return res, rounds.ErrNoValidRows
	}
	r.Session.LoadBatch(res.Items)
	return res, nil
}

// Advance moves the session forward and reports whether this call ended
// the game.
func (r *Room) Advance() (finished bool) {
	return r.Session.Advance()
}

// View builds the state for one screen. The embed URL only appears once
// the round is revealed; origin is the page the player is embedded in.
func (r *Room) View(role Role, origin string) StateView {
	snap := r.Session.Snapshot()
	if role != RoleHost {
		role = RoleViewer
		snap = snap.ViewerSnapshot()
	}
	v := StateView{SessionCode: r.Code, Role: role, Snapshot: snap}
	if cur := snap.Current; cur != nil {
		v.Media = &MediaView{
			HintImage:     cur.HintImageRef,
			FallbackImage: rounds.FallbackImageURL(cur.VideoRef),
		}
		if snap.Revealed {
			v.Media.Embed = rounds.EmbedURL(cur.VideoRef, cur.StartOffsetSeconds, origin)
		}
	}
	return v
}
