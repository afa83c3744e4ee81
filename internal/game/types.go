package game

import (
	"github.com/kiliankoe/firstframe/internal/rounds"
)

type Phase string

const (
	PhaseIdle     Phase = "Idle"
	PhasePlaying  Phase = "Playing"
	PhaseFinished Phase = "Finished"
)

// Snapshot is a copy of a session's state plus its derived values.
type Snapshot struct {
	Phase         Phase              `json:"phase"`
	CurrentIndex  int                `json:"currentIndex"`
	Revealed      bool               `json:"revealed"`
	Total         int                `json:"total"`
	IsLastItem    bool               `json:"isLastItem"`
	ProgressLabel string             `json:"progressLabel,omitempty"`
	Current       *rounds.RoundItem  `json:"current,omitempty"`
	Batch         []rounds.RoundItem `json:"-"`
}

// ViewerSnapshot is what screens other than the moderator's get: the title
// and difficulty stay hidden until the round is revealed.
func (s Snapshot) ViewerSnapshot() Snapshot {
	if s.Current == nil || s.Revealed {
		return s
	}
	cur := *s.Current
	cur.Title = ""
	cur.Difficulty = ""
	s.Current = &cur
	return s
}
