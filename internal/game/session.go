package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/kiliankoe/firstframe/internal/rounds"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Session is the round progression state machine. Its operations never
// fail: calls that make no sense in the current phase are no-ops.
type Session struct {
	mu sync.Mutex

	phase    Phase
	index    int
	revealed bool
	batch    []rounds.RoundItem

	shuffler Shuffler
}

type SessionOption func(*Session)

// WithShuffler replaces the time-seeded default source of randomness.
func WithShuffler(sh Shuffler) SessionOption {
	return func(s *Session) { s.shuffler = sh }
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{phase: PhaseIdle}
	for _, opt := range opts {
		opt(s)
	}
	if s.shuffler == nil {
		s.shuffler = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// LoadBatch starts a fresh game over a shuffled copy of items, whatever
// phase the session was in. The caller's slice is left untouched.
func (s *Session) LoadBatch(items []rounds.RoundItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]rounds.RoundItem, len(items))
	copy(batch, items)
	s.shuffler.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })

	s.phase = PhasePlaying
	s.index = 0
	s.revealed = false
	s.batch = batch
}

func (s *Session) Reveal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhasePlaying && !s.revealed {
		s.revealed = true
	}
}

// Advance moves to the next round, or to Finished after the last one, and
// reports whether this call finished the game. The batch is kept when
// finishing so it can still be inspected.
func (s *Session) Advance() (finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhasePlaying {
		return false
	}
	next := s.index + 1
	if next >= len(s.batch) {
		s.phase = PhaseFinished
		return true
	}
	s.index = next
	s.revealed = false
	return false
}

func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
	s.index = 0
	s.revealed = false
	s.batch = nil
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Revealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Batch returns a copy of the play order.
func (s *Session) Batch() []rounds.RoundItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rounds.RoundItem, len(s.batch))
	copy(out, s.batch)
	return out
}

// CurrentItem is only defined while playing.
func (s *Session) CurrentItem() (rounds.RoundItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentItem()
}

func (s *Session) IsLastItem() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index == len(s.batch)-1
}

// ProgressLabel reads like "3 / 10".
func (s *Session) ProgressLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progressLabel(s.index, len(s.batch))
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Phase:        s.phase,
		CurrentIndex: s.index,
		Revealed:     s.revealed,
		Total:        len(s.batch),
		IsLastItem:   s.index == len(s.batch)-1,
		Batch:        make([]rounds.RoundItem, len(s.batch)),
	}
	copy(snap.Batch, s.batch)
	if it, ok := s.currentItem(); ok {
		snap.Current = &it
		snap.ProgressLabel = progressLabel(s.index, len(s.batch))
	}
	return snap
}

func (s *Session) currentItem() (rounds.RoundItem, bool) {
	if s.phase != PhasePlaying || s.index < 0 || s.index >= len(s.batch) {
		return rounds.RoundItem{}, false
	}
	return s.batch[s.index], true
}

func progressLabel(index, total int) string {
	return fmt.Sprintf("%d / %d", index+1, total)
}
