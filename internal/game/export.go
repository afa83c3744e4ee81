package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportSession appends the play order of a finished game to a text file,
// so the moderator keeps a record of which videos were shown.
func ExportSession(code string, s *Session, filename string) error {
	snap := s.Snapshot()
	if snap.Phase != PhaseFinished {
		return fmt.Errorf("session %s is %s, not %s", code, snap.Phase, PhaseFinished)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fileExists := false
	if _, err := os.Stat(filename); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	if fileExists {
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("First Frame Game - Session %s\n", code))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	for i, it := range snap.Batch {
		line := fmt.Sprintf("%d. [%d] %s (%s)", i+1, it.ID, it.Title, it.VideoRef)
		if it.Difficulty != "" {
			line += " - " + it.Difficulty
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(fmt.Sprintf("Rounds played: %d\n", len(snap.Batch)))

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
