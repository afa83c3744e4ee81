package rounds

// RoundItem is one quiz round: a hint image shown until reveal, then the video.
type RoundItem struct {
	ID                 int    `json:"id"`
	VideoRef           string `json:"videoRef"`
	HintImageRef       string `json:"hintImageRef"`
	Title              string `json:"title"`
	StartOffsetSeconds int    `json:"startOffsetSeconds"`
	Difficulty         string `json:"difficulty,omitempty"` // easy | medium | hard, but any tag is accepted
}

// SkippedRow records a data row the parser dropped.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result is the outcome of ParseReport.
type Result struct {
	Items   []RoundItem  `json:"items"`
	Skipped []SkippedRow `json:"skipped,omitempty"`
}

const (
	SkipTooShort = "too few columns"
	SkipBadLink  = "link has no video id"
)
