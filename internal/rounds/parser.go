package rounds

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	colTitle = "title"
	colLink  = "link"
	colLevel = "level"
	colStart = "start"
	colImage = "image"
)

// ErrNoValidRows is what callers report when a file had a usable header but
// not a single usable row. Parse itself never returns it.
var ErrNoValidRows = errors.New("no valid rows found")

// SchemaError means the header lacks a mandatory column.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s) %s; detected headers: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse turns delimited text into round items. See ParseReport.
func Parse(raw string) ([]RoundItem, error) {
	res, err := ParseReport(raw)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ParseReport parses raw text with a header row and one round per line.
// Rows that are blank, too short or carry no recognizable video link are
// dropped; non-blank drops are listed in Result.Skipped. The only error is a
// *SchemaError for a header without title or link.
func ParseReport(raw string) (Result, error) {
	res := Result{Items: []RoundItem{}}

	// Spreadsheet exports often lead with a byte order mark.
	raw = strings.TrimPrefix(raw, "\uFEFF")
	lines := lineBreak.Split(raw, -1)
	if len(lines) < 2 {
		return res, nil
	}

	delim := ','
	if strings.ContainsRune(lines[0], ';') {
		delim = ';'
	}

	header := splitFields(strings.ToLower(lines[0]), delim)
	titleIx := indexOf(header, colTitle)
	linkIx := indexOf(header, colLink)
	levelIx := indexOf(header, colLevel)
	startIx := indexOf(header, colStart)
	imageIx := indexOf(header, colImage)

	var missing []string
	if titleIx < 0 {
		missing = append(missing, colTitle)
	}
	if linkIx < 0 {
		missing = append(missing, colLink)
	}
	if len(missing) > 0 {
		return res, &SchemaError{Missing: missing, Found: header}
	}
	required := max(titleIx, linkIx)

	for i := 1; i < len(lines); i++ {
		line := trim(lines[i])
		if line == "" {
			continue
		}
		cols := splitFields(line, delim)
		if len(cols) <= required {
			res.Skipped = append(res.Skipped, SkippedRow{Line: i, Reason: SkipTooShort})
			continue
		}
		ref, ok := ExtractVideoRef(cols[linkIx])
		if !ok {
			res.Skipped = append(res.Skipped, SkippedRow{Line: i, Reason: SkipBadLink})
			continue
		}

		item := RoundItem{
			ID:           i,
			VideoRef:     ref,
			HintImageRef: HintImageURL(ref),
			Title:        cols[titleIx],
			Difficulty:   field(cols, levelIx),
		}
		if item.Title == "" {
			item.Title = fmt.Sprintf("Video %d", i)
		}
		if img := field(cols, imageIx); img != "" {
			item.HintImageRef = img
		}
		if n, err := strconv.Atoi(field(cols, startIx)); err == nil && n > 0 {
			item.StartOffsetSeconds = n
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

// splitFields splits one line on delim outside of double quotes. A quote
// only toggles quoted mode and is dropped; there is no escape, so "" inside
// a quoted field yields nothing rather than a literal quote.
func splitFields(line string, delim rune) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == delim && !quoted:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, cleanField(current.String()))
}

func cleanField(s string) string {
	s = trim(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return trim(s)
}

// trim strips white space plus U+FEFF, which unicode.IsSpace does not cover.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func field(cols []string, ix int) string {
	if ix < 0 || ix >= len(cols) {
		return ""
	}
	return cols[ix]
}
