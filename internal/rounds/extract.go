package rounds

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// VideoRefLength is the exact length of a video id, in characters.
const VideoRefLength = 11

// LinkShape is one URL form the extractor understands. Prefix is a regexp
// fragment that must appear directly before the id.
type LinkShape struct {
	Name    string
	Prefix  string
	Example string
}

var linkShapes = []LinkShape{
	{Name: "short", Prefix: `youtu.be/`, Example: "https://youtu.be/%s"},
	{Name: "v", Prefix: `v/`, Example: "https://www.youtube.com/v/%s?version=3"},
	{Name: "user", Prefix: `u/\w/`, Example: "https://www.youtube.com/user/Channel#p/u/1/%s"},
	{Name: "embed", Prefix: `embed/`, Example: "https://www.youtube.com/embed/%s?rel=0"},
	{Name: "watch", Prefix: `watch\?v=`, Example: "https://www.youtube.com/watch?v=%s&t=42s"},
	{Name: "query", Prefix: `&v=`, Example: "https://www.youtube.com/watch?feature=share&v=%s"},
}

// The leading .* is greedy, so the last prefix occurrence in the link wins.
var videoRefPattern = compileLinkPattern(linkShapes)

func compileLinkPattern(shapes []LinkShape) *regexp.Regexp {
	prefixes := make([]string, 0, len(shapes))
	for _, s := range shapes {
		prefixes = append(prefixes, s.Prefix)
	}
	return regexp.MustCompile(`^.*(` + strings.Join(prefixes, "|") + `)([^#&?]*).*`)
}

// LinkShapes returns a copy of the supported link forms.
func LinkShapes() []LinkShape {
	out := make([]LinkShape, len(linkShapes))
	copy(out, linkShapes)
	return out
}

// ExtractVideoRef pulls the video id out of a link. The grammar is loose, so
// a match only counts when the captured id is exactly VideoRefLength long.
func ExtractVideoRef(link string) (string, bool) {
	if link == "" {
		return "", false
	}
	m := videoRefPattern.FindStringSubmatch(link)
	if m == nil || utf8.RuneCountInString(m[2]) != VideoRefLength {
		return "", false
	}
	return m[2], true
}
