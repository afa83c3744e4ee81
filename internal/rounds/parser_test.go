package rounds

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleRow(t *testing.T) {
	items, err := Parse("title,link,level\nFoo,https://youtu.be/abcdefghijk,easy\n")
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, RoundItem{
		ID:           1,
		VideoRef:     "abcdefghijk",
		HintImageRef: "https://img.youtube.com/vi/abcdefghijk/maxresdefault.jpg",
		Title:        "Foo",
		Difficulty:   "easy",
	}, items[0])
}

func TestParseMissingLinkColumn(t *testing.T) {
	_, err := Parse("title,level\nFoo,easy\n")
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"link"}, schemaErr.Missing)
	assert.Equal(t, []string{"title", "level"}, schemaErr.Found)
	assert.Contains(t, err.Error(), "detected headers: title, level")
}

func TestParseMissingBothColumns(t *testing.T) {
	_, err := Parse("name;url\nFoo;https://youtu.be/abcdefghijk\n")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"title", "link"}, schemaErr.Missing)
	assert.Equal(t, []string{"name", "url"}, schemaErr.Found)
}

func TestParseMalformedLinkYieldsEmptyBatch(t *testing.T) {
	items, err := Parse("title,link\nFoo,not-a-url\n")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestParseTooFewLines(t *testing.T) {
	for _, in := range []string{"", "title,link", "title,level"} {
		items, err := Parse(in)
		require.NoError(t, err, "input %q", in)
		assert.Empty(t, items, "input %q", in)
	}
}

func TestParseHeaderColumnOrder(t *testing.T) {
	tests := []struct {
		name   string
		header string
		row    string
	}{
		{"title first", "title,link", "Foo,https://youtu.be/abcdefghijk"},
		{"link first", "link,title", "https://youtu.be/abcdefghijk,Foo"},
		{"with extras", "level,notes,LINK,Title", "hard,x,https://youtu.be/abcdefghijk,Foo"},
		{"padded header", " Title , Link ", "Foo, https://youtu.be/abcdefghijk "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Parse(tt.header + "\n" + tt.row)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "abcdefghijk", items[0].VideoRef)
			assert.Equal(t, "Foo", items[0].Title)
		})
	}
}

func TestParseSemicolonDelimiter(t *testing.T) {
	raw := "title;link;level\r\n" +
		"Foo, with comma;https://youtu.be/abcdefghijk;medium\r\n" +
		"Bar;https://www.youtube.com/watch?v=ABCDEFGHIJK;hard\r\n"
	items, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Foo, with comma", items[0].Title)
	assert.Equal(t, "medium", items[0].Difficulty)
	assert.Equal(t, "ABCDEFGHIJK", items[1].VideoRef)
	assert.Equal(t, 2, items[1].ID)
}

func TestParseDelimiterDecidedByHeaderOnly(t *testing.T) {
	// Header has no semicolon, so the semicolon in the row is plain text.
	items, err := Parse("title,link\nA;B,https://youtu.be/abcdefghijk\n")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A;B", items[0].Title)
}

func TestParseQuotedFields(t *testing.T) {
	raw := "title,link,level\n" +
		`"Hello, World","https://youtu.be/abcdefghijk", easy` + "\n" +
		`"Say ""hi""",https://youtu.be/abcdefghijk,` + "\n"
	items, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Hello, World", items[0].Title)
	assert.Equal(t, "easy", items[0].Difficulty)
	// Doubled quotes are not an escape: they just toggle quoted mode twice.
	assert.Equal(t, "Say hi", items[1].Title)
	assert.Equal(t, "", items[1].Difficulty)
}

func TestParseSkippedRowsKeepLineIDs(t *testing.T) {
	raw := "title,link,level\n" +
		"One,https://youtu.be/aaaaaaaaaaa,easy\n" +
		"\n" +
		"   \n" +
		"Short\n" +
		"Broken,https://example.com/nothing,hard\n" +
		"Two,https://youtu.be/bbbbbbbbbbb\n" +
		",https://youtu.be/ccccccccccc,medium\n"
	res, err := ParseReport(raw)
	require.NoError(t, err)

	require.Len(t, res.Items, 3)
	assert.Equal(t, 1, res.Items[0].ID)
	assert.Equal(t, 6, res.Items[1].ID)
	assert.Equal(t, "", res.Items[1].Difficulty)
	assert.Equal(t, 7, res.Items[2].ID)
	assert.Equal(t, "Video 7", res.Items[2].Title)

	assert.Equal(t, []SkippedRow{
		{Line: 4, Reason: SkipTooShort},
		{Line: 5, Reason: SkipBadLink},
	}, res.Skipped)
}

func TestParseEachBadRowRemovesExactlyOne(t *testing.T) {
	good := "T,https://youtu.be/abcdefghijk"
	bad := []string{"T", "T,", "T,https://youtu.be/short", ",nope"}

	base := "title,link\n" + good + "\n" + good + "\n"
	items, err := Parse(base)
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, b := range bad {
		withBad := "title,link\n" + good + "\n" + b + "\n" + good + "\n"
		got, err := Parse(withBad)
		require.NoError(t, err)
		require.Len(t, got, 2, "row %q", b)
		assert.Equal(t, 1, got[0].ID)
		assert.Equal(t, 3, got[1].ID)
	}
}

func TestParseLeadingByteOrderMark(t *testing.T) {
	items, err := Parse("\uFEFFtitle,link\r\nFoo,https://youtu.be/abcdefghijk\r\n")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Foo", items[0].Title)

	_, err = Parse("\uFEFFlevel,link\nhard,https://youtu.be/abcdefghijk\n")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"level", "link"}, schemaErr.Found)
}

func TestParseOptionalColumns(t *testing.T) {
	raw := "title,link,start,image\n" +
		"Foo,https://youtu.be/abcdefghijk,42,https://cdn.example.com/foo.png\n" +
		"Bar,https://youtu.be/bcdefghijkl,-5,\n" +
		"Baz,https://youtu.be/cdefghijklm,soon\n"
	items, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, 42, items[0].StartOffsetSeconds)
	assert.Equal(t, "https://cdn.example.com/foo.png", items[0].HintImageRef)
	assert.Equal(t, 0, items[1].StartOffsetSeconds)
	assert.Equal(t, HintImageURL("bcdefghijkl"), items[1].HintImageRef)
	assert.Equal(t, 0, items[2].StartOffsetSeconds)
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		line  string
		delim rune
		want  []string
	}{
		{"a,b,c", ',', []string{"a", "b", "c"}},
		{" a , b ,c ", ',', []string{"a", "b", "c"}},
		{`"a,b",c`, ',', []string{"a,b", "c"}},
		{`a;"b;c";d`, ';', []string{"a", "b;c", "d"}},
		{`"unterminated,x`, ',', []string{"unterminated,x"}},
		{",", ',', []string{"", ""}},
		{"", ',', []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitFields(tt.line, tt.delim), "line %q", tt.line)
	}
}

func TestExtractVideoRefShapes(t *testing.T) {
	const ref = "dQw4w9WgXcQ"
	for _, shape := range LinkShapes() {
		t.Run(shape.Name, func(t *testing.T) {
			got, ok := ExtractVideoRef(fmt.Sprintf(shape.Example, ref))
			require.True(t, ok)
			assert.Equal(t, ref, got)
		})
	}
}

func TestExtractVideoRefWrongLength(t *testing.T) {
	for _, shape := range LinkShapes() {
		for _, ref := range []string{"", "dQw4w9WgXc", "dQw4w9WgXcQQ", "ábcdefghij"} {
			_, ok := ExtractVideoRef(fmt.Sprintf(shape.Example, ref))
			assert.False(t, ok, "shape %s with %q", shape.Name, ref)
		}
	}
}

func TestExtractVideoRefCountsCharacters(t *testing.T) {
	// 11 characters, 12 bytes.
	got, ok := ExtractVideoRef("https://youtu.be/ábcdefghijk")
	require.True(t, ok)
	assert.Equal(t, "ábcdefghijk", got)

	// 10 characters, 11 bytes.
	_, ok = ExtractVideoRef("https://youtu.be/ábcdefghij")
	assert.False(t, ok)
}

func TestExtractVideoRefNoMatch(t *testing.T) {
	for _, link := range []string{
		"",
		"not-a-url",
		"https://example.com/abcdefghijk",
		"https://vimeo.com/12345678901",
	} {
		_, ok := ExtractVideoRef(link)
		assert.False(t, ok, "link %q", link)
	}
}

func TestExtractVideoRefMobileAndExtras(t *testing.T) {
	tests := map[string]string{
		"https://m.youtube.com/watch?v=abcdefghijk":                  "abcdefghijk",
		"https://www.youtube.com/watch?v=abcdefghijk#t=30":           "abcdefghijk",
		"youtu.be/abcdefghijk?t=12":                                  "abcdefghijk",
		"https://www.youtube-nocookie.com/embed/abcdefghijk?start=5": "abcdefghijk",
	}
	for link, want := range tests {
		got, ok := ExtractVideoRef(link)
		require.True(t, ok, link)
		assert.Equal(t, want, got, link)
	}
}

func TestDemoItems(t *testing.T) {
	items := DemoItems()
	require.Len(t, items, 5)
	for i, it := range items {
		assert.Equal(t, i+1, it.ID)
		assert.Len(t, it.VideoRef, VideoRefLength)
		assert.Equal(t, HintImageURL(it.VideoRef), it.HintImageRef)
		assert.NotEmpty(t, it.Title)
	}
}

func TestMediaTemplates(t *testing.T) {
	assert.Equal(t, "https://img.youtube.com/vi/abcdefghijk/hqdefault.jpg", FallbackImageURL("abcdefghijk"))
	assert.Equal(t,
		"https://www.youtube-nocookie.com/embed/abcdefghijk?autoplay=1&start=15&controls=1&rel=0&modestbranding=1&playsinline=1&enablejsapi=1&origin=https%3A%2F%2Fquiz.example.com",
		EmbedURL("abcdefghijk", 15, "https://quiz.example.com"))
	assert.Contains(t, EmbedURL("abcdefghijk", -3, ""), "start=0&")
}
