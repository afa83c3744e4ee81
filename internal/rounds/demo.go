package rounds

// Blender Foundation open movies; all of them allow embedding.
var demoSource = []struct {
	ref   string
	title string
}{
	{"aqz-KE-bpKQ", "Big Buck Bunny"},
	{"WhWc3b3KhnY", "Spring"},
	{"SkVqJ1SGeL0", "Caminandes 3"},
	{"mN0zPOpADL4", "Agent 327"},
	{"hom951lLS-c", "Sintel"},
}

// DemoItems returns the built-in round set, numbered from 1.
func DemoItems() []RoundItem {
	out := make([]RoundItem, 0, len(demoSource))
	for i, d := range demoSource {
		out = append(out, RoundItem{
			ID:           i + 1,
			VideoRef:     d.ref,
			HintImageRef: HintImageURL(d.ref),
			Title:        d.title,
		})
	}
	return out
}
