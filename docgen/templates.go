package docgen

import "sort"

const DefaultTemplate = "standard"

// Layout is a fixed document template. Unknown template names fall back
// to the standard layout instead of failing the request.
type Layout struct {
	Name      string
	Title     string
	TitleSize int // half-points
	Spaced    bool
}

var layouts = map[string]Layout{
	"standard": {
		Name:      "standard",
		Title:     "Due Diligence Question Response",
		TitleSize: 48,
		Spaced:    true,
	},
	"compact": {
		Name:      "compact",
		Title:     "DDQ Response",
		TitleSize: 36,
		Spaced:    false,
	},
}

func Lookup(name string) Layout {
	if layout, ok := layouts[name]; ok {
		return layout
	}
	return layouts[DefaultTemplate]
}

func Names() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
