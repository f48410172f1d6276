// Package prescription turns a loading template and a base max into the
// concrete sets an athlete performs.
package prescription

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/claude/teamlift/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// RoundingUnit is the plate increment weights are rounded to.
const RoundingUnit = 5.0

// Percent is a fraction of the base weight, or the MAX sentinel.
type Percent struct {
	Fraction float64
	Max      bool
}

// Of returns the fraction f as a Percent.
func Of(f float64) Percent { return Percent{Fraction: f} }

// MaxPercent is the sentinel meaning "use the base weight as-is".
var MaxPercent = Percent{Max: true}

func (p *Percent) parse(raw string) error {
	if strings.EqualFold(strings.TrimSpace(raw), "max") {
		*p = MaxPercent
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid percent %q", raw)
	}
	*p = Percent{Fraction: f}
	return nil
}

func (p *Percent) UnmarshalYAML(node *yaml.Node) error {
	return p.parse(node.Value)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if p.Max {
		return []byte(`"MAX"`), nil
	}
	return json.Marshal(p.Fraction)
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return p.parse(s)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid percent %s", data)
	}
	*p = Percent{Fraction: f}
	return nil
}

// SetEntry is one line of a template.
type SetEntry struct {
	Reps    int     `yaml:"reps" json:"reps"`
	Percent Percent `yaml:"percent" json:"percent"`
}

// Template is a named, ordered list of set entries.
type Template struct {
	Name    string     `json:"name"`
	Entries []SetEntry `json:"entries"`
}

// Library holds the named templates.
type Library struct {
	templates map[string]Template
}

// LoadLibrary parses a YAML document of the form
//
//	templates:
//	  Box1:
//	    - {reps: 10, percent: 0.48}
func LoadLibrary(data []byte) (*Library, error) {
	var doc struct {
		Templates map[string][]SetEntry `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	lib := &Library{templates: make(map[string]Template, len(doc.Templates))}
	for name, entries := range doc.Templates {
		for i, e := range entries {
			if e.Reps <= 0 {
				return nil, fmt.Errorf("template %s entry %d: reps must be positive", name, i+1)
			}
		}
		lib.templates[name] = Template{Name: name, Entries: entries}
	}
	return lib, nil
}

// DefaultLibrary returns the built-in box and max templates.
func DefaultLibrary() *Library {
	lib, err := LoadLibrary(defaultTemplates)
	if err != nil {
		panic(err)
	}
	return lib
}

// Template looks up a template by name.
func (l *Library) Template(name string) (Template, bool) {
	t, ok := l.templates[name]
	return t, ok
}

// Names returns the template names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Templates returns every template, sorted by name.
func (l *Library) Templates() []Template {
	out := make([]Template, 0, len(l.templates))
	for _, name := range l.Names() {
		out = append(out, l.templates[name])
	}
	return out
}

// ForSelection resolves the template a selection prescribes.
func (l *Library) ForSelection(sel models.Selection) (Template, error) {
	if err := sel.Validate(); err != nil {
		return Template{}, err
	}
	switch sel.Kind {
	case models.SelectionPercent:
		return PercentageTemplate(sel.Percent), nil
	case models.SelectionMax:
		if t, ok := l.templates["Max"]; ok {
			return t, nil
		}
	case models.SelectionBox:
		if t, ok := l.templates[fmt.Sprintf("Box%d", sel.Box)]; ok {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: no template for %s", models.ErrInvalidSelection, sel)
}

// intensityReps maps a working intensity (percent of max) to the number of
// reps an athlete can complete at it.
var intensityReps = []struct {
	intensity int
	reps      int
}{
	{100, 1}, {97, 2}, {94, 3}, {91, 4}, {88, 5}, {85, 6}, {82, 7}, {79, 8},
	{76, 9}, {73, 10}, {70, 11}, {67, 12}, {64, 14}, {61, 16}, {58, 18}, {55, 20},
}

// RepsForIntensity returns the reps for the nearest table intensity at or
// below pct. Anything at 55% or lighter gets 20 reps.
func RepsForIntensity(pct int) int {
	for _, row := range intensityReps {
		if pct >= row.intensity {
			return row.reps
		}
	}
	return 20
}

// PercentageTemplate is a single working set at pct percent of max.
func PercentageTemplate(pct int) Template {
	return Template{
		Name: "Percentage",
		Entries: []SetEntry{
			{Reps: RepsForIntensity(pct), Percent: Of(float64(pct) / 100)},
		},
	}
}

// Round rounds weight to the nearest multiple of unit.
func Round(weight, unit float64) float64 {
	return math.Round(weight/unit) * unit
}
