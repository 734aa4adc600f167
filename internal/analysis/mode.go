package analysis

import "fmt"

// Mode selects which analysis is performed on an image
type Mode int

const (
	ModeShelf Mode = iota
	ModeNavigation
	ModeOCR
)

var modeNames = map[Mode]string{
	ModeShelf:      "shelf",
	ModeNavigation: "navigation",
	ModeOCR:        "ocr",
}

// Modes returns every supported analysis mode
func Modes() []Mode {
	return []Mode{ModeShelf, ModeNavigation, ModeOCR}
}

// String returns the wire name of the mode
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ResultLabel is the JSON field the result text is reported under
func (m Mode) ResultLabel() string {
	if m == ModeOCR {
		return "text"
	}
	return "analysis"
}

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode converts a wire name back into a Mode
func ParseMode(name string) (Mode, error) {
	for mode, n := range modeNames {
		if n == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown analysis mode: %q", name)
}

// Result is the outcome of a successful analysis
type Result struct {
	Mode  Mode     `json:"-"`
	Text  string   `json:"text"`
	Hints []string `json:"hints,omitempty"`
}
