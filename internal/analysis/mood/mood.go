package mood

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is one of the five mood labels, ordered most negative to most
// positive.
type Category string

const (
	Awful Category = "awful"
	Bad   Category = "bad"
	Okay  Category = "okay"
	Good  Category = "good"
	Great Category = "great"
)

// Categories lists the fixed label set in order.
var Categories = []Category{Awful, Bad, Okay, Good, Great}

// Intensity bounds for a classification.
const (
	MinIntensity = 1
	MaxIntensity = 5
)

// Classification is the per-day mood record: a category plus how strongly it
// applied.
type Classification struct {
	Category  Category `json:"category"`
	Intensity int      `json:"intensity"`
}

// ParseCategory validates a label against the fixed set, case-insensitively.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case Awful:
		return Awful, true
	case Bad:
		return Bad, true
	case Okay:
		return Okay, true
	case Good:
		return Good, true
	case Great:
		return Great, true
	default:
		return "", false
	}
}

// ParseClassification parses model output of the form "<category>, <intensity>".
// Split on the first comma, trim both parts, validate the label against the
// fixed set and the intensity against [1,5]. Anything else is an error and the
// result is discarded by the caller.
func ParseClassification(raw string) (Classification, error) {
	label, rest, found := strings.Cut(raw, ",")
	if !found {
		return Classification{}, fmt.Errorf("missing comma separator in %q", raw)
	}

	category, ok := ParseCategory(label)
	if !ok {
		return Classification{}, fmt.Errorf("unknown mood category %q", strings.TrimSpace(label))
	}

	intensity, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return Classification{}, fmt.Errorf("invalid intensity %q: %w", strings.TrimSpace(rest), err)
	}
	if intensity < MinIntensity || intensity > MaxIntensity {
		return Classification{}, fmt.Errorf("intensity %d out of range [%d,%d]", intensity, MinIntensity, MaxIntensity)
	}

	return Classification{Category: category, Intensity: intensity}, nil
}

// Color maps a category to the calendar marker color.
func Color(c Category) string {
	switch c {
	case Awful:
		return "red"
	case Bad:
		return "pink"
	case Okay:
		return "lightblue"
	case Good:
		return "lightgreen"
	case Great:
		return "green"
	default:
		return "transparent"
	}
}
