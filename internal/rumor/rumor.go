package rumor

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultMaxPrints is the print allowance assigned when a rumor is created
// without an explicit max_prints value.
const DefaultMaxPrints = 5

// Rumor is one curated entry in the registry. Field names follow the wire
// and storage format, which share the same JSON shape.
type Rumor struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	TextNL       string `json:"text_nl"`
	TextEN       string `json:"text_en"`
	People       string `json:"people"`
	Active       bool   `json:"active"`
	MaxPrints    int    `json:"max_prints"`
	PrintedCount int    `json:"printed_count"`
}

// Eligible reports whether the rumor may still be selected for printing.
func (r Rumor) Eligible() bool {
	return r.Active && r.PrintedCount < r.MaxPrints
}

// MatchesPerson reports whether needle matches one of the names in the
// rumor's comma-separated people list. Matching is case-folded substring
// matching within each entry; an empty needle matches every rumor.
func (r Rumor) MatchesPerson(needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	folded := cases.Fold().String(needle)
	for _, entry := range strings.Split(r.People, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(cases.Fold().String(entry), folded) {
			return true
		}
	}
	return false
}

// Patch carries optional field values for create and update payloads. Nil
// pointers mean the field was absent from the request; update leaves such
// fields untouched, while create rejects payloads missing required fields.
// The rumor id and printed count are never writable through a Patch.
type Patch struct {
	Title     *string `json:"title"`
	TextNL    *string `json:"text_nl"`
	TextEN    *string `json:"text_en"`
	People    *string `json:"people"`
	Active    *bool   `json:"active"`
	MaxPrints *int    `json:"max_prints"`
}

// complete reports whether every field required to create a rumor is present.
func (p Patch) complete() bool {
	return p.Title != nil && p.TextNL != nil && p.TextEN != nil && p.People != nil && p.Active != nil
}

func (p Patch) applyTo(r *Rumor) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.TextNL != nil {
		r.TextNL = *p.TextNL
	}
	if p.TextEN != nil {
		r.TextEN = *p.TextEN
	}
	if p.People != nil {
		r.People = *p.People
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
	if p.MaxPrints != nil {
		r.MaxPrints = clampMaxPrints(*p.MaxPrints)
	}
}

func clampMaxPrints(value int) int {
	if value < 1 {
		return 1
	}
	return value
}
