// Package model defines the incident, window, and paging types shared by the filtering pipeline.
package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a normalized crime or emergency type label.
type Category string

const (
	CategoryMurder     Category = "murder"
	CategoryTheft      Category = "theft"
	CategoryCarnapping Category = "carnapping"
	CategoryHomicide   Category = "homicide"
	CategoryInjury     Category = "injury"
	CategoryRobbery    Category = "robbery"
	CategoryRape       Category = "rape"
	CategoryArson      Category = "arson"
	CategoryFire       Category = "fire"
	CategoryAssault    Category = "assault"

	// CategoryUnknown preserves records whose label is not in the fixed set.
	CategoryUnknown Category = "unknown"
)

// Categories returns the known categories in display order. CategoryUnknown is not included.
func Categories() []Category {
	return []Category{
		CategoryMurder,
		CategoryTheft,
		CategoryCarnapping,
		CategoryHomicide,
		CategoryInjury,
		CategoryRobbery,
		CategoryRape,
		CategoryArson,
		CategoryFire,
		CategoryAssault,
	}
}

var knownCategories = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(Categories()))
	for _, c := range Categories() {
		m[c] = struct{}{}
	}
	return m
}()

var titleCaser = cases.Title(language.English)

// ParseCategory lower-cases s and matches it against the fixed set.
// Unrecognized or empty labels map to CategoryUnknown.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownCategories[c]; ok {
		return c
	}
	return CategoryUnknown
}

// IsKnown reports whether c is a member of the fixed set.
func (c Category) IsKnown() bool {
	_, ok := knownCategories[c]
	return ok
}

// Title returns the display label ("theft" -> "Theft").
func (c Category) Title() string {
	return titleCaser.String(string(c))
}

func (c Category) String() string { return string(c) }
