// Package difficulty names the game's difficulty settings.
package difficulty

import "strings"

type Difficulty string

const (
	Easy   = Difficulty("easy")
	Medium = Difficulty("medium")
	Hard   = Difficulty("hard")
)

// All lists the difficulties from easiest to hardest.
var All = []Difficulty{Easy, Medium, Hard}

// Parse maps a user supplied name to a Difficulty. Unknown or empty values fall
// back to Medium.
func Parse(s string) Difficulty {
	d, ok := Lookup(s)
	if !ok {
		return Medium
	}
	return d
}

// Lookup reports whether s names a known difficulty. Comparison ignores case and
// surrounding whitespace.
func Lookup(s string) (Difficulty, bool) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy, true
	case Medium:
		return Medium, true
	case Hard:
		return Hard, true
	}
	return "", false
}

func (d Difficulty) String() string {
	return string(d)
}

// Label is the capitalised name shown to players.
func (d Difficulty) Label() string {
	switch d {
	case Easy:
		return "Easy"
	case Hard:
		return "Hard"
	default:
		return "Medium"
	}
}
