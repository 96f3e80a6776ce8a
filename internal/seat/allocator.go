// Package seat assigns seat labels when a passenger books without choosing one.
//
// Labels have the form {prefix}{row}{column}: the prefix encodes the fare
// class (B business, F first, E everything else), rows run 1..50 and columns
// A..F, giving 300 candidates per class.
package seat

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	// Rows is the number of seat rows enumerated per class.
	Rows = 50
	// Columns are the seat letters in each row, left to right.
	Columns = "ABCDEF"
	// PerClass is the size of the candidate space for one class.
	PerClass = Rows * len(Columns)
)

// Source supplies randomness for the exhausted-space fallback.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Allocator picks the first free seat in row-major order.
type Allocator struct {
	rnd Source
}

// NewAllocator returns an Allocator using src for the fallback path.
// A nil src uses the process-wide generator.
func NewAllocator(src Source) *Allocator {
	if src == nil {
		src = globalSource{}
	}
	return &Allocator{rnd: src}
}

// Prefix returns the seat label prefix for a fare class.
func Prefix(class string) string {
	switch strings.ToLower(strings.TrimSpace(class)) {
	case "business":
		return "B"
	case "first":
		return "F"
	default:
		return "E"
	}
}

// Label formats a seat label. row is 1-based, col is an index into Columns.
func Label(prefix string, row, col int) string {
	return prefix + strconv.Itoa(row) + Columns[col:col+1]
}

// Candidates returns every label for class in allocation order.
func Candidates(class string) []string {
	prefix := Prefix(class)
	out := make([]string, 0, PerClass)
	for row := 1; row <= Rows; row++ {
		for col := range len(Columns) {
			out = append(out, Label(prefix, row, col))
		}
	}
	return out
}

// Next returns the first candidate for class that is not in taken.
//
// When all candidates are taken it returns a random row and column without
// checking availability; the storage uniqueness constraint rejects a real
// collision.
func (a *Allocator) Next(class string, taken map[string]struct{}) string {
	prefix := Prefix(class)
	for row := 1; row <= Rows; row++ {
		for col := range len(Columns) {
			label := Label(prefix, row, col)
			if _, ok := taken[label]; !ok {
				return label
			}
		}
	}
	return Label(prefix, a.rnd.IntN(Rows)+1, a.rnd.IntN(len(Columns)))
}

// Valid reports whether label names a seat of class: the class prefix, a row
// in 1..Rows without leading zeros, then one of Columns. label must already
// be normalized.
func Valid(label, class string) bool {
	prefix := Prefix(class)
	if len(label) < len(prefix)+2 || !strings.HasPrefix(label, prefix) {
		return false
	}
	col := label[len(label)-1:]
	if !strings.Contains(Columns, col) {
		return false
	}
	digits := label[len(prefix) : len(label)-1]
	if digits[0] < '1' || digits[0] > '9' {
		return false
	}
	row, err := strconv.ParseUint(digits, 10, 8)
	return err == nil && row <= Rows
}

// Normalize canonicalizes a caller-supplied seat label.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
