package settlement

import "strings"

// BetType names the market a wager is placed on. Selection shape depends on
// the type: a single ank is one digit, a jodi two digits, a patti three
// digits, and the sangams are composite "x/y" entries combining an ank with
// a patti (half) or two pattis (full).
type BetType string

const (
	SingleAnk   BetType = "single_ank"
	Jodi        BetType = "jodi"
	SinglePatti BetType = "single_patti"
	DoublePatti BetType = "double_patti"
	TriplePatti BetType = "triple_patti"
	HalfSangam  BetType = "half_sangam"
	FullSangam  BetType = "full_sangam"
)

// SingleCombination reports whether the type takes exactly one inseparable
// selection billed at a flat amount.
func (b BetType) SingleCombination() bool {
	switch b {
	case TriplePatti, HalfSangam, FullSangam:
		return true
	}
	return false
}

func (b BetType) Known() bool {
	switch b {
	case SingleAnk, Jodi, SinglePatti, DoublePatti, TriplePatti, HalfSangam, FullSangam:
		return true
	}
	return false
}

// ValidSelection checks the shape of one selection string for this type.
func (b BetType) ValidSelection(s string) bool {
	switch b {
	case SingleAnk:
		return allDigits(s) && len(s) == 1
	case Jodi:
		return allDigits(s) && len(s) == 2
	case SinglePatti, DoublePatti, TriplePatti:
		return allDigits(s) && len(s) == 3
	case HalfSangam:
		// ank on one side, patti on the other
		left, right, ok := splitSangam(s)
		if !ok {
			return false
		}
		return (len(left) == 1 && len(right) == 3) || (len(left) == 3 && len(right) == 1)
	case FullSangam:
		left, right, ok := splitSangam(s)
		return ok && len(left) == 3 && len(right) == 3
	}
	return false
}

func splitSangam(s string) (left, right string, ok bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || !allDigits(parts[0]) || !allDigits(parts[1]) {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
