package results

import (
	"errors"
	"time"
)

var ErrInvalidResult = errors.New("invalid result entry")

// Result is a day's outcome for one game. Each half (open / close) is an
// independent patti+ank pair; empty string means not declared. The result is
// complete only when all four fields are set.
type Result struct {
	GameName   string
	Date       time.Time // date only, UTC midnight
	OpenPatti  string
	OpenAnk    string
	ClosePatti string
	CloseAnk   string
	UpdatedAt  time.Time
}

func (r Result) Complete() bool {
	return r.OpenPatti != "" && r.OpenAnk != "" && r.ClosePatti != "" && r.CloseAnk != ""
}

// Jodi is the two-digit concatenation of the open and close anks; empty
// until the result is complete.
func (r Result) Jodi() string {
	if !r.Complete() {
		return ""
	}
	return r.OpenAnk + r.CloseAnk
}

// Display renders the human-readable result string: "123-58-456" when
// complete, "123-5" with only the open half, "8-456" with only the close
// half.
func (r Result) Display() string {
	switch {
	case r.Complete():
		return r.OpenPatti + "-" + r.Jodi() + "-" + r.ClosePatti
	case r.OpenPatti != "" && r.OpenAnk != "":
		return r.OpenPatti + "-" + r.OpenAnk
	case r.ClosePatti != "" && r.CloseAnk != "":
		return r.CloseAnk + "-" + r.ClosePatti
	}
	return ""
}

// AnkOf derives the single-digit ank of a patti: sum of digits mod 10.
func AnkOf(patti string) string {
	sum := 0
	for _, d := range patti {
		sum += int(d - '0')
	}
	return string(rune('0' + sum%10))
}

// Entry is one admin result-entry action. Nil fields leave the stored value
// untouched; explicit empty strings clear it.
type Entry struct {
	GameName   string
	Date       time.Time
	OpenPatti  *string
	OpenAnk    *string
	ClosePatti *string
	CloseAnk   *string
}
