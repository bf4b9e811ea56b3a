package chart

import (
	"context"
	"time"
)

// Row is one (game, date) cell of the weekly chart.
type Row struct {
	GameName   string
	Date       time.Time // date only, UTC midnight
	Weekday    string    // "Monday" .. "Saturday"
	WeekNumber int
	Year       int // year of the week's Monday, not of Date
	OpenPanna  string
	Jodi       string
	ClosePanna string
}

// Week is the read-side grouping: Monday..Saturday slots, present-or-nil so
// a renderer can show blanks for days without a recorded result.
type Week struct {
	Year   int
	Number int
	Start  time.Time // Monday
	End    time.Time // Saturday
	Days   [6]*Row
}

type Store interface {
	// Upsert is keyed by (game, date); repeated entry for the same day
	// overwrites only that day's result fields.
	Upsert(ctx context.Context, r Row) error
	RowsForGame(ctx context.Context, gameName string) ([]Row, error)
}

// WeekBucket computes the owning Monday-Saturday bucket for a result date.
// Sunday counts as the end of the preceding bucket (offset -6, not +1). The
// week number and year anchor to the Monday, so a late-December date whose
// Monday falls in the prior year lands in that year's last week rather than
// week 1 of the next.
func WeekBucket(date time.Time) (start, end time.Time, weekNumber, year int) {
	date = truncateDay(date)
	weekday := int(date.Weekday()) // 0=Sunday .. 6=Saturday
	mondayOffset := -(weekday - 1)
	if weekday == 0 {
		mondayOffset = -6
	}
	start = date.AddDate(0, 0, mondayOffset)
	end = start.AddDate(0, 0, 5)
	weekNumber = ((start.YearDay() - 1) / 7) + 1
	year = start.Year()
	return start, end, weekNumber, year
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
