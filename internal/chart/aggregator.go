package chart

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Aggregator folds completed daily results into the weekly chart.
type Aggregator struct {
	Log   *zap.Logger
	Store Store
}

func NewAggregator(log *zap.Logger, store Store) *Aggregator {
	return &Aggregator{Log: log, Store: store}
}

// RecordCompleteResult upserts the chart cell for one completed result.
// Callers invoke it only once a result has both halves; jodi is the two
// digit concatenation of the open and close anks.
func (a *Aggregator) RecordCompleteResult(ctx context.Context, gameName string, resultDate time.Time, openPanna, jodi, closePanna string) (Row, error) {
	start, _, weekNumber, year := WeekBucket(resultDate)

	row := Row{
		GameName:   gameName,
		Date:       truncateDay(resultDate),
		Weekday:    resultDate.Weekday().String(),
		WeekNumber: weekNumber,
		Year:       year,
		OpenPanna:  openPanna,
		Jodi:       jodi,
		ClosePanna: closePanna,
	}
	if err := a.Store.Upsert(ctx, row); err != nil {
		return Row{}, fmt.Errorf("chart upsert: %w", err)
	}

	a.Log.Info("chart row recorded",
		zap.String("game", gameName),
		zap.String("date", row.Date.Format("2006-01-02")),
		zap.String("week_start", start.Format("2006-01-02")),
		zap.Int("week", weekNumber),
		zap.Int("year", year),
	)
	return row, nil
}

// WeeksForGame groups every recorded row into week buckets, oldest week
// first, with a Monday..Saturday slot per day.
func (a *Aggregator) WeeksForGame(ctx context.Context, gameName string) ([]Week, error) {
	rows, err := a.Store.RowsForGame(ctx, gameName)
	if err != nil {
		return nil, fmt.Errorf("chart rows: %w", err)
	}

	type key struct{ year, number int }
	weeks := make(map[key]*Week)
	for i := range rows {
		r := rows[i]
		start, end, number, year := WeekBucket(r.Date)
		k := key{year, number}
		w, ok := weeks[k]
		if !ok {
			w = &Week{Year: year, Number: number, Start: start, End: end}
			weeks[k] = w
		}
		slot := int(r.Date.Weekday()) - 1 // Monday=0 .. Saturday=5
		if slot < 0 || slot > 5 {
			// Sunday rows belong to the bucket but have no rendered column
			continue
		}
		w.Days[slot] = &r
	}

	out := make([]Week, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
