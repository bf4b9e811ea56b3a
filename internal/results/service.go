package results

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/internal/chart"
	"github.com/tanmay0100/Number-Game-sub001/pkg/contracts/events"
)

type Store interface {
	// Get returns the stored result or a zero Result when none exists yet.
	Get(ctx context.Context, gameName string, date time.Time) (Result, error)
	Upsert(ctx context.Context, r Result) error
}

// ChartRecorder is the slice of the chart aggregator the result service
// drives once a result completes.
type ChartRecorder interface {
	RecordCompleteResult(ctx context.Context, gameName string, resultDate time.Time, openPanna, jodi, closePanna string) (chart.Row, error)
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Service applies admin result entries. Halves merge without clobbering:
// recording open then close for a date converges to the same state as close
// then open.
type Service struct {
	Log    *zap.Logger
	Store  Store
	Charts ChartRecorder // optional
	Pub    Publisher     // optional
}

// RecordResult merges one entry into the stored result for (game, date),
// folds the result into the weekly chart once both halves are present, and
// announces the change to observers.
func (s *Service) RecordResult(ctx context.Context, e Entry) (Result, error) {
	if e.GameName == "" || e.Date.IsZero() {
		return Result{}, fmt.Errorf("%w: game and date required", ErrInvalidResult)
	}

	cur, err := s.Store.Get(ctx, e.GameName, e.Date)
	if err != nil {
		return Result{}, fmt.Errorf("load result: %w", err)
	}
	if cur.GameName == "" {
		cur = Result{GameName: e.GameName, Date: truncateDay(e.Date)}
	}

	if err := applyHalf(&cur.OpenPatti, &cur.OpenAnk, e.OpenPatti, e.OpenAnk); err != nil {
		return Result{}, fmt.Errorf("%w: open: %v", ErrInvalidResult, err)
	}
	if err := applyHalf(&cur.ClosePatti, &cur.CloseAnk, e.ClosePatti, e.CloseAnk); err != nil {
		return Result{}, fmt.Errorf("%w: close: %v", ErrInvalidResult, err)
	}
	cur.UpdatedAt = time.Now().UTC()

	if err := s.Store.Upsert(ctx, cur); err != nil {
		return Result{}, fmt.Errorf("store result: %w", err)
	}

	if cur.Complete() && s.Charts != nil {
		if _, err := s.Charts.RecordCompleteResult(ctx, cur.GameName, cur.Date, cur.OpenPatti, cur.Jodi(), cur.ClosePatti); err != nil {
			// the result itself is recorded; the chart cell can be rebuilt
			// from it on the next entry
			s.Log.Error("chart record failed",
				zap.String("game", cur.GameName), zap.Error(err))
		}
	}

	if s.Pub != nil {
		ev := events.ResultDeclared{
			GameName: cur.GameName,
			Date:     cur.Date.Format("2006-01-02"),
			Display:  cur.Display(),
			Complete: cur.Complete(),
		}
		if err := s.Pub.Publish(ctx, events.TypeResultDeclared, ev); err != nil {
			s.Log.Warn("result publish failed", zap.Error(err))
		}
	}

	return cur, nil
}

// applyHalf merges one patti+ank pair: nil leaves the stored value, empty
// string clears it, a value sets it. A patti set without an ank derives the
// ank from the digit sum; a supplied ank is taken as declared.
func applyHalf(patti, ank *string, newPatti, newAnk *string) error {
	if newPatti != nil {
		if *newPatti == "" {
			*patti = ""
		} else {
			if !validPatti(*newPatti) {
				return fmt.Errorf("patti %q must be three digits", *newPatti)
			}
			*patti = *newPatti
			if newAnk == nil {
				*ank = AnkOf(*newPatti)
			}
		}
	}
	if newAnk != nil {
		if *newAnk == "" {
			*ank = ""
		} else {
			if !validAnk(*newAnk) {
				return fmt.Errorf("ank %q must be one digit", *newAnk)
			}
			*ank = *newAnk
		}
	}
	return nil
}

func validPatti(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validAnk(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
