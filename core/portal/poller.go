package portal

import (
	"context"
	"time"

	"github.com/trezcool/marksboard/core/marks"
)

// RankPoller waits for the marks service to compute a rank.
// It re-fetches the record up to Attempts times, waiting Delay before the first fetch
// and multiplying the wait by Backoff after each unranked result.
type RankPoller struct {
	Delay    time.Duration
	Attempts int
	Backoff  float64
}

var DefaultRankPoller = RankPoller{Delay: 1500 * time.Millisecond, Attempts: 1, Backoff: 2}

type fetchFunc func(ctx context.Context) (marks.Record, error)

// Poll returns the first ranked record fetched, else the last non-empty one.
// It fails with the last fetch error (or ErrRankPending) when nothing usable was fetched,
// and with ctx.Err() when cancelled.
func (p RankPoller) Poll(ctx context.Context, fetch fetchFunc) (marks.Record, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var (
		last    marks.Record
		got     bool
		lastErr = ErrRankPending
	)
	for i := 0; i < attempts; i++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return marks.Record{}, ctx.Err()
		case <-timer.C:
		}

		rec, err := fetch(ctx)
		switch {
		case err != nil:
			lastErr = err
		case rec.Empty(): // nothing to show yet
			lastErr = ErrRankPending
		case rec.Ranked():
			return rec, nil
		default:
			last, got = rec, true
		}

		if p.Backoff > 1 {
			delay = time.Duration(float64(delay) * p.Backoff)
		}
	}
	if got {
		return last, nil
	}
	return marks.Record{}, lastErr
}
