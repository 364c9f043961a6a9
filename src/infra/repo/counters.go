package repo

import "mindscale/src/core/domain"

type counters struct {
	wins         int
	losses       int
	eliminations int
}

// countersFor maps one player's result to the increments applied to their
// rows. Every non-winner collects a loss, aborted games included.
func countersFor(p domain.PlayerResult) counters {
	var c counters
	if p.Won {
		c.wins = 1
	} else {
		c.losses = 1
	}
	if p.Eliminated {
		c.eliminations = 1
	}
	return c
}

func winnerID(res domain.GameResult) *int64 {
	if len(res.WinnerIDs) == 0 {
		return nil
	}
	id := res.WinnerIDs[0]
	return &id
}
