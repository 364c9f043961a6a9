// Package scoring evaluates one round of the contest.
//
// Evaluate is a pure function: it reads a snapshot of the alive players and
// the game's duplicate-rule state and returns every change the round causes.
// Applying the outcome to the game is the caller's job.
package scoring

import (
	"math"
	"sort"
)

// Rule constants.
const (
	TargetRatio        = 0.8
	EliminationScore   = -10
	DuplicateThreshold = 4

	DuplicatePenalty     = 1
	ZeroVsHundredPenalty = 1
	ExactTargetPenalty   = 2
	DefaultPenalty       = 1
)

// Path names the rule that decided winners and penalties of a round.
type Path string

const (
	PathDefault       Path = "default"
	PathZeroVsHundred Path = "zero_vs_hundred"
	PathExactTarget   Path = "exact_target"
)

// Entry is one alive player at resolution time. HasPick is false for a
// player who timed out this round.
type Entry struct {
	UserID  int64
	Score   int
	Pick    int
	HasPick bool
}

// Input is the round snapshot. Alive is in join order. Eliminated counts the
// players already out before this round's elimination sweep.
type Input struct {
	Alive      []Entry
	Eliminated int
	Sticky     bool
}

// Delta is the change a round applies to one player.
type Delta struct {
	UserID             int64
	Score              int
	Penalties          int
	DuplicatePenalized bool
	Winner             bool
	Eliminated         bool
}

// DuplicateRule is the duplicate-number verdict for a round.
type DuplicateRule struct {
	// Active is true when duplicates are penalized this round.
	Active bool
	// Numbers are the picks chosen more than once, ascending. Empty unless Active.
	Numbers []int
	// ArmSticky asks the caller to make the rule sticky from the next round.
	ArmSticky bool
	// ClearSticky asks the caller to drop the sticky flag now.
	ClearSticky bool
}

// Outcome is everything a round changes.
type Outcome struct {
	// NoPicks is set when nobody submitted a number; nothing else is filled.
	NoPicks bool

	Target        float64
	RoundedTarget int
	Counts        map[int]int
	Duplicate     DuplicateRule
	// DuplicatesPenalized is true when at least one duplicate penalty applied.
	DuplicatesPenalized bool
	Path                Path

	Winners    []int64
	Deltas     []Delta
	Eliminated []int64
	AliveAfter int
	GameOver   bool
}

// Delta returns the change for userID.
func (o Outcome) Delta(userID int64) (Delta, bool) {
	for _, d := range o.Deltas {
		if d.UserID == userID {
			return d, true
		}
	}
	return Delta{}, false
}

// EvalDuplicateRule decides the duplicate rule from the alive and eliminated
// counts, the current sticky flag and the pick histogram.
func EvalDuplicateRule(alive, eliminated int, sticky bool, counts map[int]int) DuplicateRule {
	var rule DuplicateRule
	if alive <= 2 && sticky {
		rule.ClearSticky = true
		sticky = false
	}

	if eliminated == 0 {
		for _, c := range counts {
			if c >= DuplicateThreshold {
				rule.ArmSticky = true
				break
			}
		}
	}

	rule.Active = (alive > 2 && eliminated >= 1) || sticky
	if rule.Active {
		for n, c := range counts {
			if c > 1 {
				rule.Numbers = append(rule.Numbers, n)
			}
		}
		sort.Ints(rule.Numbers)
	}
	return rule
}

// Target is 80% of the mean of picks. It panics on an empty slice.
func Target(picks []int) float64 {
	sum := 0
	for _, p := range picks {
		sum += p
	}
	return float64(sum) / float64(len(picks)) * TargetRatio
}

// Evaluate resolves one round.
func Evaluate(in Input) Outcome {
	out := Outcome{
		Deltas:     make([]Delta, len(in.Alive)),
		Counts:     make(map[int]int),
		Path:       PathDefault,
		AliveAfter: len(in.Alive),
	}

	var picks []int
	for i, e := range in.Alive {
		out.Deltas[i].UserID = e.UserID
		if e.HasPick {
			picks = append(picks, e.Pick)
			out.Counts[e.Pick]++
		}
	}
	if len(picks) == 0 {
		out.NoPicks = true
		out.GameOver = true
		return out
	}

	out.Target = Target(picks)
	// Half-to-even, matching how the rule was first published.
	out.RoundedTarget = int(math.RoundToEven(out.Target))

	penalized := make([]bool, len(in.Alive))
	penalize := func(i, points, count int) {
		out.Deltas[i].Score -= points
		out.Deltas[i].Penalties += count
		penalized[i] = true
	}
	exempt := func(i int) bool {
		return penalized[i] || !in.Alive[i].HasPick
	}

	// Duplicates.
	out.Duplicate = EvalDuplicateRule(len(in.Alive), in.Eliminated, in.Sticky, out.Counts)
	if out.Duplicate.Active && len(out.Duplicate.Numbers) > 0 {
		for i, e := range in.Alive {
			if e.HasPick && out.Counts[e.Pick] > 1 {
				penalize(i, DuplicatePenalty, 1)
				out.Deltas[i].DuplicatePenalized = true
				out.DuplicatesPenalized = true
			}
		}
	}

	// Closest to target; ties are co-winners.
	winners := make([]bool, len(in.Alive))
	best := math.Inf(1)
	for _, e := range in.Alive {
		if e.HasPick {
			best = math.Min(best, math.Abs(float64(e.Pick)-out.Target))
		}
	}
	for i, e := range in.Alive {
		if e.HasPick && math.Abs(float64(e.Pick)-out.Target) == best {
			winners[i] = true
		}
	}

	switch {
	case isZeroVsHundred(in.Alive):
		out.Path = PathZeroVsHundred
		for i, e := range in.Alive {
			winners[i] = e.Pick == 100
			if e.Pick == 0 && !exempt(i) {
				penalize(i, ZeroVsHundredPenalty, 1)
			}
		}
	case in.Eliminated >= 2 && !out.DuplicatesPenalized:
		exact := make([]bool, len(in.Alive))
		found := false
		for i, e := range in.Alive {
			if e.HasPick && e.Pick == out.RoundedTarget {
				exact[i] = true
				found = true
			}
		}
		if !found {
			break
		}
		out.Path = PathExactTarget
		winners = exact
		for i := range in.Alive {
			if !winners[i] && !exempt(i) {
				penalize(i, ExactTargetPenalty, ExactTargetPenalty)
			}
		}
	}

	if out.Path == PathDefault {
		for i := range in.Alive {
			if !winners[i] && !exempt(i) {
				penalize(i, DefaultPenalty, 1)
			}
		}
	}

	for i, e := range in.Alive {
		if winners[i] {
			out.Deltas[i].Winner = true
			out.Winners = append(out.Winners, e.UserID)
		}
		if e.Score+out.Deltas[i].Score <= EliminationScore {
			out.Deltas[i].Eliminated = true
			out.Eliminated = append(out.Eliminated, e.UserID)
			out.AliveAfter--
		}
	}
	out.GameOver = out.AliveAfter <= 1
	return out
}

func isZeroVsHundred(alive []Entry) bool {
	if len(alive) != 2 || !alive[0].HasPick || !alive[1].HasPick {
		return false
	}
	a, b := alive[0].Pick, alive[1].Pick
	return (a == 0 && b == 100) || (a == 100 && b == 0)
}
