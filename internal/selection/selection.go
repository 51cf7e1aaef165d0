package selection

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/y-ogi/photos2videos/internal/analysis"
)

// ErrNoCandidates means no usable clip could be cut from the inputs.
var ErrNoCandidates = errors.New("no usable clip candidates")

// Candidate is one possible clip cut from a source file.
type Candidate struct {
	File     string
	Start    time.Duration
	Duration time.Duration
	// Score is the raw visual interest in [0,1]; unused in random mode.
	Score   float64
	Profile analysis.Profile
}

// Source is one readable input file available to random mode.
type Source struct {
	File     string
	Duration time.Duration
}

// Random cuts count = total/clip slots, each from a uniformly chosen
// file at a uniformly chosen start offset. Clips never run past the
// end of their file; files shorter than the clip length are used whole.
func Random(rng *rand.Rand, sources []Source, clip, total time.Duration) ([]Candidate, error) {
	if clip <= 0 {
		return nil, fmt.Errorf("clip duration must be positive, got %s", clip)
	}
	if len(sources) == 0 {
		return nil, ErrNoCandidates
	}

	count := int(total / clip)
	if count <= 0 {
		return nil, fmt.Errorf("total duration %s is shorter than one clip (%s)", total, clip)
	}

	picks := make([]Candidate, 0, count)
	for i := 0; i < count; i++ {
		src := sources[rng.Intn(len(sources))]

		dur := clip
		if src.Duration < dur {
			dur = src.Duration
		}
		maxStart := src.Duration - dur
		var start time.Duration
		if maxStart > 0 {
			start = time.Duration(rng.Int63n(int64(maxStart)))
		}

		picks = append(picks, Candidate{
			File:     src.File,
			Start:    start,
			Duration: dur,
		})
	}
	return picks, nil
}

// Greedy repeatedly takes the candidate with the highest effective
// score until the accumulated duration reaches total or the pool runs
// out. Effective score is the raw score damped by how closely the
// candidate resembles what is already picked:
//
//	effective = score * (1 - diversity*similarity)
//
// so diversity 0 ranks purely by score and diversity 1 zeroes out
// near-duplicates. Ties keep the earliest candidate in pool order.
func Greedy(pool []Candidate, total time.Duration, diversity float64) ([]Candidate, error) {
	if len(pool) == 0 {
		return nil, ErrNoCandidates
	}
	if total <= 0 {
		return nil, fmt.Errorf("total duration must be positive, got %s", total)
	}
	if diversity < 0 {
		diversity = 0
	} else if diversity > 1 {
		diversity = 1
	}

	used := make([]bool, len(pool))
	var picked []Candidate
	var profiles []analysis.Profile
	var accumulated time.Duration

	for accumulated < total {
		best := -1
		bestScore := -1.0
		for i, c := range pool {
			if used[i] {
				continue
			}
			eff := c.Score * (1 - analysis.DiversityPenalty(c.Profile, profiles, diversity))
			if eff > bestScore {
				best = i
				bestScore = eff
			}
		}
		if best == -1 {
			break
		}

		used[best] = true
		picked = append(picked, pool[best])
		profiles = append(profiles, pool[best].Profile)
		accumulated += pool[best].Duration
	}

	return picked, nil
}

// TotalDuration sums the durations of the picked clips.
func TotalDuration(picks []Candidate) time.Duration {
	var total time.Duration
	for _, p := range picks {
		total += p.Duration
	}
	return total
}
