package matchmaking

import "github.com/vogiaan1904/courtside-queue/internal/models"

type score struct {
	spread  int
	clashes int
}

func (s score) less(o score) bool {
	if s.spread != o.spread {
		return s.spread < o.spread
	}
	return s.clashes < o.clashes
}

// exhaustiveAssignment tries every split that honours the team sizes. Assignments are
// visited in lexicographic order, so on equal scores the earliest one (earlier players on
// lower teams) is kept.
func exhaustiveAssignment(promoted []models.Participant, sizes []int) []int {
	k := len(sizes)
	n := len(promoted)

	current := make([]int, n)
	remaining := append([]int(nil), sizes...)
	sums := make([]int, k)

	var (
		best      []int
		bestScore score
	)

	var walk func(i int)
	walk = func(i int) {
		if i == n {
			s := score{
				spread:  sumSpread(sums),
				clashes: styleClashes(promoted, current, k),
			}
			if best == nil || s.less(bestScore) {
				best = append(best[:0], current...)
				bestScore = s
			}
			return
		}
		for team := range k {
			if remaining[team] == 0 {
				continue
			}
			current[i] = team
			remaining[team]--
			sums[team] += promoted[i].SkillRating
			walk(i + 1)
			sums[team] -= promoted[i].SkillRating
			remaining[team]++
		}
	}
	walk(0)

	return best
}

func sumSpread(sums []int) int {
	lo, hi := sums[0], sums[0]
	for _, s := range sums[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	return hi - lo
}
