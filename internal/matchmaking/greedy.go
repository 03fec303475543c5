package matchmaking

import (
	"sort"

	"github.com/vogiaan1904/courtside-queue/internal/models"
)

// greedyAssignment places players strongest first onto the lightest team that still has
// room. Equal ratings keep FIFO order and equal team sums resolve to the lower index.
func greedyAssignment(promoted []models.Participant, sizes []int) []int {
	order := make([]int, len(promoted))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return promoted[order[a]].SkillRating > promoted[order[b]].SkillRating
	})

	remaining := append([]int(nil), sizes...)
	sums := make([]int, len(sizes))
	assign := make([]int, len(promoted))

	for _, idx := range order {
		target := -1
		for team := range sizes {
			if remaining[team] == 0 {
				continue
			}
			if target == -1 || sums[team] < sums[target] {
				target = team
			}
		}
		assign[idx] = target
		remaining[target]--
		sums[target] += promoted[idx].SkillRating
	}

	return assign
}
