package matchmaking

import (
	"github.com/elliotchance/pie/v2"

	"github.com/vogiaan1904/courtside-queue/internal/models"
)

type Strategy string

const (
	StrategyFIFO       Strategy = "fifo"
	StrategyExhaustive Strategy = "exhaustive"
	StrategyGreedy     Strategy = "greedy"
)

const (
	DefaultTeamCount           = 2
	DefaultExhaustiveThreshold = 6
)

type Config struct {
	TeamCount int
	// ExhaustiveThreshold is the largest promoted batch searched exhaustively.
	ExhaustiveThreshold int
}

type Plan struct {
	Strategy Strategy      `json:"strategy"`
	Teams    []models.Team `json:"teams"`
	Spread   int           `json:"spread"`
}

// Planner splits a promoted batch into teams. Implementations must be deterministic.
type Planner interface {
	Plan(mode models.SessionMode, promoted []models.Participant) Plan
}

type planner struct {
	cfg Config
}

func NewPlanner(cfg Config) Planner {
	if cfg.TeamCount <= 0 {
		cfg.TeamCount = DefaultTeamCount
	}
	if cfg.ExhaustiveThreshold <= 0 {
		cfg.ExhaustiveThreshold = DefaultExhaustiveThreshold
	}
	return &planner{cfg: cfg}
}

func (p *planner) Plan(mode models.SessionMode, promoted []models.Participant) Plan {
	if len(promoted) == 0 {
		return Plan{Strategy: StrategyFIFO}
	}

	sizes := teamSizes(len(promoted), p.cfg.TeamCount)

	var (
		strategy Strategy
		assign   []int
	)
	switch {
	case mode != models.SessionModeCompetitive:
		strategy, assign = StrategyFIFO, fifoAssignment(sizes)
	case len(promoted) <= p.cfg.ExhaustiveThreshold:
		strategy, assign = StrategyExhaustive, exhaustiveAssignment(promoted, sizes)
	default:
		strategy, assign = StrategyGreedy, greedyAssignment(promoted, sizes)
	}

	teams := buildTeams(promoted, assign, len(sizes))
	return Plan{
		Strategy: strategy,
		Teams:    teams,
		Spread:   spread(teams),
	}
}

// teamSizes spreads n players over at most k teams, earlier teams taking the remainder.
func teamSizes(n, k int) []int {
	if n < k {
		k = n
	}
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = n / k
		if i < n%k {
			sizes[i]++
		}
	}
	return sizes
}

func fifoAssignment(sizes []int) []int {
	assign := make([]int, 0)
	for team, size := range sizes {
		for range size {
			assign = append(assign, team)
		}
	}
	return assign
}

// buildTeams keeps members of each team in promotion (FIFO) order.
func buildTeams(promoted []models.Participant, assign []int, k int) []models.Team {
	members := make([][]models.Participant, k)
	for i, team := range assign {
		members[team] = append(members[team], promoted[i])
	}

	teams := make([]models.Team, k)
	for i, ms := range members {
		teams[i] = models.Team{
			Index:          i,
			ParticipantIDs: pie.Map(ms, func(p models.Participant) string { return p.ID }),
			TotalSkill:     pie.Sum(pie.Map(ms, func(p models.Participant) int { return p.SkillRating })),
		}
	}
	return teams
}

func spread(teams []models.Team) int {
	if len(teams) == 0 {
		return 0
	}
	sums := pie.Map(teams, func(t models.Team) int { return t.TotalSkill })
	return pie.Max(sums) - pie.Min(sums)
}

// styleClashes counts members whose non-neutral play style is already present on their team.
func styleClashes(promoted []models.Participant, assign []int, k int) int {
	seen := make([]map[models.PlayStyle]bool, k)
	clashes := 0
	for i, team := range assign {
		style := promoted[i].PlayStyle
		if style == "" || style == models.PlayStyleAny {
			continue
		}
		if seen[team] == nil {
			seen[team] = make(map[models.PlayStyle]bool)
		}
		if seen[team][style] {
			clashes++
		}
		seen[team][style] = true
	}
	return clashes
}
