package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
)

type envelope struct {
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

type session struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	WaitingCount int    `json:"waiting_count"`
	CurrentMatch *struct {
		ID             string   `json:"id"`
		ParticipantIDs []string `json:"participant_ids"`
	} `json:"current_match"`
}

type participant struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Position int    `json:"position"`
}

var (
	baseURL      = flag.String("url", "http://localhost:8080/api/v1", "Court queue API base URL")
	courtID      = flag.String("court", "demo-court", "Court ID")
	numPlayers   = flag.Int("players", 24, "Number of players to queue")
	maxPlayers   = flag.Int("max-players", 4, "Players per match")
	competitive  = flag.Bool("competitive", false, "Create a competitive session (players are approved on join)")
	prepay       = flag.Bool("prepay", false, "Require prepayment (players pay on join)")
	unpaidRate   = flag.Float64("unpaid-rate", 0.1, "Probability a player never pays when prepayment is required (0.0-1.0)")
	leaveRate    = flag.Float64("leave-rate", 0.05, "Probability a waiting player leaves per match (0.0-1.0)")
	matchLength  = flag.Duration("match-length", 5*time.Second, "Simulated match duration")
	sessionLength = flag.Duration("duration", 2*time.Hour, "Session length")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &http.Client{Timeout: 10 * time.Second}

	mode := "casual"
	if *competitive {
		mode = "competitive"
	}
	now := time.Now().UTC()
	var sess session
	if err := call(ctx, cli, http.MethodPost, "/sessions", map[string]any{
		"court_id":            *courtID,
		"organizer_id":        "demo-organizer",
		"start_time":          now.Format("2006-01-02T15:04:05Z"),
		"end_time":            now.Add(*sessionLength).Format("2006-01-02T15:04:05Z"),
		"mode":                mode,
		"max_players":         *maxPlayers,
		"requires_prepayment": *prepay,
	}, &sess); err != nil {
		fmt.Printf("❌ Failed to create session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Session %s created (%s, %d per match)\n", sess.ID, mode, *maxPlayers)

	players := joinPlayers(ctx, cli, sess.ID)
	fmt.Printf("✅ %d players queued\n", len(players))
	fmt.Printf("\n🎬 Running matches every %v, press Ctrl+C to stop\n\n", *matchLength)

	runSimulation(ctx, cli, sess.ID, players)
}

func joinPlayers(ctx context.Context, cli *http.Client, sessionID string) []participant {
	players := make([]participant, 0, *numPlayers)
	for i := 0; i < *numPlayers; i++ {
		var p participant
		err := call(ctx, cli, http.MethodPost, "/sessions/"+sessionID+"/participants", map[string]any{
			"user_id":      "demo-" + uuid.NewString()[:8],
			"skill_rating": rand.Intn(11),
			"play_style":   []string{"any", "attacking", "defensive"}[rand.Intn(3)],
		}, &p)
		if err != nil {
			fmt.Printf("❌ Join failed: %v\n", err)
			continue
		}

		base := "/sessions/" + sessionID + "/participants/" + p.ID
		if *competitive {
			_ = call(ctx, cli, http.MethodPost, base+"/approval", nil, nil)
		}
		if *prepay && rand.Float64() >= *unpaidRate {
			_ = call(ctx, cli, http.MethodPost, base+"/payment", nil, nil)
		}
		players = append(players, p)
	}
	return players
}

func runSimulation(ctx context.Context, cli *http.Client, sessionID string, players []participant) {
	ticker := time.NewTicker(*matchLength)
	defer ticker.Stop()

	for {
		var sess session
		if err := call(ctx, cli, http.MethodGet, "/sessions/"+sessionID, nil, &sess); err != nil {
			fmt.Printf("❌ Failed to read session: %v\n", err)
			return
		}
		if sess.Status == "closed" {
			fmt.Println("🏁 Session closed")
			return
		}

		if sess.CurrentMatch == nil {
			var rot struct {
				Promoted bool `json:"promoted"`
			}
			if err := call(ctx, cli, http.MethodPost, "/sessions/"+sessionID+"/rotate", nil, &rot); err != nil {
				fmt.Printf("❌ Rotate failed: %v\n", err)
			} else if !rot.Promoted {
				fmt.Printf("⏸️  Not enough admissible players (%d waiting)\n", sess.WaitingCount)
			}
		} else {
			team := rand.Intn(2)
			var rot struct {
				Promoted bool `json:"promoted"`
			}
			err := call(ctx, cli, http.MethodPost, "/matches/"+sess.CurrentMatch.ID+"/result", map[string]any{
				"winning_team": team,
				"score":        fmt.Sprintf("21-%d", 10+rand.Intn(10)),
			}, &rot)
			if err != nil {
				fmt.Printf("❌ Report failed: %v\n", err)
			} else {
				fmt.Printf("🏸 Match %s won by team %d, next match started: %v (%d waiting)\n",
					sess.CurrentMatch.ID[:8], team, rot.Promoted, sess.WaitingCount)
			}
		}

		for _, p := range players {
			if rand.Float64() < *leaveRate {
				if err := call(ctx, cli, http.MethodDelete, "/sessions/"+sessionID+"/participants/"+p.ID, nil, nil); err == nil {
					fmt.Printf("👋 %s left\n", p.UserID)
				}
			}
		}

		select {
		case <-ctx.Done():
			fmt.Println("\n🛑 Simulation stopped")
			return
		case <-ticker.C:
		}
	}
}

func call(ctx context.Context, cli *http.Client, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, *baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", env.ErrorCode, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
