// Command explain replays one turn through the engine and prints everything
// it looked at: the board, the heatmap, the forbidden set, the path plan, the
// feature vector and the tier trace.
//
// The turn comes either from a saved /move request body (optionally zstd
// compressed) or from a decision archive file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/brensch/snekheat/api"
	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/config"
	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/heatmap"
	"github.com/brensch/snekheat/logging"
	"github.com/brensch/snekheat/pathing"
	"github.com/brensch/snekheat/store"
)

func main() {
	configPath := flag.String("config", config.GetEnvOrDefault("SNEK_CONFIG", "snekheat.yaml"), "Path to YAML config (missing file uses defaults)")
	requestPath := flag.String("request", "", "Saved /move request JSON (.zst accepted); - reads stdin")
	archivePath := flag.String("archive", "", "Decision archive parquet file")
	gameID := flag.String("game", "", "Game id to pick from -archive")
	turn := flag.Int("turn", -1, "Turn to pick from -archive (-1 = last)")
	timeout := flag.Duration("timeout", 300*time.Millisecond, "Decision deadline")
	verbose := flag.Bool("v", false, "Log engine internals at debug level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var state *game.GameState
	switch {
	case *requestPath != "":
		state, err = loadRequest(*requestPath)
	case *archivePath != "":
		state, err = loadArchived(*archivePath, *gameID, *turn)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("load turn: %v", err)
	}

	logger := logging.Discard()
	if *verbose {
		logger = logging.New(os.Stderr, logging.FormatPretty, slog.LevelDebug)
	}

	fmt.Printf("Turn %d  %dx%d  you=%s\n", state.Turn, state.Width, state.Height, state.YouID)
	fmt.Print(game.Render(state))

	b, err := game.NewBoard(state)
	if err != nil {
		fmt.Printf("\nSnapshot rejected: %v\nMove: up\n", err)
		return
	}

	opts := cfg.EngineOptions(nil, logger)
	explainBoard(b, opts)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	d := arbiter.New(opts).Decide(ctx, state)

	fmt.Println("\nTier trace:")
	for _, a := range d.Trace {
		if a.Err != nil {
			fmt.Printf("  %-10s error: %v (%s)\n", a.Tier, a.Err, a.Elapsed)
			continue
		}
		fmt.Printf("  %-10s %s (%s)\n", a.Tier, a.Move, a.Elapsed)
	}
	fmt.Printf("\nDecision: %s via %s", d.Move, d.Tier)
	if d.Overridden {
		fmt.Printf(" (safety override of %s)", d.Proposed)
	}
	fmt.Printf(" in %s\n", d.Elapsed)
}

func explainBoard(b *game.Board, opts arbiter.Options) {
	m := heatmap.NewBuilder(opts.Weights, opts.Logger).Build(b, b.Health())
	fmt.Printf("\nHeatmap (health %d):\n%s", b.Health(), m)

	head := b.You().Head()
	fmt.Print("Neighbour scores:")
	for _, dir := range game.Directions {
		p := head.Move(dir)
		if !b.InBounds(p) {
			continue
		}
		fmt.Printf("  %s=%d", dir, m.At(p))
	}
	fmt.Println()

	solver := pathing.NewSolver(opts.MinSpace, opts.Logger)
	plan, err := solver.Plan(b)
	if err != nil {
		fmt.Printf("\nPath: %v\n", err)
	} else {
		fmt.Printf("\nForbidden cells (%d): %s\n", plan.Forbidden.Len(), points(plan.Forbidden.Cells()))
		for _, c := range plan.Candidates {
			fmt.Printf("  goal %v via %v len=%d space=%d\n", c.Goal, c.First, c.PathLen, c.Space)
		}
		fmt.Printf("Path next: %v fallback=%v\n", plan.Next, plan.Fallback)
	}

	ex := &features.Extractor{Solver: solver, LookaheadDepth: opts.LookaheadDepth}
	v := ex.Extract(b)
	fmt.Printf("\nFeatures %s:\n", features.Version)
	for i, name := range features.Names {
		fmt.Printf("  %-26s %g\n", name, v[i])
	}
}

func points(ps []game.Point) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func loadRequest(path string) (*game.GameState, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var req api.GameRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return req.State(), nil
}

func loadArchived(path, gameID string, turn int) (*game.GameState, error) {
	rows, err := store.ReadDecisions(path)
	if err != nil {
		return nil, err
	}

	var pick *store.DecisionRow
	for i := range rows {
		r := &rows[i]
		if gameID != "" && r.GameID != gameID {
			continue
		}
		if turn >= 0 && int(r.Turn) != turn {
			continue
		}
		if pick == nil || r.Turn > pick.Turn {
			pick = r
		}
	}
	if pick == nil {
		return nil, fmt.Errorf("no row for game=%q turn=%d in %s", gameID, turn, path)
	}
	if len(pick.State) == 0 {
		return nil, fmt.Errorf("row for game=%q turn=%d has no state (tier %s)", pick.GameID, pick.Turn, pick.Tier)
	}
	fmt.Printf("Archived decision: %s via %s\n", pick.Move, pick.Tier)
	return store.DecodeRawStateJSON(pick.State)
}
