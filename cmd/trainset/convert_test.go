package main

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/store"
)

func decisionRow(t *testing.T, turn int, tier string, move game.Direction, overridden bool) store.DecisionRow {
	t.Helper()
	st := &game.GameState{
		Width: 11, Height: 11, YouID: "me", Turn: turn,
		Snakes: []game.Snake{
			{ID: "me", Health: 90, Body: []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}}},
		},
		Food: []game.Point{{X: 2, Y: 2}},
	}
	b, err := game.NewBoard(st)
	require.NoError(t, err)
	d := arbiter.Decision{Move: move, Proposed: move, Tier: tier, Overridden: overridden, Board: b}
	row, err := store.NewDecisionRow("g1", "arena", st, d, nil)
	require.NoError(t, err)
	return row
}

func writeShard(t *testing.T, dir string, rows []store.DecisionRow) string {
	t.Helper()
	sh, err := store.OpenShard(dir)
	require.NoError(t, err)
	require.NoError(t, sh.AddGame(rows[0].GameID, rows))
	info, err := sh.Commit()
	require.NoError(t, err)
	return info.Path
}

func TestLabelIndex(t *testing.T) {
	assert.Equal(t, int32(0), labelIndex("down"))
	assert.Equal(t, int32(3), labelIndex("up"))
	assert.Equal(t, int32(-1), labelIndex("sideways"))
}

func TestConvertOne_FiltersAndLabels(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	stale := decisionRow(t, 3, arbiter.TierHeatmap, game.Left, false)
	stale.FeatureVersion = "v0"
	stale.Features = []float32{1, 2}

	shard := writeShard(t, in, []store.DecisionRow{
		decisionRow(t, 0, arbiter.TierHeatmap, game.Up, false),
		decisionRow(t, 1, arbiter.TierClassifier, game.Up, false),
		decisionRow(t, 2, arbiter.TierPath, game.Right, true),
		stale,
	})

	outPath := filepath.Join(out, "x.train.parquet")
	st, err := convertOne(shard, outPath, filter{tiers: []string{arbiter.TierHeatmap, arbiter.TierPath}, skipOverridden: true}, &features.Extractor{})
	require.NoError(t, err)
	assert.Equal(t, 4, st.read)
	assert.Equal(t, 2, st.written)
	assert.Equal(t, 1, st.refeaturized)
	assert.Equal(t, 2, st.skipped)

	rows, err := parquet.ReadFile[TrainingRow](outPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, labelIndex("up"), rows[0].Label)
	assert.Equal(t, labelIndex("left"), rows[1].Label)
	for _, r := range rows {
		assert.Len(t, r.Features, features.Count)
		assert.Equal(t, features.Version, r.FeatureVersion)
	}
}

func TestConvertOne_NothingKeptWritesNothing(t *testing.T) {
	in := t.TempDir()
	shard := writeShard(t, in, []store.DecisionRow{decisionRow(t, 0, arbiter.TierDefault, game.Up, false)})

	outPath := filepath.Join(t.TempDir(), "x.train.parquet")
	st, err := convertOne(shard, outPath, filter{tiers: []string{arbiter.TierHeatmap}}, &features.Extractor{})
	require.NoError(t, err)
	assert.Equal(t, 0, st.written)
	assert.NoFileExists(t, outPath)
}

func TestFindInputsSkipsTmp(t *testing.T) {
	in := t.TempDir()
	shard := writeShard(t, in, []store.DecisionRow{decisionRow(t, 0, arbiter.TierHeatmap, game.Up, false)})

	inputs := findInputs(in)
	assert.Equal(t, []string{shard}, inputs)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"heatmap", "path"}, splitList(" heatmap, ,path"))
	assert.Nil(t, splitList(""))
}
