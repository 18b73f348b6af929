package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/inference"
	"github.com/brensch/snekheat/store"
)

const schemaTrainingRow = "training_row_v1"

// TrainingRow is one labelled example for the move classifier. Label indexes
// inference.DefaultLabels.
type TrainingRow struct {
	GameID         string    `parquet:"game_id,dict"`
	Turn           int32     `parquet:"turn"`
	YouID          string    `parquet:"you_id,dict"`
	Features       []float32 `parquet:"features"`
	FeatureVersion string    `parquet:"feature_version,dict"`
	Label          int32     `parquet:"label"`
	Tier           string    `parquet:"tier,dict"`
	Source         string    `parquet:"source,dict"`
}

type filter struct {
	tiers          []string
	skipOverridden bool
}

func (f filter) keep(row *store.DecisionRow) bool {
	if f.skipOverridden && row.Overridden {
		return false
	}
	return len(f.tiers) == 0 || slices.Contains(f.tiers, row.Tier)
}

type convertStats struct {
	read         int
	written      int
	refeaturized int
	skipped      int
}

// labelIndex maps a move to its class. Unknown moves return -1.
func labelIndex(move string) int32 {
	return int32(slices.Index(inference.DefaultLabels, move))
}

// featuresFor returns the current-version vector for row, re-extracting from
// the stored snapshot when the row was written by an older extractor.
func featuresFor(row *store.DecisionRow, ex *features.Extractor) ([]float32, bool, error) {
	if row.FeatureVersion == features.Version && len(row.Features) == features.Count {
		return row.Features, false, nil
	}
	if len(row.State) == 0 {
		return nil, false, fmt.Errorf("no snapshot to re-featurize")
	}
	st, err := store.DecodeRawStateJSON(row.State)
	if err != nil {
		return nil, false, err
	}
	b, err := game.NewBoard(st)
	if err != nil {
		return nil, false, err
	}
	v := ex.Extract(b)
	return v.Slice(), true, nil
}

func convertOne(inPath, outPath string, f filter, ex *features.Extractor) (convertStats, error) {
	var stats convertStats

	inF, err := os.Open(inPath)
	if err != nil {
		return stats, err
	}
	defer inF.Close()

	reader := parquet.NewGenericReader[store.DecisionRow](inF)
	defer reader.Close()

	outTmp := outPath + ".tmp"
	_ = os.Remove(outTmp)
	outF, err := os.OpenFile(outTmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return stats, err
	}

	writer := parquet.NewGenericWriter[TrainingRow](
		outF,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	writer.SetKeyValueMetadata("schema", schemaTrainingRow)

	closed := false
	defer func() {
		if !closed {
			_ = writer.Close()
			_ = outF.Close()
			_ = os.Remove(outTmp)
		}
	}()

	buf := make([]store.DecisionRow, 256)
	outBuf := make([]TrainingRow, 0, 2048)

	flush := func() error {
		if len(outBuf) == 0 {
			return nil
		}
		if _, err := writer.Write(outBuf); err != nil {
			return err
		}
		stats.written += len(outBuf)
		outBuf = outBuf[:0]
		return nil
	}

	for {
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			row := &buf[i]
			stats.read++
			label := labelIndex(row.Move)
			if label < 0 || !f.keep(row) {
				stats.skipped++
				continue
			}
			vec, refeaturized, ferr := featuresFor(row, ex)
			if ferr != nil {
				stats.skipped++
				continue
			}
			if refeaturized {
				stats.refeaturized++
			}
			outBuf = append(outBuf, TrainingRow{
				GameID:         row.GameID,
				Turn:           row.Turn,
				YouID:          row.YouID,
				Features:       vec,
				FeatureVersion: features.Version,
				Label:          label,
				Tier:           row.Tier,
				Source:         row.Source,
			})
			if len(outBuf) >= 2048 {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, err
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}
	closed = true
	if err := writer.Close(); err != nil {
		_ = outF.Close()
		_ = os.Remove(outTmp)
		return stats, err
	}
	if err := outF.Sync(); err != nil {
		_ = outF.Close()
		_ = os.Remove(outTmp)
		return stats, err
	}
	if err := outF.Close(); err != nil {
		_ = os.Remove(outTmp)
		return stats, err
	}

	if stats.written == 0 {
		_ = os.Remove(outTmp)
		return stats, nil
	}
	if err := os.Rename(outTmp, outPath); err != nil {
		_ = os.Remove(outTmp)
		return stats, err
	}
	return stats, nil
}
