// Command trainset turns decision archives into labelled parquet shards for
// training the move classifier offline.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/logging"
)

func main() {
	inDir := flag.String("in-dir", "", "Directory containing decision parquet shards")
	outDir := flag.String("out-dir", "", "Output directory for training parquet shards")
	tiers := flag.String("tiers", "heatmap,path", "Comma separated tiers whose moves become labels (empty keeps all)")
	keepOverridden := flag.Bool("keep-overridden", false, "Keep turns where the safety check replaced the proposal")
	flag.Parse()

	logger := logging.New(os.Stderr, logging.FormatPretty, slog.LevelInfo)

	if *inDir == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "-in-dir and -out-dir are required")
		os.Exit(2)
	}

	absIn, _ := filepath.Abs(*inDir)
	absOut, _ := filepath.Abs(*outDir)
	if absIn == absOut {
		fmt.Fprintln(os.Stderr, "out-dir must be different from in-dir")
		os.Exit(2)
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create out-dir: %v\n", err)
		os.Exit(2)
	}

	inputs := findInputs(absIn)
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "no parquet inputs found")
		os.Exit(1)
	}

	f := filter{tiers: splitList(*tiers), skipOverridden: !*keepOverridden}
	ex := &features.Extractor{}

	var total convertStats
	files := 0
	for _, inPath := range inputs {
		base := filepath.Base(inPath)
		outPath := filepath.Join(absOut, strings.TrimSuffix(base, filepath.Ext(base))+".train.parquet")
		st, err := convertOne(inPath, outPath, f, ex)
		if err != nil {
			logger.Error("convert failed", "file", inPath, "error", err)
			continue
		}
		total.read += st.read
		total.written += st.written
		total.refeaturized += st.refeaturized
		total.skipped += st.skipped
		if st.written > 0 {
			files++
		}
	}

	logger.Info("training set written",
		"files", files,
		"read", total.read,
		"written", total.written,
		"refeaturized", total.refeaturized,
		"skipped", total.skipped,
		"feature_version", features.Version,
	)
	if files == 0 {
		fmt.Fprintln(os.Stderr, "no output written (no convertible rows)")
		os.Exit(1)
	}
}

// findInputs lists parquet shards under root, skipping in-flight tmp/ dirs.
func findInputs(root string) []string {
	var inputs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "tmp" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".parquet") {
			inputs = append(inputs, path)
		}
		return nil
	})
	return inputs
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
