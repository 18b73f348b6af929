package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Shard is one archive file being filled with whole games. Rows stream into
// dir/tmp and only appear in dir once the shard is committed, so readers
// never see a partial file or half a game.
type Shard struct {
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[DecisionRow]

	games []string
	rows  int
}

// ShardInfo describes a committed shard.
type ShardInfo struct {
	Path  string
	Rows  int
	Games []string
}

func OpenShard(dir string) (*Shard, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive dir is required")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	tmpDir := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("decisions_%d.parquet", time.Now().UnixNano())
	s := &Shard{
		tmpPath: filepath.Join(tmpDir, name),
		outPath: filepath.Join(dir, name),
	}

	f, err := os.OpenFile(s.tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open shard: %w", err)
	}
	s.file = f
	// state is an opaque JSON blob; min/max page bounds on it are useless.
	s.writer = parquet.NewGenericWriter[DecisionRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("state"),
	)
	s.writer.SetKeyValueMetadata("schema", SchemaDecisionRow)
	return s, nil
}

func (s *Shard) TmpPath() string { return s.tmpPath }

// Games returns the ids written so far, in write order.
func (s *Shard) Games() []string { return slices.Clone(s.games) }

func (s *Shard) Rows() int { return s.rows }

func (s *Shard) Has(gameID string) bool { return slices.Contains(s.games, gameID) }

// AddGame writes every row of one finished game. Rows must all carry gameID.
// A game already in the shard is ignored.
func (s *Shard) AddGame(gameID string, rows []DecisionRow) error {
	if s.writer == nil {
		return fmt.Errorf("shard is closed")
	}
	if len(rows) == 0 || s.Has(gameID) {
		return nil
	}
	for i := range rows {
		if rows[i].GameID != gameID {
			return fmt.Errorf("row %d belongs to game %q, not %q", i, rows[i].GameID, gameID)
		}
	}
	if _, err := s.writer.Write(rows); err != nil {
		return fmt.Errorf("write game %s: %w", gameID, err)
	}
	s.games = append(s.games, gameID)
	s.rows += len(rows)
	return nil
}

func (s *Shard) close() error {
	if s.writer == nil {
		return nil
	}
	werr := s.writer.Close()
	_ = s.file.Sync()
	ferr := s.file.Close()
	s.writer, s.file = nil, nil
	if werr != nil {
		return fmt.Errorf("close parquet writer: %w", werr)
	}
	if ferr != nil {
		return fmt.Errorf("close shard file: %w", ferr)
	}
	return nil
}

// Commit closes the shard and moves it into place. An empty shard is removed
// and reported with an empty Path.
func (s *Shard) Commit() (ShardInfo, error) {
	if s.writer == nil {
		return ShardInfo{}, fmt.Errorf("shard is closed")
	}
	s.writer.SetKeyValueMetadata("games", strconv.Itoa(len(s.games)))
	if err := s.close(); err != nil {
		_ = os.Remove(s.tmpPath)
		return ShardInfo{}, err
	}
	if s.rows == 0 {
		_ = os.Remove(s.tmpPath)
		return ShardInfo{}, nil
	}
	if err := os.Rename(s.tmpPath, s.outPath); err != nil {
		return ShardInfo{}, fmt.Errorf("rename shard: %w", err)
	}
	return ShardInfo{Path: s.outPath, Rows: s.rows, Games: s.Games()}, nil
}

// Abort drops the shard and everything written to it.
func (s *Shard) Abort() error {
	err := s.close()
	if rmErr := os.Remove(s.tmpPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

// ReadDecisions loads every row of one archive file.
func ReadDecisions(path string) ([]DecisionRow, error) {
	rows, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
