package store

import (
	"fmt"
	"log/slog"
	"sync"
)

const DefaultFlushGames = 200

// Archive buffers decision rows per live game. Finished games go into the
// current Shard, which is committed every flushGames games. Game ids are
// added to the GameLog only once their shard is in place.
type Archive struct {
	mu         sync.Mutex
	dir        string
	flushGames int
	log        *GameLog
	logger     *slog.Logger

	pending map[string][]DecisionRow
	shard   *Shard
	files   int
}

type ArchiveOptions struct {
	Dir        string
	LogPath    string
	FlushGames int
	Logger     *slog.Logger
}

func OpenArchive(opts ArchiveOptions) (*Archive, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("archive dir is required")
	}
	if opts.FlushGames <= 0 {
		opts.FlushGames = DefaultFlushGames
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	var gl *GameLog
	if opts.LogPath != "" {
		var err error
		gl, err = OpenGameLog(opts.LogPath)
		if err != nil {
			return nil, err
		}
	}

	return &Archive{
		dir:        opts.Dir,
		flushGames: opts.FlushGames,
		log:        gl,
		logger:     opts.Logger,
		pending:    make(map[string][]DecisionRow),
	}, nil
}

// Record buffers one row under its game.
func (a *Archive) Record(row DecisionRow) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[row.GameID] = append(a.pending[row.GameID], row)
}

// Pending reports buffered rows for a live game.
func (a *Archive) Pending(gameID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending[gameID])
}

// EndGame moves a finished game's rows into the current batch file. Games
// already present in the log are dropped.
func (a *Archive) EndGame(gameID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows := a.pending[gameID]
	delete(a.pending, gameID)
	if len(rows) == 0 {
		return nil
	}
	if a.log != nil && a.log.Has(gameID) {
		a.logger.Debug("game already archived", "game", gameID)
		return nil
	}

	if a.shard == nil {
		sh, err := OpenShard(a.dir)
		if err != nil {
			return err
		}
		a.shard = sh
	}
	if err := a.shard.AddGame(gameID, rows); err != nil {
		// A failed write leaves the file unusable; drop the whole shard.
		lost := a.shard.Games()
		_ = a.shard.Abort()
		a.shard = nil
		a.logger.Error("archive shard aborted", "game", gameID, "lost_games", len(lost), "error", err)
		return err
	}

	if len(a.shard.Games()) >= a.flushGames {
		_, err := a.flushLocked()
		return err
	}
	return nil
}

// Flush commits the current shard, if any, and returns its path.
func (a *Archive) Flush() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushLocked()
}

func (a *Archive) flushLocked() (string, error) {
	if a.shard == nil {
		return "", nil
	}
	sh := a.shard
	a.shard = nil

	info, err := sh.Commit()
	if err != nil {
		return "", err
	}
	if info.Path == "" {
		return "", nil
	}
	a.files++
	a.logger.Info("archive flushed", "path", info.Path, "rows", info.Rows, "games", len(info.Games))

	if a.log != nil {
		if err := a.log.AddMany(info.Games); err != nil {
			return info.Path, fmt.Errorf("update game log: %w", err)
		}
	}
	return info.Path, nil
}

// Files returns how many shards this archive has produced.
func (a *Archive) Files() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.files
}

// Close flushes finished games and closes the log. Rows of games that never
// ended are discarded.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.pending); n > 0 {
		a.logger.Warn("discarding unfinished games", "games", n)
		a.pending = make(map[string][]DecisionRow)
	}
	_, err := a.flushLocked()
	if a.log != nil {
		if cerr := a.log.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
