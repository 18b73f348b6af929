package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// GameLog records which game ids have been archived, one per line in an
// append-only file. It is loaded into memory on open and fsynced on append.
// A partial final line from a crash is ignored on the next open.
type GameLog struct {
	mu      sync.RWMutex
	path    string
	file    *os.File
	written map[string]struct{}
}

func OpenGameLog(path string) (*GameLog, error) {
	written := make(map[string]struct{})

	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}

	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			id := strings.TrimSpace(scanner.Text())
			if id == "" {
				continue
			}
			written[id] = struct{}{}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &GameLog{
		path:    path,
		file:    file,
		written: written,
	}, nil
}

func (l *GameLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *GameLog) Has(gameID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.written[gameID]
	return ok
}

func (l *GameLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.written)
}

// AddMany appends ids and syncs once. Empty and known ids are skipped.
func (l *GameLog) AddMany(gameIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}

	added := 0
	for _, gameID := range gameIDs {
		if gameID == "" {
			continue
		}
		if _, ok := l.written[gameID]; ok {
			continue
		}
		if _, err := l.file.WriteString(gameID + "\n"); err != nil {
			return fmt.Errorf("append log: %w", err)
		}
		l.written[gameID] = struct{}{}
		added++
	}

	if added == 0 {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

func (l *GameLog) Add(gameID string) error {
	if gameID == "" {
		return fmt.Errorf("gameID is empty")
	}
	return l.AddMany([]string{gameID})
}
