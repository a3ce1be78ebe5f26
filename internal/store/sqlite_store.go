package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/elderberry/agentops/internal/domain"
)

const DefaultSQLitePath = "./data/agent-logs.db"

type SQLiteStore struct {
	sqlStore
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.Internal("failed to create data directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.Internal("failed to open sqlite database", err)
	}
	// One writer; also keeps :memory: databases on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, domain.Internal("failed to configure sqlite", err)
		}
	}

	return &SQLiteStore{
		sqlStore: sqlStore{db: db, dialect: dialectSQLite},
		path:     path,
	}, nil
}

func (s *SQLiteStore) Path() string {
	return s.path
}
