package store

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/elderberry/agentops/internal/domain"
)

type PostgresStore struct {
	sqlStore
}

const (
	defaultDBMaxOpenConns    = 25
	defaultDBMaxIdleConns    = 10
	defaultDBConnMaxLifetime = 30 * time.Minute
	defaultDBConnMaxIdleTime = 5 * time.Minute
)

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, domain.InvalidArgument("DATABASE_URL is required when STORE_DRIVER=postgres")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, domain.Internal("failed to open postgres connection", err)
	}
	db.SetMaxOpenConns(defaultDBMaxOpenConns)
	db.SetMaxIdleConns(defaultDBMaxIdleConns)
	db.SetConnMaxLifetime(defaultDBConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultDBConnMaxIdleTime)

	return &PostgresStore{sqlStore: sqlStore{db: db, dialect: dialectPostgres}}, nil
}
