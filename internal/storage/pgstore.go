package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore keeps the per-key documents in a single postgres table. It is
// an alternative to the file backend for deployments where one server
// process is the only writer; it has no out-of-process change signal.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	s := &PGStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
create table if not exists flowdeck_documents (
  key text primary key,
  doc jsonb not null,
  updated_at timestamptz not null
);
`)
	return err
}

func (s *PGStore) Load(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `select doc from flowdeck_documents where key=$1`, key).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *PGStore) Store(ctx context.Context, key string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `insert into flowdeck_documents (key, doc, updated_at) values ($1, $2, $3)
on conflict (key) do update set doc = excluded.doc, updated_at = excluded.updated_at`,
		key, doc, time.Now().UTC())
	return err
}

func (s *PGStore) Watch(context.Context) (<-chan Event, error) {
	return nil, ErrWatchUnsupported
}

func (s *PGStore) Close() error {
	return s.db.Close()
}
