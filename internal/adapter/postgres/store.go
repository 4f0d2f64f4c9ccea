// Package postgres persists raw network-server webhook payloads and reads
// stored uplinks back as reception datasets.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

//go:embed schema.sql
var schema string

// Store is a Postgres-backed payload store. It implements
// httpadapter.UplinkStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrSourceUnavailable, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Migrate creates the payload tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Store inserts a raw payload into the table for kind, stamped with the
// current time.
func (s *Store) Store(ctx context.Context, kind domain.PayloadKind, payload json.RawMessage) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	query := "INSERT INTO " + pq.QuoteIdentifier(table) + " (received_at, payload) VALUES ($1, $2)"
	if _, err := s.db.ExecContext(ctx, query, domain.Now().UTC(), []byte(payload)); err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	return nil
}

// UplinkCount returns the number of stored uplinks.
func (s *Store) UplinkCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM uplink").Scan(&n); err != nil {
		return 0, fmt.Errorf("count uplinks: %w", err)
	}
	return n, nil
}

// Dataset decodes every uplink received strictly between start and end into
// a reception dataset. The row id is the fallback message id for uplinks
// without a device id. Rows that are not valid uplinks are logged and skipped.
func (s *Store) Dataset(ctx context.Context, start, end time.Time) (domain.Dataset, error) {
	if !start.Before(end) {
		return domain.Dataset{}, fmt.Errorf("%w: window start %s is not before end %s",
			domain.ErrInvalidInput, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, payload FROM uplink WHERE received_at > $1 AND received_at < $2 ORDER BY id",
		start.UTC(), end.UTC())
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("%w: query uplinks: %w", domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var (
		ds      domain.Dataset
		skipped int
	)
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return domain.Dataset{}, fmt.Errorf("scan uplink: %w", err)
		}

		part, err := domain.ParseUplink(strconv.FormatInt(id, 10), payload)
		if err != nil {
			skipped++
			s.logger.Warn("skipping undecodable uplink", "id", id, "error", err)
			continue
		}
		ds.Append(part)
	}
	if err := rows.Err(); err != nil {
		return domain.Dataset{}, fmt.Errorf("iterate uplinks: %w", err)
	}

	s.logger.Info("uplink window loaded",
		"start", start, "end", end,
		"receptions", len(ds.Receptions), "dropped", len(ds.Dropped), "skipped", skipped)
	return ds, nil
}

// CheckReadiness reports whether the database answers a ping.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func tableFor(kind domain.PayloadKind) (string, error) {
	switch kind {
	case domain.KindUplink, domain.KindJoin, domain.KindLocation:
		return string(kind), nil
	default:
		return "", fmt.Errorf("%w: unknown payload kind %q", domain.ErrInvalidInput, kind)
	}
}
