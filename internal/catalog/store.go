package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store provides read-only catalog access.
type Store interface {
	// ExactLookup finds a record by case-insensitive name equality.
	ExactLookup(ctx context.Context, name string) (*SwitchRecord, error)
	// LikeLookup finds records whose name contains the pattern,
	// case-insensitively.
	LikeLookup(ctx context.Context, pattern string) ([]*SwitchRecord, error)
	// VectorLookup returns the records closest to the embedding, ordered by
	// descending cosine similarity.
	VectorLookup(ctx context.Context, embedding []float32, limit int) ([]VectorMatch, error)
	// Search applies a characteristic filter.
	Search(ctx context.Context, f Filter) ([]*SwitchRecord, error)
	// ListNames returns every catalog name, sorted.
	ListNames(ctx context.Context) ([]string, error)
}

// DB is the subset of database/sql used by the store.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore implements Store on Postgres with the pgvector extension.
type PostgresStore struct {
	db DB
}

// PostgresConfig holds connection settings.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects to Postgres and verifies the connection.
func OpenPostgres(cfg PostgresConfig) (*PostgresStore, *sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	return NewPostgresStore(db), db, nil
}

// NewPostgresStore creates a store on an existing connection.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ExactLookup finds a record by case-insensitive name equality.
func (s *PostgresStore) ExactLookup(ctx context.Context, name string) (*SwitchRecord, error) {
	query := "SELECT " + selectColumns + " FROM switches WHERE LOWER(name) = LOWER($1)"

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("exact lookup %q: %w", name, err)
	}
	return rec, nil
}

// LikeLookup finds records whose name contains the pattern.
func (s *PostgresStore) LikeLookup(ctx context.Context, pattern string) ([]*SwitchRecord, error) {
	query := "SELECT " + selectColumns + " FROM switches WHERE name ILIKE $1 ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, "%"+pattern+"%")
	if err != nil {
		return nil, fmt.Errorf("like lookup %q: %w", pattern, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// VectorLookup returns the closest records by pgvector cosine distance.
// Similarity is 1 - distance.
func (s *PostgresStore) VectorLookup(ctx context.Context, embedding []float32, limit int) ([]VectorMatch, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	if limit <= 0 {
		limit = 5
	}

	query := "SELECT " + selectColumns + `, 1 - (embedding <=> $1) AS similarity
		FROM switches
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("vector lookup: %w", err)
	}
	defer rows.Close()

	var matches []VectorMatch
	for rows.Next() {
		var (
			rec          SwitchRecord
			manufacturer sql.NullString
			switchType   sql.NullString
			topHousing   sql.NullString
			bottom       sql.NullString
			stem         sql.NullString
			mount        sql.NullString
			spring       sql.NullString
			actuation    sql.NullFloat64
			bottomOut    sql.NullFloat64
			preTravel    sql.NullFloat64
			totalTravel  sql.NullFloat64
			similarity   float64
		)
		err := rows.Scan(
			&rec.ID, &rec.Name, &manufacturer, &switchType,
			&topHousing, &bottom, &stem, &mount, &spring,
			&actuation, &bottomOut, &preTravel, &totalTravel,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vector match: %w", err)
		}

		applyNullable(&rec, manufacturer, switchType, topHousing, bottom, stem, mount, spring,
			actuation, bottomOut, preTravel, totalTravel)
		matches = append(matches, VectorMatch{Record: &rec, Similarity: similarity})
	}
	return matches, rows.Err()
}

// Search applies a characteristic filter.
func (s *PostgresStore) Search(ctx context.Context, f Filter) ([]*SwitchRecord, error) {
	query, args := buildFilterQuery(f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListNames returns every catalog name, sorted.
func (s *PostgresStore) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM switches ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func collectRecords(rows *sql.Rows) ([]*SwitchRecord, error) {
	var records []*SwitchRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func applyNullable(rec *SwitchRecord,
	manufacturer, switchType, topHousing, bottom, stem, mount, spring sql.NullString,
	actuation, bottomOut, preTravel, totalTravel sql.NullFloat64,
) {
	if manufacturer.Valid {
		rec.Manufacturer = &manufacturer.String
	}
	if switchType.Valid {
		t := SwitchType(switchType.String)
		rec.Type = &t
	}
	if topHousing.Valid {
		rec.TopHousing = &topHousing.String
	}
	if bottom.Valid {
		rec.BottomHousing = &bottom.String
	}
	if stem.Valid {
		rec.Stem = &stem.String
	}
	if mount.Valid {
		rec.Mount = &mount.String
	}
	if spring.Valid {
		rec.Spring = &spring.String
	}
	if actuation.Valid {
		rec.ActuationForceG = &actuation.Float64
	}
	if bottomOut.Valid {
		rec.BottomOutForceG = &bottomOut.Float64
	}
	if preTravel.Valid {
		rec.PreTravelMm = &preTravel.Float64
	}
	if totalTravel.Valid {
		rec.TotalTravelMm = &totalTravel.Float64
	}
}

var _ Store = (*PostgresStore)(nil)
