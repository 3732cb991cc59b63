package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DBTX is the subset of database/sql used by PostgresStore. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const profileColumns = `id, name, description, address, lat, lng, photo, contact, interests, created_at, updated_at`

// PostgresStore implements Store on the profiles table. Each operation is a
// single statement, so per-document atomicity comes from Postgres itself.
type PostgresStore struct {
	db  DBTX
	now func() time.Time
}

// NewPostgresStore creates a store over db.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

func (s *PostgresStore) Insert(ctx context.Context, doc Document) (*Profile, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	interests, err := encodeInterests(doc.Interests)
	if err != nil {
		return nil, err
	}

	now := s.now()
	query := `INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)`
	_, err = s.db.ExecContext(ctx, query,
		id, doc.Name, doc.Description, doc.Address,
		nullFloat(doc.Location.Lat), nullFloat(doc.Location.Lng),
		nullString(doc.Photo), nullString(doc.Contact),
		interests, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return newProfile(id, doc, now, now), nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Profile, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) ReplaceByID(ctx context.Context, id string, doc Document) (*Profile, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	interests, err := encodeInterests(doc.Interests)
	if err != nil {
		return nil, err
	}

	query := `UPDATE profiles
		SET name = $2, description = $3, address = $4, lat = $5, lng = $6,
		    photo = $7, contact = $8, interests = $9::jsonb, updated_at = $10
		WHERE id = $1
		RETURNING created_at, updated_at`
	var createdAt, updatedAt time.Time
	err = s.db.QueryRowContext(ctx, query,
		id, doc.Name, doc.Description, doc.Address,
		nullFloat(doc.Location.Lat), nullFloat(doc.Location.Lng),
		nullString(doc.Photo), nullString(doc.Contact),
		interests, s.now(),
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return newProfile(id, doc, createdAt.UTC(), updatedAt.UTC()), nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p         Profile
		lat, lng  sql.NullFloat64
		photo     sql.NullString
		contact   sql.NullString
		interests []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Address, &lat, &lng,
		&photo, &contact, &interests, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lat.Valid {
		p.Location.Lat = &lat.Float64
	}
	if lng.Valid {
		p.Location.Lng = &lng.Float64
	}
	p.Photo = photo.String
	p.Contact = contact.String
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &p.Interests); err != nil {
			return nil, fmt.Errorf("decoding interests: %w", err)
		}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func encodeInterests(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding interests: %w", err)
	}
	return string(raw), nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// Compile-time interface check
var _ Store = (*PostgresStore)(nil)
