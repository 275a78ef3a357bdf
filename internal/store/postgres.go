// Package store persists analysis targets in Postgres and caches refreshed
// foot-traffic snapshots in memory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// ErrTargetNotFound is returned when no target exists for a public id.
var ErrTargetNotFound = errors.New("target not found")

// Open connects to Postgres, applies pool limits and verifies the
// connection before returning.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Target is a saved analysis target. ID is the internal row id; PublicID is
// what the API exposes.
type Target struct {
	ID           int64     `json:"-"`
	PublicID     string    `json:"target_id"`
	Name         string    `json:"name"`
	BusinessType string    `json:"business_type"`
	Description  string    `json:"description,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Municipality string    `json:"municipality,omitempty"`
	Barangay     string    `json:"barangay,omitempty"`
	Province     string    `json:"province,omitempty"`
	Region       string    `json:"region,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// CompetitorCount is populated by ListTargets only.
	CompetitorCount int `json:"competitor_count"`
}

// TargetCompetitor is one competitor row attached to a target.
type TargetCompetitor struct {
	Name     string          `json:"name"`
	Vicinity string          `json:"vicinity,omitempty"`
	Details  json.RawMessage `json:"details,omitempty"`
}

// TrafficRecord is one persisted foot-traffic payload for a target.
type TrafficRecord struct {
	SourceName string          `json:"source_name"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TargetDetail is a target with its attached rows and the saved data blob.
type TargetDetail struct {
	Target
	Data        json.RawMessage    `json:"data,omitempty"`
	Competitors []TargetCompetitor `json:"competitors"`
	FootTraffic []TrafficRecord    `json:"foot_traffic"`
}

// NewTarget is the input for SaveTarget. Data is an opaque blob the caller
// assembles (population summary, analysis text, full request payload).
type NewTarget struct {
	Name         string
	BusinessType string
	Description  string
	Latitude     float64
	Longitude    float64
	Municipality string
	Barangay     string
	Province     string
	Region       string
	Data         json.RawMessage
	Competitors  []TargetCompetitor
	FootTraffic  []TrafficRecord
}

// TargetStore persists targets and their attached rows.
type TargetStore struct {
	db *sql.DB
}

func NewTargetStore(db *sql.DB) *TargetStore {
	return &TargetStore{db: db}
}

// SaveTarget writes the target, its competitors, its foot-traffic rows and
// an audit version in one transaction, and returns the new public id.
func (s *TargetStore) SaveTarget(ctx context.Context, t NewTarget) (string, error) {
	publicID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save target: %w", err)
	}
	defer tx.Rollback()

	var targetID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO targets
			(public_id, name, business_type, description, latitude, longitude,
			 municipality, barangay, province, region, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		publicID, t.Name, t.BusinessType, t.Description, t.Latitude, t.Longitude,
		t.Municipality, t.Barangay, t.Province, t.Region, rawOrNull(t.Data),
	).Scan(&targetID)
	if err != nil {
		return "", fmt.Errorf("insert target: %w", err)
	}

	for _, c := range t.Competitors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO competitors (target_id, name, vicinity, details)
			VALUES ($1, $2, $3, $4)`,
			targetID, c.Name, c.Vicinity, rawOrNull(c.Details))
		if err != nil {
			return "", fmt.Errorf("insert competitor: %w", err)
		}
	}

	for _, r := range t.FootTraffic {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO foot_traffic (target_id, source_name, details)
			VALUES ($1, $2, $3)`,
			targetID, r.SourceName, rawOrNull(r.Details))
		if err != nil {
			return "", fmt.Errorf("insert foot traffic: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO target_versions (target_id, data)
		VALUES ($1, $2)`,
		targetID, rawOrNull(t.Data))
	if err != nil {
		return "", fmt.Errorf("insert target version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save target: %w", err)
	}
	return publicID, nil
}

// ListTargets returns all targets newest first, each with its competitor
// count.
func (s *TargetStore) ListTargets(ctx context.Context) ([]Target, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.public_id, t.name, t.business_type, COALESCE(t.description, ''),
		       t.latitude, t.longitude,
		       COALESCE(t.municipality, ''), COALESCE(t.barangay, ''),
		       COALESCE(t.province, ''), COALESCE(t.region, ''),
		       t.created_at,
		       (SELECT COUNT(*) FROM competitors c WHERE c.target_id = t.id) AS competitor_count
		FROM targets t
		ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		if err := rows.Scan(
			&t.ID, &t.PublicID, &t.Name, &t.BusinessType, &t.Description,
			&t.Latitude, &t.Longitude,
			&t.Municipality, &t.Barangay, &t.Province, &t.Region,
			&t.CreatedAt, &t.CompetitorCount,
		); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// GetTarget loads one target with its competitors and foot-traffic rows.
func (s *TargetStore) GetTarget(ctx context.Context, publicID string) (TargetDetail, error) {
	var d TargetDetail
	var data []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT id, public_id, name, business_type, COALESCE(description, ''),
		       latitude, longitude,
		       COALESCE(municipality, ''), COALESCE(barangay, ''),
		       COALESCE(province, ''), COALESCE(region, ''),
		       data, created_at
		FROM targets
		WHERE public_id = $1`, publicID).
		Scan(
			&d.ID, &d.PublicID, &d.Name, &d.BusinessType, &d.Description,
			&d.Latitude, &d.Longitude,
			&d.Municipality, &d.Barangay, &d.Province, &d.Region,
			&data, &d.CreatedAt,
		)
	if errors.Is(err, sql.ErrNoRows) {
		return TargetDetail{}, ErrTargetNotFound
	}
	if err != nil {
		return TargetDetail{}, fmt.Errorf("get target: %w", err)
	}
	d.Data = data

	crows, err := s.db.QueryContext(ctx, `
		SELECT name, COALESCE(vicinity, ''), details
		FROM competitors
		WHERE target_id = $1
		ORDER BY id`, d.ID)
	if err != nil {
		return TargetDetail{}, fmt.Errorf("get target competitors: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var c TargetCompetitor
		var details []byte
		if err := crows.Scan(&c.Name, &c.Vicinity, &details); err != nil {
			return TargetDetail{}, err
		}
		c.Details = details
		d.Competitors = append(d.Competitors, c)
	}
	if err := crows.Err(); err != nil {
		return TargetDetail{}, err
	}

	frows, err := s.db.QueryContext(ctx, `
		SELECT source_name, details, created_at
		FROM foot_traffic
		WHERE target_id = $1
		ORDER BY id`, d.ID)
	if err != nil {
		return TargetDetail{}, fmt.Errorf("get target foot traffic: %w", err)
	}
	defer frows.Close()

	for frows.Next() {
		var r TrafficRecord
		var details []byte
		if err := frows.Scan(&r.SourceName, &details, &r.CreatedAt); err != nil {
			return TargetDetail{}, err
		}
		r.Details = details
		d.FootTraffic = append(d.FootTraffic, r)
	}
	return d, frows.Err()
}

// RecentTargets returns the newest targets for the refresh scheduler.
func (s *TargetStore) RecentTargets(ctx context.Context, limit int) ([]Target, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, public_id, name, business_type, latitude, longitude, created_at
		FROM targets
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent targets: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.ID, &t.PublicID, &t.Name, &t.BusinessType, &t.Latitude, &t.Longitude, &t.CreatedAt); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// SaveTrafficRecord appends one refreshed foot-traffic payload for a target.
func (s *TargetStore) SaveTrafficRecord(ctx context.Context, targetID int64, sourceName string, details json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foot_traffic (target_id, source_name, details)
		VALUES ($1, $2, $3)`,
		targetID, sourceName, rawOrNull(details))
	if err != nil {
		return fmt.Errorf("insert foot traffic record: %w", err)
	}
	return nil
}

func rawOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
