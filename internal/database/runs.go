package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/citygen/internal/citymap"
	"github.com/lawnchairsociety/citygen/internal/wfc"
)

// ErrRunNotFound is returned when a run lookup fails.
var ErrRunNotFound = errors.New("run not found")

const defaultListLimit = 20

// Run is one stored generation.
type Run struct {
	ID             int64      `json:"id"`
	Seed           int64      `json:"seed"`
	Dimensions     int        `json:"dimensions"`
	Tileset        string     `json:"tileset"`
	Policy         string     `json:"policy"`
	Status         string     `json:"status"`
	Steps          int        `json:"steps"`
	Contradictions int        `json:"contradictions"`
	Digest         string     `json:"digest"`
	Rows           [][]string `json:"rows"`
	CreatedAt      time.Time  `json:"created_at"`

	// Placements is only filled by SaveRun callers and GetRunWithPlacements.
	Placements []Placement `json:"placements,omitempty"`
}

// Placement records one collapse of a run.
type Placement struct {
	Step          int    `json:"step"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Tile          string `json:"tile"`
	Contradiction bool   `json:"contradiction"`
}

// PlacementFromStep converts a progressed step result.
func PlacementFromStep(res wfc.StepResult) Placement {
	return Placement{
		Step:          res.Step,
		X:             res.Position.X,
		Y:             res.Position.Y,
		Tile:          string(res.Tile),
		Contradiction: res.Contradiction,
	}
}

// RunFromMap builds a Run from an exported map.
func RunFromMap(m *citymap.Map, placements []Placement) *Run {
	rows := make([][]string, len(m.Rows))
	for y, row := range m.Rows {
		rows[y] = make([]string, len(row))
		for x, id := range row {
			rows[y][x] = string(id)
		}
	}
	return &Run{
		Seed:           m.Seed,
		Dimensions:     m.Dimensions,
		Tileset:        m.Tileset,
		Policy:         m.Policy,
		Status:         m.Status,
		Steps:          m.Steps,
		Contradictions: m.Contradictions,
		Digest:         m.Digest,
		Rows:           rows,
		CreatedAt:      m.GeneratedAt,
		Placements:     placements,
	}
}

// Map converts the run back into a verified map.
func (r *Run) Map() (*citymap.Map, error) {
	rows := make([][]wfc.TileID, len(r.Rows))
	for y, row := range r.Rows {
		rows[y] = make([]wfc.TileID, len(row))
		for x, id := range row {
			rows[y][x] = wfc.TileID(id)
		}
	}
	m := &citymap.Map{
		Seed:           r.Seed,
		Dimensions:     r.Dimensions,
		Tileset:        r.Tileset,
		Policy:         r.Policy,
		Status:         r.Status,
		Steps:          r.Steps,
		Contradictions: r.Contradictions,
		Digest:         r.Digest,
		GeneratedAt:    r.CreatedAt,
		Rows:           rows,
	}
	if err := m.Verify(); err != nil {
		return nil, fmt.Errorf("run %d: %w", r.ID, err)
	}
	return m, nil
}

// SaveRun stores a run and its placements in one transaction and sets r.ID.
func (d *Database) SaveRun(r *Run) (int64, error) {
	layout, err := json.Marshal(r.Rows)
	if err != nil {
		return 0, fmt.Errorf("failed to encode layout: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := d.insertID(tx,
		`INSERT INTO runs (seed, dimensions, tileset, policy, status, steps, contradictions, digest, layout, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Seed, r.Dimensions, r.Tileset, r.Policy, r.Status, r.Steps, r.Contradictions, r.Digest, string(layout), r.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	if len(r.Placements) > 0 {
		stmt, err := tx.Prepare(d.qb.Build(
			"INSERT INTO placements (run_id, step, x, y, tile, contradiction) VALUES (?, ?, ?, ?, ?, ?)",
		))
		if err != nil {
			return 0, fmt.Errorf("failed to prepare placement insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range r.Placements {
			if _, err := stmt.Exec(id, p.Step, p.X, p.Y, p.Tile, boolToInt(p.Contradiction)); err != nil {
				return 0, fmt.Errorf("failed to insert placement %d: %w", p.Step, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	r.ID = id
	return id, nil
}

const runColumns = "id, seed, dimensions, tileset, policy, status, steps, contradictions, digest, layout, created_at"

// GetRun retrieves a run without its placements.
func (d *Database) GetRun(id int64) (*Run, error) {
	row := d.db.QueryRow(d.qb.Build("SELECT "+runColumns+" FROM runs WHERE id = ?"), id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// GetRunWithPlacements retrieves a run and its placements in step order.
func (d *Database) GetRunWithPlacements(id int64) (*Run, error) {
	r, err := d.GetRun(id)
	if err != nil {
		return nil, err
	}
	if r.Placements, err = d.GetPlacements(id); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A non-positive limit
// selects the default of 20.
func (d *Database) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := d.db.Query(d.qb.Build("SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetPlacements returns a run's placements in step order.
func (d *Database) GetPlacements(runID int64) ([]Placement, error) {
	rows, err := d.db.Query(
		d.qb.Build("SELECT step, x, y, tile, contradiction FROM placements WHERE run_id = ? ORDER BY step"),
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get placements: %w", err)
	}
	defer rows.Close()

	var placements []Placement
	for rows.Next() {
		var p Placement
		var contradiction int
		if err := rows.Scan(&p.Step, &p.X, &p.Y, &p.Tile, &contradiction); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		p.Contradiction = contradiction != 0
		placements = append(placements, p)
	}
	return placements, rows.Err()
}

// DeleteRun removes a run and its placements.
func (d *Database) DeleteRun(id int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(d.qb.Build("DELETE FROM placements WHERE run_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete placements: %w", err)
	}
	result, err := tx.Exec(d.qb.Build("DELETE FROM runs WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return tx.Commit()
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var layout string
	err := s.Scan(&r.ID, &r.Seed, &r.Dimensions, &r.Tileset, &r.Policy, &r.Status,
		&r.Steps, &r.Contradictions, &r.Digest, &layout, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(layout), &r.Rows); err != nil {
		return nil, fmt.Errorf("corrupt layout for run %d: %w", r.ID, err)
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
