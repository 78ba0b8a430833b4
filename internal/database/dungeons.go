package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

// ErrNotFound is returned when a dungeon lookup fails.
var ErrNotFound = errors.New("dungeon not found")

// PlacementKind names what a stored placement marks.
type PlacementKind string

const (
	KindDoor       PlacementKind = "door"
	KindHiddenWall PlacementKind = "hidden_wall"
	KindLoot       PlacementKind = "loot"
	KindSpawn      PlacementKind = "spawn"
	KindGoal       PlacementKind = "goal"
)

// Placement is one stored door, hidden wall, loot item, spawn or goal.
type Placement struct {
	Kind        PlacementKind
	X, Y        float64
	Orientation string
}

// Record is a stored dungeon run.
type Record struct {
	ID          int64
	Seed        int64
	Fingerprint string
	Width       int
	Height      int
	Params      dungeon.Params
	Rooms       int
	Tiles       int
	Corridors   int
	CreatedAt   time.Time
	// Placements is only filled by GetDungeon and FindByFingerprint.
	Placements []Placement
}

// Count returns how many placements of kind the record holds.
func (r *Record) Count(kind PlacementKind) int {
	n := 0
	for _, p := range r.Placements {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

func placementsOf(d *dungeon.Dungeon) []Placement {
	var out []Placement
	for _, p := range d.Doors {
		out = append(out, Placement{Kind: KindDoor, X: p.X, Y: p.Y, Orientation: p.Orientation.String()})
	}
	for _, p := range d.HiddenWalls {
		out = append(out, Placement{Kind: KindHiddenWall, X: p.X, Y: p.Y, Orientation: p.Orientation.String()})
	}
	for _, l := range d.Loot {
		out = append(out, Placement{Kind: KindLoot, X: float64(l.X), Y: float64(l.Y)})
	}
	if d.Spawn != nil {
		out = append(out, Placement{Kind: KindSpawn, X: float64(d.Spawn.X), Y: float64(d.Spawn.Y)})
	}
	if d.Goal != nil {
		out = append(out, Placement{Kind: KindGoal, X: float64(d.Goal.X), Y: float64(d.Goal.Y)})
	}
	return out
}

// recordOf flattens a generated dungeon into the stored form.
func recordOf(dg *dungeon.Dungeon) *Record {
	return &Record{
		Seed:        dg.Seed,
		Fingerprint: dg.Fingerprint(),
		Width:       dg.Grid.Width,
		Height:      dg.Grid.Height,
		Params:      dg.Params,
		Rooms:       len(dg.Rooms),
		Tiles:       dg.Tiles.Len(),
		Corridors:   dg.Corridors,
		Placements:  placementsOf(dg),
	}
}

// SaveDungeon stores d and its placements in one transaction and returns the
// row id. Saving a dungeon whose fingerprint is already stored returns the
// existing id.
func (d *Database) SaveDungeon(ctx context.Context, dg *dungeon.Dungeon) (int64, error) {
	return d.saveRecord(ctx, recordOf(dg))
}

func (d *Database) saveRecord(ctx context.Context, r *Record) (int64, error) {
	params, err := yaml.Marshal(r.Params)
	if err != nil {
		return 0, fmt.Errorf("failed to encode params: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := d.insertDungeon(ctx, tx, r, string(params))
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			tx.Rollback()
			existing, findErr := d.FindByFingerprint(ctx, r.Fingerprint)
			if findErr != nil {
				return 0, findErr
			}
			return existing.ID, nil
		}
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, d.qb.Build(
		"INSERT INTO dungeon_placements (dungeon_id, kind, x, y, orientation) VALUES (?, ?, ?, ?, ?)",
	))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare placement insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range r.Placements {
		if _, err := stmt.ExecContext(ctx, id, string(p.Kind), p.X, p.Y, p.Orientation); err != nil {
			return 0, fmt.Errorf("failed to save placement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit dungeon: %w", err)
	}
	return id, nil
}

func (d *Database) insertDungeon(ctx context.Context, tx *sql.Tx, r *Record, params string) (int64, error) {
	query := d.qb.BuildWithReturning(
		"INSERT INTO dungeons (seed, fingerprint, width, height, params, rooms, tiles, corridors) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		"id",
	)
	args := []any{
		r.Seed, r.Fingerprint, r.Width, r.Height, params,
		r.Rooms, r.Tiles, r.Corridors,
	}

	if !d.dialect.SupportsLastInsertID() {
		var id int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to save dungeon: %w", err)
		}
		return id, nil
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to save dungeon: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get dungeon ID: %w", err)
	}
	return id, nil
}

const selectDungeon = "SELECT id, seed, fingerprint, width, height, params, rooms, tiles, corridors, created_at FROM dungeons"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var r Record
	var params string
	var createdAt sql.NullTime

	if err := row.Scan(&r.ID, &r.Seed, &r.Fingerprint, &r.Width, &r.Height, &params,
		&r.Rooms, &r.Tiles, &r.Corridors, &createdAt); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal([]byte(params), &r.Params); err != nil {
		return nil, fmt.Errorf("failed to decode params of dungeon %d: %w", r.ID, err)
	}
	if createdAt.Valid {
		r.CreatedAt = createdAt.Time
	}
	return &r, nil
}

// GetDungeon retrieves a dungeon and its placements by id.
func (d *Database) GetDungeon(ctx context.Context, id int64) (*Record, error) {
	return d.getOne(ctx, d.qb.Build(selectDungeon+" WHERE id = ?"), id)
}

// FindByFingerprint retrieves the dungeon with the given fingerprint.
func (d *Database) FindByFingerprint(ctx context.Context, fingerprint string) (*Record, error) {
	return d.getOne(ctx, d.qb.Build(selectDungeon+" WHERE fingerprint = ?"), fingerprint)
}

func (d *Database) getOne(ctx context.Context, query string, arg any) (*Record, error) {
	r, err := scanRecord(d.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dungeon: %w", err)
	}

	r.Placements, err = d.loadPlacements(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Database) loadPlacements(ctx context.Context, id int64) ([]Placement, error) {
	rows, err := d.db.QueryContext(ctx, d.qb.Build(
		"SELECT kind, x, y, orientation FROM dungeon_placements WHERE dungeon_id = ? ORDER BY id",
	), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load placements: %w", err)
	}
	defer rows.Close()

	var out []Placement
	for rows.Next() {
		var p Placement
		var kind string
		if err := rows.Scan(&kind, &p.X, &p.Y, &p.Orientation); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		p.Kind = PlacementKind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListBySeed returns every stored dungeon generated from seed, oldest first.
// Placements are not loaded.
func (d *Database) ListBySeed(ctx context.Context, seed int64) ([]Record, error) {
	return d.listRecords(ctx, d.qb.Build(selectDungeon+" WHERE seed = ? ORDER BY id"), seed)
}

// ListAll returns every stored dungeon, oldest first, without placements.
func (d *Database) ListAll(ctx context.Context) ([]Record, error) {
	return d.listRecords(ctx, selectDungeon+" ORDER BY id")
}

func (d *Database) listRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dungeons: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dungeon: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CopyResult counts the outcome of CopyTo.
type CopyResult struct {
	Copied  int
	Skipped int
}

// CopyTo inserts every dungeon of d that dst does not hold yet, matched by
// fingerprint. With dryRun set nothing is written.
func (d *Database) CopyTo(ctx context.Context, dst *Database, dryRun bool) (CopyResult, error) {
	var res CopyResult

	records, err := d.ListAll(ctx)
	if err != nil {
		return res, err
	}

	for i := range records {
		r := &records[i]
		if _, err := dst.FindByFingerprint(ctx, r.Fingerprint); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return res, err
		}

		if dryRun {
			res.Copied++
			continue
		}
		r.Placements, err = d.loadPlacements(ctx, r.ID)
		if err != nil {
			return res, err
		}
		if _, err := dst.saveRecord(ctx, r); err != nil {
			return res, fmt.Errorf("copy dungeon %d: %w", r.ID, err)
		}
		res.Copied++
	}
	return res, nil
}
