package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
	"github.com/lawnchairsociety/dungeontopo/internal/solver"
	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// ErrTopologyNotFound is returned when a topology doesn't exist.
var ErrTopologyNotFound = errors.New("topology not found")

// ErrDuplicateTopology is returned when an identical topology is already stored.
var ErrDuplicateTopology = errors.New("topology already stored")

// TopologyRecord is a stored generation run.
type TopologyRecord struct {
	Seq         int64
	ID          string
	Fingerprint string
	CreatedAt   time.Time
	Result      *topology.Result
}

// TopologySummary is a listing row without edges.
type TopologySummary struct {
	Seq         int64     `json:"seq"`
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Seed        int64     `json:"seed"`
	Rooms       int       `json:"rooms"`
	BossRoom    *int      `json:"boss_room,omitempty"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveTopology stores a generated topology under a new UUID. An identical
// topology (same fingerprint) is rejected with ErrDuplicateTopology.
func (d *Database) SaveTopology(r *topology.Result) (*TopologyRecord, error) {
	rec := &TopologyRecord{
		ID:          uuid.NewString(),
		Fingerprint: r.Fingerprint(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Result:      r,
	}
	if err := d.insertRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ImportTopology stores rec keeping its ID and creation time. The fingerprint
// is recomputed from the result. rec.Seq is set to the new row's sequence.
func (d *Database) ImportTopology(rec *TopologyRecord) error {
	if rec.Result == nil {
		return fmt.Errorf("topology %s has no result", rec.ID)
	}
	rec.Fingerprint = rec.Result.Fingerprint()
	return d.insertRecord(rec)
}

func (d *Database) insertRecord(rec *TopologyRecord) error {
	r := rec.Result
	var bossRoom sql.NullInt64
	if r.BossRoom != nil {
		bossRoom = sql.NullInt64{Int64: int64(*r.BossRoom), Valid: true}
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := d.qb.BuildWithReturning(insertQuery("topologies",
		"id", "fingerprint", "seed", "rooms", "start_room", "boss_room",
		"boss_anchor", "attempts", "backtracks", "room_types", "rotations", "created_at"), "seq")
	args := []any{
		rec.ID, rec.Fingerprint, r.Seed, r.Rooms(), r.StartRoom, bossRoom,
		r.BossAnchor, r.Attempts, r.Backtracks, joinTypes(r.RoomTypes), joinInts(r.Rotations), rec.CreatedAt,
	}

	if d.dialect.SupportsLastInsertID() {
		res, err := tx.Exec(query, args...)
		if err != nil {
			return d.insertError(err)
		}
		if rec.Seq, err = res.LastInsertId(); err != nil {
			return err
		}
	} else {
		if err := tx.QueryRow(query, args...).Scan(&rec.Seq); err != nil {
			return d.insertError(err)
		}
	}

	edgeQuery := d.qb.Build(insertQuery("topology_edges",
		"topology_id", "position", "source", "destination", "source_door", "destination_door"))
	for i, e := range r.Edges {
		pair := r.Doors[i]
		if _, err := tx.Exec(edgeQuery, rec.ID, i, e.Source, e.Destination,
			pair.Source.String(), pair.Destination.String()); err != nil {
			return fmt.Errorf("failed to insert edge %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (d *Database) insertError(err error) error {
	if d.dialect.IsDuplicateKeyError(err) {
		return ErrDuplicateTopology
	}
	return fmt.Errorf("failed to insert topology: %w", err)
}

// GetTopology loads a stored topology with its edges.
func (d *Database) GetTopology(id string) (*TopologyRecord, error) {
	row := d.db.QueryRow(d.qb.Build(`
		SELECT seq, id, fingerprint, seed, start_room, boss_room, boss_anchor,
			attempts, backtracks, room_types, rotations, created_at
		FROM topologies
		WHERE id = ?
	`), id)

	var (
		rec       TopologyRecord
		r         topology.Result
		bossRoom  sql.NullInt64
		types     string
		rotations string
	)
	err := row.Scan(&rec.Seq, &rec.ID, &rec.Fingerprint, &r.Seed, &r.StartRoom, &bossRoom,
		&r.BossAnchor, &r.Attempts, &r.Backtracks, &types, &rotations, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTopologyNotFound
	}
	if err != nil {
		return nil, err
	}

	if bossRoom.Valid {
		b := int(bossRoom.Int64)
		r.BossRoom = &b
	}
	if r.RoomTypes, err = splitTypes(types); err != nil {
		return nil, fmt.Errorf("topology %s: %w", id, err)
	}
	if r.Rotations, err = splitInts(rotations); err != nil {
		return nil, fmt.Errorf("topology %s: %w", id, err)
	}
	if err := d.loadEdges(&r, id); err != nil {
		return nil, err
	}

	rec.Result = &r
	return &rec, nil
}

func (d *Database) loadEdges(r *topology.Result, id string) error {
	rows, err := d.db.Query(d.qb.Build(`
		SELECT source, destination, source_door, destination_door
		FROM topology_edges
		WHERE topology_id = ?
		ORDER BY position ASC
	`), id)
	if err != nil {
		return err
	}
	defer rows.Close()

	r.Edges = []graph.Edge{}
	r.Doors = []solver.DoorPair{}
	for rows.Next() {
		var (
			e        graph.Edge
			src, dst string
		)
		if err := rows.Scan(&e.Source, &e.Destination, &src, &dst); err != nil {
			return err
		}
		srcDoor, err := direction.Parse(src)
		if err != nil {
			return err
		}
		dstDoor, err := direction.Parse(dst)
		if err != nil {
			return err
		}
		r.Edges = append(r.Edges, e)
		r.Doors = append(r.Doors, solver.DoorPair{Source: srcDoor, Destination: dstDoor})
	}
	return rows.Err()
}

// ListTopologies returns up to limit stored topologies, newest first.
func (d *Database) ListTopologies(limit int) ([]TopologySummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(d.qb.Build(`
		SELECT seq, id, fingerprint, seed, rooms, boss_room, attempts, created_at
		FROM topologies
		ORDER BY seq DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopologySummary
	for rows.Next() {
		var (
			s        TopologySummary
			bossRoom sql.NullInt64
		)
		if err := rows.Scan(&s.Seq, &s.ID, &s.Fingerprint, &s.Seed, &s.Rooms, &bossRoom, &s.Attempts, &s.CreatedAt); err != nil {
			return nil, err
		}
		if bossRoom.Valid {
			b := int(bossRoom.Int64)
			s.BossRoom = &b
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountTopologies returns the number of stored topologies.
func (d *Database) CountTopologies() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM topologies`).Scan(&count)
	return count, err
}

// TopologyIDs returns every stored topology ID, oldest first.
func (d *Database) TopologyIDs() ([]string, error) {
	rows, err := d.db.Query(`SELECT id FROM topologies ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteTopology removes a topology and its edges.
func (d *Database) DeleteTopology(id string) error {
	res, err := d.db.Exec(d.qb.Build(`DELETE FROM topologies WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTopologyNotFound
	}
	return nil
}

func joinTypes(types []archetype.Archetype) string {
	parts := make([]string, len(types))
	for i, a := range types {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func splitTypes(s string) ([]archetype.Archetype, error) {
	if s == "" {
		return []archetype.Archetype{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]archetype.Archetype, len(parts))
	for i, p := range parts {
		a, err := archetype.Parse(p)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
