// Package persistence provides a SQLite-backed library of named maps.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexton/internal/world"
)

// ErrMapNotFound is returned when no map is stored under a name.
var ErrMapNotFound = errors.New("map not found")

// Catalog resolves tile names to ids and back. Tiles are stored by name so
// a library survives catalog reordering.
type Catalog interface {
	ID(name string) (uint, error)
	Name(id uint) string
}

// MapInfo describes a stored map.
type MapInfo struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	TileCount int    `db:"tile_count" json:"tile_count"`
	SavedUnix int64  `db:"saved_at" json:"saved_at"`
}

// SavedAt returns the time the map was last saved.
func (i MapInfo) SavedAt() time.Time {
	return time.Unix(i.SavedUnix, 0)
}

type tileRow struct {
	X    int    `db:"x"`
	Y    int    `db:"y"`
	Z    int    `db:"z"`
	Name string `db:"tile_name"`
}

// DB wraps a SQLite connection holding the map library.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS maps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		tile_count INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tiles (
		map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		tile_name TEXT NOT NULL,
		PRIMARY KEY (map_id, x, y)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_maps_saved ON maps(saved_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMap stores m under name, replacing any map already stored there.
// It returns the stored map's id, which is kept across replacements.
func (db *DB) SaveMap(name string, m *world.Map, cat Catalog) (string, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	var id string
	err = tx.Get(&id, "SELECT id FROM maps WHERE name = ?", name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.Exec(
			"INSERT INTO maps (id, name, tile_count, saved_at) VALUES (?, ?, ?, ?)",
			id, name, m.Len(), now,
		)
	case err == nil:
		_, err = tx.Exec(
			"UPDATE maps SET tile_count = ?, saved_at = ? WHERE id = ?",
			m.Len(), now, id,
		)
	}
	if err != nil {
		return "", fmt.Errorf("save map %q: %w", name, err)
	}
	if _, err := tx.Exec("DELETE FROM tiles WHERE map_id = ?", id); err != nil {
		return "", err
	}

	stmt, err := tx.Preparex("INSERT INTO tiles (map_id, x, y, z, tile_name) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, t := range m.Tiles() {
		if _, err := stmt.Exec(id, t.X, t.Y, t.Z, cat.Name(t.TileID)); err != nil {
			return "", fmt.Errorf("insert tile (%d,%d): %w", t.X, t.Y, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("map stored", "name", name, "id", id, "tiles", m.Len())
	return id, nil
}

// LoadMap reads the map stored under name. A tile name the catalog does
// not know aborts the load.
func (db *DB) LoadMap(name string, cat Catalog) (*world.Map, error) {
	info, err := db.mapInfo(name)
	if err != nil {
		return nil, err
	}

	var rows []tileRow
	if err := db.conn.Select(&rows,
		"SELECT x, y, z, tile_name FROM tiles WHERE map_id = ? ORDER BY x DESC, y DESC",
		info.ID,
	); err != nil {
		return nil, fmt.Errorf("load tiles of %q: %w", name, err)
	}

	m := world.NewMap()
	for _, r := range rows {
		id, err := cat.ID(r.Name)
		if err != nil {
			return nil, fmt.Errorf("load map %q at (%d,%d): %w", name, r.X, r.Y, err)
		}
		m.AddTile(id, r.X, r.Y, r.Z)
	}
	return m, nil
}

// ListMaps returns all stored maps, most recently saved first.
func (db *DB) ListMaps() ([]MapInfo, error) {
	var maps []MapInfo
	err := db.conn.Select(&maps,
		"SELECT id, name, tile_count, saved_at FROM maps ORDER BY saved_at DESC, name",
	)
	return maps, err
}

// DeleteMap removes the map stored under name along with its tiles.
func (db *DB) DeleteMap(name string) error {
	res, err := db.conn.Exec("DELETE FROM maps WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete map %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrMapNotFound, name)
	}
	slog.Info("map deleted", "name", name)
	return nil
}

func (db *DB) mapInfo(name string) (MapInfo, error) {
	var info MapInfo
	err := db.conn.Get(&info, "SELECT id, name, tile_count, saved_at FROM maps WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("%w: %q", ErrMapNotFound, name)
	}
	return info, err
}

// SaveMeta stores a key-value pair in library metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
