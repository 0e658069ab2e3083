package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gogpu/stroke"
	"github.com/gogpu/stroke/history"
	"github.com/gogpu/stroke/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the SQLite database file. Use ":memory:" for in-memory.
type DB struct {
	db *sql.DB
}

var _ store.Store = (*DB)(nil)

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("sqlite: empty path")
	}
	d, err := sql.Open("sqlite", withPragma(p, "busy_timeout(3000)"))
	if err != nil {
		return nil, err
	}
	if p == ":memory:" {
		// Every connection would get its own empty database.
		d.SetMaxOpenConns(1)
	}
	return &DB{db: d}, nil
}

// withPragma adds a _pragma query parameter to dsn so the driver runs it on
// every new connection.
func withPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS layers(
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			dx REAL NOT NULL DEFAULT 0,
			dy REAL NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS strokes(
			layer_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			brush_config BLOB NOT NULL,
			parent_name TEXT NOT NULL,
			brush_state BLOB NOT NULL,
			stroke_data BLOB NOT NULL,
			painting_time REAL NOT NULL,
			PRIMARY KEY(layer_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_layers_name ON layers(name);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

// SaveLayer writes the layer and replaces all of its strokes.
func (s *DB) SaveLayer(ctx context.Context, l *history.Layer) error {
	dx, dy := l.Offset()
	strokes := l.Strokes()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO layers(id, name, dx, dy, updated_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			dx=excluded.dx,
			dy=excluded.dy,
			updated_at=excluded.updated_at;`,
		l.ID.String(), l.Name, dx, dy, time.Now().UnixNano())
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM strokes WHERE layer_id=?;`, l.ID.String()); err != nil {
		return err
	}
	for i, rec := range strokes {
		if err := insertStroke(ctx, tx, l.ID, i, rec); err != nil {
			return fmt.Errorf("sqlite: save stroke %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// AppendStroke adds a finished record at the end of a stored layer. Records
// that painted nothing are refused with store.ErrEmptyStroke.
func (s *DB) AppendStroke(ctx context.Context, layerID uuid.UUID, rec *stroke.Record) error {
	if rec.IsEmpty() {
		return fmt.Errorf("%w: record %d", store.ErrEmptyStroke, rec.SerialNumber())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT MAX(seq) + 1 FROM strokes WHERE layer_id=?), 0)
		FROM layers WHERE id=?;`, layerID.String(), layerID.String()).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: layer %s", store.ErrNotFound, layerID)
	}
	if err != nil {
		return err
	}
	if err := insertStroke(ctx, tx, layerID, next, rec); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE layers SET updated_at=? WHERE id=?;`,
		time.Now().UnixNano(), layerID.String()); err != nil {
		return err
	}
	return tx.Commit()
}

func insertStroke(ctx context.Context, tx *sql.Tx, layerID uuid.UUID, seq int, rec *stroke.Record) error {
	snap, err := rec.Snapshot()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO strokes(layer_id, seq, brush_config, parent_name, brush_state, stroke_data, painting_time)
		VALUES(?, ?, ?, ?, ?, ?, ?);`,
		layerID.String(), seq, nonNil(snap.BrushConfig), snap.ParentBrushName,
		nonNil(snap.BrushState), nonNil(snap.StrokeData), snap.TotalPaintingTime)
	return err
}

// LoadLayer reads a layer and its strokes. Stroke blobs are not validated;
// corrupt strokes are dropped when the layer is replayed.
func (s *DB) LoadLayer(ctx context.Context, id uuid.UUID) (*history.Layer, error) {
	var name string
	var dx, dy float64
	err := s.db.QueryRowContext(ctx, `SELECT name, dx, dy FROM layers WHERE id=?;`, id.String()).
		Scan(&name, &dx, &dy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: layer %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT brush_config, parent_name, brush_state, stroke_data, painting_time
		FROM strokes
		WHERE layer_id=?
		ORDER BY seq;`, id.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	l := history.NewLayerWithID(id, name)
	l.Translate(dx, dy)
	for rows.Next() {
		var snap stroke.Snapshot
		if err := rows.Scan(&snap.BrushConfig, &snap.ParentBrushName, &snap.BrushState,
			&snap.StrokeData, &snap.TotalPaintingTime); err != nil {
			return nil, err
		}
		if err := l.Append(stroke.Restore(snap)); err != nil {
			return nil, err
		}
	}
	return l, rows.Err()
}

// Layers lists stored layers ordered by name.
func (s *DB) Layers(ctx context.Context) ([]store.LayerInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.dx, l.dy, l.updated_at, COUNT(s.seq)
		FROM layers l
		LEFT JOIN strokes s ON s.layer_id = l.id
		GROUP BY l.id, l.name, l.dx, l.dy, l.updated_at
		ORDER BY l.name, l.id;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]store.LayerInfo, 0)
	for rows.Next() {
		var info store.LayerInfo
		var id string
		var updated int64
		if err := rows.Scan(&id, &info.Name, &info.DX, &info.DY, &updated, &info.Strokes); err != nil {
			return nil, err
		}
		info.UpdatedAt = time.Unix(0, updated).UTC()
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("sqlite: layer id %q: %w", id, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteLayer removes a layer and its strokes.
func (s *DB) DeleteLayer(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE id=?;`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: layer %s", store.ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM strokes WHERE layer_id=?;`, id.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// nonNil keeps nil blobs from being written as NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
