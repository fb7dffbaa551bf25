package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgerror"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS datasets (
	id   TEXT PRIMARY KEY,
	meta TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dataset_tables (
	dataset_id TEXT NOT NULL,
	variant    TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (dataset_id, variant)
);
CREATE TABLE IF NOT EXISTS anomalies (
	dataset_id TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	kind       TEXT    NOT NULL,
	action     TEXT    NOT NULL,
	data       TEXT    NOT NULL,
	PRIMARY KEY (dataset_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_anomalies_kind ON anomalies (dataset_id, kind, action);
`

// SQLiteStore keeps datasets in a single SQLite file. Tables and metadata
// are stored as JSON documents; anomalies get one row each so they can be
// filtered and paged in SQL.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	// A single connection keeps ":memory:" databases alive for the store's
	// lifetime.
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateDataset(ctx context.Context, meta entity.DatasetMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, meta) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, meta.ID, string(data))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerror.NewBusiness("dataset already exists", pkgerror.CodeConflict)
	}

	return nil
}

func (s *SQLiteStore) UpdateMeta(ctx context.Context, id string, fn func(meta *entity.DatasetMeta)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	meta, err := readMeta(ctx, tx, id)
	if err != nil {
		return err
	}

	fn(&meta)

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE datasets SET meta = ? WHERE id = ?`, string(data), id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, id string, result entity.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := readMeta(ctx, tx, id); err != nil {
		return err
	}

	if err := putTable(ctx, tx, id, entity.VariantCleaned, result.Cleaned); err != nil {
		return err
	}
	if err := putTable(ctx, tx, id, entity.VariantFiltered, result.Filtered); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM anomalies WHERE dataset_id = ?`, id); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO anomalies (dataset_id, seq, kind, action, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, a := range flatten(result.Diagnostics) {
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, id, i, string(a.Kind), string(a.Action), string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveFiltered(ctx context.Context, id string, filtered entity.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := readMeta(ctx, tx, id); err != nil {
		return err
	}
	if err := putTable(ctx, tx, id, entity.VariantFiltered, filtered); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetMeta(ctx context.Context, id string) (entity.DatasetMeta, error) {
	return readMeta(ctx, s.db, id)
}

func (s *SQLiteStore) GetTable(ctx context.Context, id string, variant entity.Variant) (entity.Table, entity.DatasetMeta, error) {
	meta, err := readMeta(ctx, s.db, id)
	if err != nil {
		return entity.Table{}, entity.DatasetMeta{}, err
	}

	var data string
	err = s.db.QueryRowContext(ctx,
		`SELECT data FROM dataset_tables WHERE dataset_id = ? AND variant = ?`, id, string(variant)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Table{}, meta, nil
	}
	if err != nil {
		return entity.Table{}, entity.DatasetMeta{}, err
	}

	var table entity.Table
	if err := json.Unmarshal([]byte(data), &table); err != nil {
		return entity.Table{}, entity.DatasetMeta{}, fmt.Errorf("decode %s table: %w", variant, err)
	}

	return table, meta, nil
}

func (s *SQLiteStore) ListAnomalies(ctx context.Context, id string, filter usecase.AnomalyFilter, page, pageSize int) ([]entity.Anomaly, int, entity.DatasetMeta, error) {
	meta, err := readMeta(ctx, s.db, id)
	if err != nil {
		return nil, 0, entity.DatasetMeta{}, err
	}

	where, args := anomalyWhere(id, filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anomalies WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, entity.DatasetMeta{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM anomalies WHERE `+where+` ORDER BY seq LIMIT ? OFFSET ?`,
		append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, entity.DatasetMeta{}, err
	}
	defer rows.Close()

	items := make([]entity.Anomaly, 0, pageSize)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, 0, entity.DatasetMeta{}, err
		}
		var a entity.Anomaly
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, 0, entity.DatasetMeta{}, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, entity.DatasetMeta{}, err
	}

	return items, total, meta, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readMeta(ctx context.Context, q queryer, id string) (entity.DatasetMeta, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT meta FROM datasets WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.DatasetMeta{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.DatasetMeta{}, err
	}

	var meta entity.DatasetMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return entity.DatasetMeta{}, fmt.Errorf("decode dataset meta: %w", err)
	}
	return meta, nil
}

func putTable(ctx context.Context, tx *sql.Tx, id string, variant entity.Variant, t entity.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dataset_tables (dataset_id, variant, data) VALUES (?, ?, ?)
		ON CONFLICT(dataset_id, variant) DO UPDATE SET data = excluded.data`,
		id, string(variant), string(data))
	return err
}

func anomalyWhere(id string, filter usecase.AnomalyFilter) (string, []any) {
	clauses := []string{"dataset_id = ?"}
	args := []any{id}

	if len(filter.Kinds) > 0 {
		clauses = append(clauses, "kind IN ("+placeholders(len(filter.Kinds))+")")
		for _, k := range filter.Kinds {
			args = append(args, string(k))
		}
	}
	if len(filter.Actions) > 0 {
		clauses = append(clauses, "action IN ("+placeholders(len(filter.Actions))+")")
		for _, a := range filter.Actions {
			args = append(args, string(a))
		}
	}

	return strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
