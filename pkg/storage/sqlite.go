package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"

	"github.com/bcgov/mmti-sync/pkg/records"
)

// SQLiteStore keeps documents as JSON payloads in a single table. It is
// meant for local runs and tests; queries go through json_extract.
type SQLiteStore struct {
	sql *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection, shared by every pipeline.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
  id           INTEGER PRIMARY KEY,
  collection   TEXT NOT NULL,
  project_code TEXT NOT NULL DEFAULT '',
  payload      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(collection, project_code);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{sql: db}, nil
}

func (d *SQLiteStore) Close(ctx context.Context) error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func sqliteWhere(coll Collection, f Filter) (string, []interface{}) {
	where := "WHERE collection = ?"
	args := []interface{}{string(coll)}
	if f.ProjectCode != "" {
		where += " AND project_code = ?"
		args = append(args, f.ProjectCode)
	}
	if len(f.AnyOf) > 0 {
		ors := make([]string, 0, len(f.AnyOf))
		for _, c := range f.AnyOf {
			path := "$." + c.Field
			if c.Contains != "" {
				ors = append(ors, "instr(COALESCE(json_extract(payload, ?), ''), ?) > 0")
				args = append(args, path, c.Contains)
				continue
			}
			ors = append(ors, "json_extract(payload, ?) = ?")
			args = append(args, path, c.Equals)
		}
		where += " AND (" + strings.Join(ors, " OR ") + ")"
	}
	return where, args
}

func (d *SQLiteStore) ListProjects(ctx context.Context, code string) ([]records.Project, error) {
	f := Filter{ProjectCode: code}
	where, args := sqliteWhere(Projects, f)
	rows, err := d.sql.QueryContext(ctx, "SELECT id, payload FROM documents "+where+" ORDER BY project_code, id", args...)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer rows.Close()

	var out []records.Project
	for rows.Next() {
		var (
			rowID   int64
			payload string
		)
		if err := rows.Scan(&rowID, &payload); err != nil {
			return nil, err
		}
		p := records.Project{
			ID:   gjson.Get(payload, "_id").String(),
			Code: gjson.Get(payload, "code").String(),
			Name: gjson.Get(payload, "name").String(),
		}
		if p.ID == "" {
			p.ID = strconv.FormatInt(rowID, 10)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *SQLiteStore) Find(ctx context.Context, coll Collection, f Filter, out interface{}) error {
	where, args := sqliteWhere(coll, f)
	rows, err := d.sql.QueryContext(ctx, "SELECT payload FROM documents "+where+" ORDER BY id", args...)
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return err
		}
		payloads = append(payloads, payload)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte("["+strings.Join(payloads, ",")+"]"), out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

func (d *SQLiteStore) InsertMany(ctx context.Context, coll Collection, docs []interface{}) (n int, err error) {
	if len(docs) == 0 {
		return 0, nil
	}
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, doc := range docs {
		payload, merr := json.Marshal(doc)
		if merr != nil {
			err = fmt.Errorf("encode %s document: %w", coll, merr)
			return 0, err
		}
		code := gjson.GetBytes(payload, codeField(coll)).String()
		if _, err = tx.ExecContext(ctx, `INSERT INTO documents(collection, project_code, payload) VALUES(?,?,?)`, string(coll), code, string(payload)); err != nil {
			return 0, fmt.Errorf("insert %s: %w", coll, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (d *SQLiteStore) DeleteMany(ctx context.Context, coll Collection, f Filter) (int64, error) {
	where, args := sqliteWhere(coll, f)
	res, err := d.sql.ExecContext(ctx, "DELETE FROM documents "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", coll, err)
	}
	return res.RowsAffected()
}

func (d *SQLiteStore) UpdateProject(ctx context.Context, code string, fields map[string]interface{}) (ok bool, err error) {
	if len(fields) == 0 {
		return false, nil
	}
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		rowID   int64
		payload string
	)
	err = tx.QueryRowContext(ctx, `SELECT id, payload FROM documents WHERE collection = ? AND project_code = ? ORDER BY id LIMIT 1`, string(Projects), code).Scan(&rowID, &payload)
	if err == sql.ErrNoRows {
		err = tx.Rollback()
		return false, err
	}
	if err != nil {
		return false, err
	}

	doc := map[string]interface{}{}
	if err = json.Unmarshal([]byte(payload), &doc); err != nil {
		return false, fmt.Errorf("decode project %q: %w", code, err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encode project %q: %w", code, err)
	}
	newCode := gjson.GetBytes(updated, "code").String()
	if _, err = tx.ExecContext(ctx, `UPDATE documents SET payload = ?, project_code = ? WHERE id = ?`, string(updated), newCode, rowID); err != nil {
		return false, fmt.Errorf("update project %q: %w", code, err)
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (d *SQLiteStore) CountByProject(ctx context.Context, coll Collection) (map[string]int64, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT project_code, COUNT(*) FROM documents WHERE collection = ? GROUP BY project_code`, string(coll))
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", coll, err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			code string
			n    int64
		)
		if err := rows.Scan(&code, &n); err != nil {
			return nil, err
		}
		counts[code] = n
	}
	return counts, rows.Err()
}
