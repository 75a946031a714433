package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"conecta/internal"
)

// DB is the sqlite side store: processed-workbook markers and the
// redemption audit log. The workbook itself stays the system of
// record; nothing here feeds the ledger.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS redemption_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  points INTEGER NOT NULL,
  amount TEXT NOT NULL,
  operator TEXT,
  redeemedAt TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_redemption_log_name ON redemption_log(name);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRedemption records an audit copy of a redemption that was
// appended to the workbook.
func (d *DB) InsertRedemption(name string, points int64, amount, operator, redeemedAt string) error {
	_, err := d.conn.Exec(`
INSERT INTO redemption_log (name, points, amount, operator, redeemedAt)
VALUES (?, ?, ?, ?, ?)
`, name, points, amount, operator, redeemedAt)
	return err
}

func (d *DB) ListRedemptions(name string) ([]internal.RedemptionEvent, error) {
	rows, err := d.conn.Query(`
SELECT name, points, redeemedAt, operator
FROM redemption_log WHERE name = ? ORDER BY redeemedAt DESC
`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RedemptionEvent
	for rows.Next() {
		var ev internal.RedemptionEvent
		var operator sql.NullString
		if err := rows.Scan(&ev.Name, &ev.Points, &ev.RedeemedAt, &operator); err != nil {
			return nil, err
		}
		ev.Operator = operator.String
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
