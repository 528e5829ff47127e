package barowatch

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// Reading is one compensated measurement, either from the locally attached
// sensor or from a serial-attached node.
type Reading struct {
	Source      string  `json:"source"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
	Timestamp   int64   `json:"timestamp"` // unix microseconds
}

// Recorder persists readings to sqlite and serves time-range queries.
type Recorder struct {
	db *sql.DB
}

func NewRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			timestamp   INTEGER NOT NULL,
			source      TEXT    NOT NULL,
			temperature REAL,
			pressure    REAL,
			PRIMARY KEY (timestamp, source)
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Recorder{db: db}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) Add(reading Reading) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO readings (timestamp, source, temperature, pressure)
		VALUES (?, ?, ?, ?)`,
		reading.Timestamp,
		reading.Source,
		reading.Temperature,
		reading.Pressure,
	)
	return err
}

// History returns all readings with timestamps in [start, end], oldest
// first.
func (r *Recorder) History(start, end int64) ([]Reading, error) {
	rows, err := r.db.Query(`
		SELECT timestamp, source, temperature, pressure
		FROM readings
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Reading
	for rows.Next() {
		var reading Reading
		err := rows.Scan(
			&reading.Timestamp,
			&reading.Source,
			&reading.Temperature,
			&reading.Pressure,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
