// Package store records acquisition cycles in a SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Cycle is one recorded acquisition outcome.
type Cycle struct {
	Session      uuid.UUID
	Seq          int
	Time         time.Time
	Kind         string
	TemperatureC float64 // ambient given to the algorithm
	HumidityPct  float64
	Status       string
	O3ppb        float64
	NO2ppb       float64
	FastAQI      int
	EPAAQI       int
	Rmox         []float64
	ErrCode      string
}

type Store struct {
	*sql.DB
	session uuid.UUID
}

// Open opens or creates the database at path and starts a new session.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			started           TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			tracking          TEXT
		);
		CREATE TABLE IF NOT EXISTS cycles (
			session_id        TEXT,
			seq               BIGINT,
			ts_ms             BIGINT,
			kind              TEXT,
			temperature_c     DOUBLE,
			humidity_pct      DOUBLE,
			status            TEXT,
			o3_ppb            DOUBLE,
			no2_ppb           DOUBLE,
			fast_aqi          BIGINT,
			epa_aqi           BIGINT,
			rmox              TEXT,
			err_code          TEXT,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	id := uuid.New()
	if _, err := db.Exec("INSERT INTO sessions (session_id) VALUES (?)", id.String()); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db, session: id}, nil
}

// Session is the id stamped on every cycle written through this Store.
func (s *Store) Session() uuid.UUID { return s.session }

// SetTracking attaches the sensor tracking number to the session.
func (s *Store) SetTracking(tracking string) error {
	_, err := s.Exec("UPDATE sessions SET tracking = ? WHERE session_id = ?", tracking, s.session.String())
	return err
}

func (s *Store) Record(c Cycle) error {
	rmox, err := json.Marshal(c.Rmox)
	if err != nil {
		return err
	}
	_, err = s.Exec(`INSERT INTO cycles
		(session_id, seq, ts_ms, kind, temperature_c, humidity_pct, status,
		 o3_ppb, no2_ppb, fast_aqi, epa_aqi, rmox, err_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session.String(), c.Seq, c.Time.UnixMilli(), c.Kind, c.TemperatureC, c.HumidityPct, c.Status,
		c.O3ppb, c.NO2ppb, c.FastAQI, c.EPAAQI, string(rmox), c.ErrCode)
	return err
}

// Recent returns up to n cycles of any session, newest first.
func (s *Store) Recent(n int) ([]Cycle, error) {
	rows, err := s.Query(`SELECT session_id, seq, ts_ms, kind, temperature_c, humidity_pct, status, o3_ppb, no2_ppb,
		fast_aqi, epa_aqi, rmox, err_code
		FROM cycles ORDER BY ts_ms DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cycle
	for rows.Next() {
		var (
			c    Cycle
			sid  string
			ts   int64
			rmox string
		)
		if err := rows.Scan(&sid, &c.Seq, &ts, &c.Kind, &c.TemperatureC, &c.HumidityPct, &c.Status, &c.O3ppb, &c.NO2ppb,
			&c.FastAQI, &c.EPAAQI, &rmox, &c.ErrCode); err != nil {
			return nil, err
		}
		if c.Session, err = uuid.Parse(sid); err != nil {
			return nil, err
		}
		c.Time = time.UnixMilli(ts)
		if err := json.Unmarshal([]byte(rmox), &c.Rmox); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
