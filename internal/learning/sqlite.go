package learning

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists learned profiles so a venue keeps its history across
// restarts. Schema is created on open.
type SQLiteStore struct {
	db *sql.DB

	venueMu sync.Mutex
	writers map[string]*sync.Mutex
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS best_nights (
	venue_id       TEXT NOT NULL,
	time_slot      TEXT NOT NULL,
	avg_sound      REAL NOT NULL,
	avg_light      REAL NOT NULL,
	peak_occupancy INTEGER NOT NULL,
	score          REAL NOT NULL,
	day_of_week    INTEGER NOT NULL,
	date           TEXT NOT NULL,
	PRIMARY KEY (venue_id, time_slot)
);
CREATE TABLE IF NOT EXISTS venue_weeks (
	venue_id TEXT NOT NULL,
	week     TEXT NOT NULL,
	PRIMARY KEY (venue_id, week)
);`

// NewSQLiteStore opens (or creates) the learning database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open learning db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create learning schema: %w", err)
	}
	return &SQLiteStore{
		db:      db,
		writers: make(map[string]*sync.Mutex),
	}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordSession compares stats against the stored profile and upserts when
// the session is better. Per-venue writes are serialized.
func (s *SQLiteStore) RecordSession(venueID, timeSlot string, stats SessionStats) error {
	writer := s.venueWriter(venueID)
	writer.Lock()
	defer writer.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO venue_weeks (venue_id, week) VALUES (?, ?)`,
		venueID, weekKey(stats.Date),
	); err != nil {
		return fmt.Errorf("record week: %w", err)
	}

	existing, err := s.BestNightProfile(venueID, timeSlot)
	if err != nil {
		return err
	}
	if !betterSession(existing, stats) {
		return nil
	}

	p := profileFromStats(venueID, timeSlot, stats)
	_, err = s.db.Exec(
		`INSERT INTO best_nights (venue_id, time_slot, avg_sound, avg_light, peak_occupancy, score, day_of_week, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(venue_id, time_slot) DO UPDATE SET
			avg_sound = excluded.avg_sound,
			avg_light = excluded.avg_light,
			peak_occupancy = excluded.peak_occupancy,
			score = excluded.score,
			day_of_week = excluded.day_of_week,
			date = excluded.date`,
		p.VenueID, p.TimeSlot, p.AvgSound, p.AvgLight, p.PeakOccupancy, p.Score,
		int(p.DayOfWeek), p.Date.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// BestNightProfile returns the stored profile for the slot, or (nil, nil)
// when absent.
func (s *SQLiteStore) BestNightProfile(venueID, timeSlot string) (*Profile, error) {
	row := s.db.QueryRow(
		`SELECT avg_sound, avg_light, peak_occupancy, score, day_of_week, date
		 FROM best_nights WHERE venue_id = ? AND time_slot = ?`,
		venueID, timeSlot,
	)

	var (
		p       Profile
		weekday int
		date    string
	)
	err := row.Scan(&p.AvgSound, &p.AvgLight, &p.PeakOccupancy, &p.Score, &weekday, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	p.VenueID = venueID
	p.TimeSlot = timeSlot
	p.DayOfWeek = time.Weekday(weekday)
	if ts, perr := time.Parse(time.RFC3339, date); perr == nil {
		p.Date = ts
	}
	return &p, nil
}

// Learning returns the venue's profiles and weeks-of-data summary.
func (s *SQLiteStore) Learning(venueID string) (Learning, error) {
	rows, err := s.db.Query(
		`SELECT time_slot, avg_sound, avg_light, peak_occupancy, score, day_of_week, date
		 FROM best_nights WHERE venue_id = ?`,
		venueID,
	)
	if err != nil {
		return Learning{}, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	best := make(map[string]Profile)
	for rows.Next() {
		var (
			p       Profile
			weekday int
			date    string
		)
		if err := rows.Scan(&p.TimeSlot, &p.AvgSound, &p.AvgLight, &p.PeakOccupancy, &p.Score, &weekday, &date); err != nil {
			return Learning{}, fmt.Errorf("scan profile: %w", err)
		}
		p.VenueID = venueID
		p.DayOfWeek = time.Weekday(weekday)
		if ts, perr := time.Parse(time.RFC3339, date); perr == nil {
			p.Date = ts
		}
		best[p.TimeSlot] = p
	}
	if err := rows.Err(); err != nil {
		return Learning{}, fmt.Errorf("iterate profiles: %w", err)
	}

	var weeks int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM venue_weeks WHERE venue_id = ?`, venueID,
	).Scan(&weeks); err != nil {
		return Learning{}, fmt.Errorf("count weeks: %w", err)
	}

	return Learning{
		BestNights:  best,
		WeeksOfData: weeks,
		Confidence:  Confidence(weeks),
	}, nil
}

func (s *SQLiteStore) venueWriter(venueID string) *sync.Mutex {
	s.venueMu.Lock()
	defer s.venueMu.Unlock()

	w, ok := s.writers[venueID]
	if !ok {
		w = &sync.Mutex{}
		s.writers[venueID] = w
	}
	return w
}
