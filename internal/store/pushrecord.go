package store

import (
	"database/sql"
	"log"
	"time"
)

// PushRecord is the per-day marker of whether a notification went out.
type PushRecord struct {
	DateKey    string
	Pushed     bool
	PushTime   string
	ReportType string
}

// HasPushed reports whether a successful push was recorded for the day.
// Missing records and read failures both count as "not pushed": the
// gate fails open, so a transiently unreadable store can cause a
// second push that day.
func (s *Store) HasPushed(dayKey string) bool {
	var pushed int
	err := s.conn.QueryRow(
		"SELECT pushed FROM push_records WHERE date_key = ?", dayKey,
	).Scan(&pushed)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		log.Printf("reading push record for %s: %v (treating as not pushed)", dayKey, err)
		return false
	}
	return pushed != 0
}

// RecordPush writes or overwrites the day's push record. Idempotent:
// calling it twice leaves the last write.
func (s *Store) RecordPush(dayKey, reportType string, when time.Time) error {
	_, err := s.conn.Exec(`
INSERT INTO push_records (date_key, pushed, push_time, report_type)
VALUES (?, 1, ?, ?)
ON CONFLICT(date_key) DO UPDATE SET
    pushed = 1,
    push_time = excluded.push_time,
    report_type = excluded.report_type`,
		dayKey, when.In(beijing).Format("2006-01-02 15:04:05"), reportType)
	return err
}

// GetPushRecord returns the day's record, or nil if none exists.
func (s *Store) GetPushRecord(dayKey string) (*PushRecord, error) {
	r := &PushRecord{DateKey: dayKey}
	var pushed int
	var pushTime, reportType sql.NullString
	err := s.conn.QueryRow(
		"SELECT pushed, push_time, report_type FROM push_records WHERE date_key = ?", dayKey,
	).Scan(&pushed, &pushTime, &reportType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Pushed = pushed != 0
	r.PushTime = pushTime.String
	r.ReportType = reportType.String
	return r, nil
}

// CleanupOld deletes push records, seen titles, and retained reports
// whose day key is older than retentionDays. Failures are logged, not
// fatal; unparsable keys are skipped.
func (s *Store) CleanupOld(retentionDays int) {
	if retentionDays < 1 {
		return
	}
	// A record aged exactly retentionDays is kept; only strictly older
	// day keys go. Zero-padded keys compare correctly as strings.
	cutoffKey := DayKey(Now().AddDate(0, 0, -retentionDays))

	rows, err := s.conn.Query("SELECT date_key FROM push_records")
	if err != nil {
		log.Printf("scanning push records for cleanup: %v", err)
		return
	}
	var expired []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			continue
		}
		if _, err := ParseDayKey(key); err != nil {
			log.Printf("skipping unparsable push record key %q", key)
			continue
		}
		if key < cutoffKey {
			expired = append(expired, key)
		}
	}
	rows.Close()

	for _, key := range expired {
		if _, err := s.conn.Exec("DELETE FROM push_records WHERE date_key = ?", key); err != nil {
			log.Printf("deleting push record %s: %v", key, err)
			continue
		}
		log.Printf("cleaned up expired push record %s", key)
	}

	// Seen titles and reports age out on the same schedule.
	if _, err := s.conn.Exec("DELETE FROM seen_titles WHERE date_key < ?", cutoffKey); err != nil {
		log.Printf("pruning seen titles: %v", err)
	}
	if _, err := s.conn.Exec("DELETE FROM reports WHERE date_key < ?", cutoffKey); err != nil {
		log.Printf("pruning reports: %v", err)
	}
}
