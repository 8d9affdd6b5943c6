package store

import (
	"database/sql"
	"fmt"
	"time"
)

// StoredReport is a rendered report retained for browsing.
type StoredReport struct {
	ID          int64
	DateKey     string
	ReportType  string
	GeneratedAt string
	Body        string
}

// InsertReport retains a rendered report body for the day.
func (s *Store) InsertReport(dayKey, reportType string, generatedAt time.Time, body string) (int64, error) {
	res, err := s.conn.Exec(
		"INSERT INTO reports (date_key, report_type, generated_at, body_markdown) VALUES (?, ?, ?, ?)",
		dayKey, reportType, generatedAt.In(beijing).Format("2006-01-02 15:04:05"), body)
	if err != nil {
		return 0, fmt.Errorf("inserting report: %w", err)
	}
	return res.LastInsertId()
}

// GetReport returns one stored report by id, or nil if absent.
func (s *Store) GetReport(id int64) (*StoredReport, error) {
	r := &StoredReport{}
	err := s.conn.QueryRow(
		"SELECT id, date_key, report_type, generated_at, body_markdown FROM reports WHERE id = ?", id,
	).Scan(&r.ID, &r.DateKey, &r.ReportType, &r.GeneratedAt, &r.Body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecentReports returns up to limit reports, newest first.
func (s *Store) GetRecentReports(limit int) ([]StoredReport, error) {
	rows, err := s.conn.Query(
		"SELECT id, date_key, report_type, generated_at, body_markdown FROM reports ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var r StoredReport
		if err := rows.Scan(&r.ID, &r.DateKey, &r.ReportType, &r.GeneratedAt, &r.Body); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
