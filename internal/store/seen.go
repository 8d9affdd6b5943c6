package store

import "fmt"

// SeenEntry is the per-title accumulation the daily summary keeps:
// the best composite score the title reached today, the rank it held
// when it did, and the first-seen link.
type SeenEntry struct {
	BestScore float64
	BestRank  int
	URL       string
}

// SeenTitles loads the day's seen registry with its score accumulator.
func (s *Store) SeenTitles(dayKey string) (map[string]SeenEntry, error) {
	rows, err := s.conn.Query(
		"SELECT title, best_score, best_rank, url FROM seen_titles WHERE date_key = ?", dayKey)
	if err != nil {
		return nil, fmt.Errorf("loading seen titles: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]SeenEntry)
	for rows.Next() {
		var title string
		var e SeenEntry
		if err := rows.Scan(&title, &e.BestScore, &e.BestRank, &e.URL); err != nil {
			return nil, fmt.Errorf("scanning seen title: %w", err)
		}
		seen[title] = e
	}
	return seen, rows.Err()
}

// UpsertSeen records titles into the day's registry. An existing row
// keeps its best score (ties on score keep the better rank) and its
// first-seen URL.
func (s *Store) UpsertSeen(dayKey string, entries map[string]SeenEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin seen upsert: %w", err)
	}
	stmt, err := tx.Prepare(`
INSERT INTO seen_titles (date_key, title, best_score, best_rank, url)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(date_key, title) DO UPDATE SET
    best_score = excluded.best_score,
    best_rank = excluded.best_rank
WHERE excluded.best_score > best_score
   OR (excluded.best_score = best_score AND excluded.best_rank < best_rank)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare seen upsert: %w", err)
	}
	defer stmt.Close()

	for title, e := range entries {
		if _, err := stmt.Exec(dayKey, title, e.BestScore, e.BestRank, e.URL); err != nil {
			tx.Rollback()
			return fmt.Errorf("upserting seen title %q: %w", title, err)
		}
	}
	return tx.Commit()
}
