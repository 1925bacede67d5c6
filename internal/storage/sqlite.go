// Package storage provides SQLite-based persistence for resolved rounds.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tongits/internal/multiplayer"
)

// Store manages the SQLite database connection for round history.
type Store struct {
	db *sql.DB
}

// ErrBadRecord is returned for a round whose per-seat slices disagree.
var ErrBadRecord = errors.New("storage: malformed round record")

// SeatResult is one player's line in a saved round.
type SeatResult struct {
	Seat   int
	Name   string
	Points int // hand points at the end of the round
	Score  int // rounds won so far at the table
}

// RoundEntry is a saved round.
type RoundEntry struct {
	ID       int64
	TableID  string
	Round    int
	Ending   string
	Winner   string // empty if nobody won
	Seats    []SeatResult
	PlayedAt time.Time
}

// Standing aggregates every saved round a player took part in.
type Standing struct {
	Name       string
	Rounds     int
	Wins       int
	Points     int
	LastPlayed time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows one writer; rounds are saved from background goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			ending TEXT NOT NULL,
			winner TEXT,
			played_at INTEGER NOT NULL,
			UNIQUE (table_id, round)
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_played_at ON rounds(played_at DESC);

		CREATE TABLE IF NOT EXISTS round_players (
			round_id INTEGER NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			name TEXT NOT NULL,
			points INTEGER NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (round_id, seat)
		);
		CREATE INDEX IF NOT EXISTS idx_round_players_name ON round_players(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRound implements multiplayer.RoundSaver. Saving the same round of
// the same table twice is an error.
func (s *Store) SaveRound(rec multiplayer.RoundRecord) error {
	_, err := s.InsertRound(rec)
	return err
}

// Ensure Store implements RoundSaver
var _ multiplayer.RoundSaver = (*Store)(nil)

// InsertRound records a resolved round and returns its ID.
func (s *Store) InsertRound(rec multiplayer.RoundRecord) (int64, error) {
	if len(rec.Players) == 0 || len(rec.Points) != len(rec.Players) || len(rec.Scores) != len(rec.Players) {
		return 0, ErrBadRecord
	}
	playedAt := rec.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO rounds (table_id, round, ending, winner, played_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(rec.TableID), rec.Round, rec.Ending, nullString(rec.Winner), playedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save round: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	for seat, name := range rec.Players {
		if _, err := tx.Exec(
			`INSERT INTO round_players (round_id, seat, name, points, score)
			 VALUES (?, ?, ?, ?, ?)`,
			id, seat, name, rec.Points[seat], rec.Scores[seat],
		); err != nil {
			return 0, fmt.Errorf("storage: cannot save seat %d: %w", seat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit round: %w", err)
	}
	return id, nil
}

// RecentRounds retrieves the most recent rounds, newest first.
func (s *Store) RecentRounds(limit int) ([]RoundEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT r.id, r.table_id, r.round, r.ending, r.winner, r.played_at,
		        p.seat, p.name, p.points, p.score
		 FROM (SELECT * FROM rounds ORDER BY played_at DESC, id DESC LIMIT ?) r
		 JOIN round_players p ON p.round_id = r.id
		 ORDER BY r.played_at DESC, r.id DESC, p.seat`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rounds: %w", err)
	}
	defer rows.Close()

	var entries []RoundEntry
	for rows.Next() {
		var (
			e        RoundEntry
			winner   sql.NullString
			playedAt int64
			seat     SeatResult
		)
		if err := rows.Scan(
			&e.ID, &e.TableID, &e.Round, &e.Ending, &winner, &playedAt,
			&seat.Seat, &seat.Name, &seat.Points, &seat.Score,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		if n := len(entries); n == 0 || entries[n-1].ID != e.ID {
			if winner.Valid {
				e.Winner = winner.String
			}
			e.PlayedAt = time.Unix(0, playedAt)
			entries = append(entries, e)
		}
		last := &entries[len(entries)-1]
		last.Seats = append(last.Seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// Standings ranks every player by rounds won, then by fewest total points.
func (s *Store) Standings() ([]Standing, error) {
	rows, err := s.db.Query(
		`SELECT p.name,
		        COUNT(*),
		        SUM(CASE WHEN r.winner = p.name THEN 1 ELSE 0 END) AS wins,
		        SUM(p.points) AS points,
		        MAX(r.played_at)
		 FROM round_players p
		 JOIN rounds r ON r.id = p.round_id
		 GROUP BY p.name
		 ORDER BY wins DESC, points ASC, p.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var st Standing
		var last int64
		if err := rows.Scan(&st.Name, &st.Rounds, &st.Wins, &st.Points, &last); err != nil {
			return nil, fmt.Errorf("storage: cannot scan standings row: %w", err)
		}
		st.LastPlayed = time.Unix(0, last)
		out = append(out, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

// ClearHistory deletes every saved round.
func (s *Store) ClearHistory() error {
	// round_players rows go first; foreign keys are off by default in SQLite.
	if _, err := s.db.Exec("DELETE FROM round_players"); err != nil {
		return fmt.Errorf("storage: cannot clear history: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM rounds"); err != nil {
		return fmt.Errorf("storage: cannot clear history: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
