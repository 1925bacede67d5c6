package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/tongits/internal/multiplayer"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(table string, round int, winner string, at time.Time) multiplayer.RoundRecord {
	return multiplayer.RoundRecord{
		TableID:  multiplayer.TableID(table),
		Round:    round,
		Ending:   "empty_hand",
		Winner:   winner,
		Players:  []string{"host", "ann", "bob"},
		Points:   []int{0, 14, 31},
		Scores:   []int{round, 0, 0},
		PlayedAt: at,
	}
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := store.SaveRound(record("t1", 1, "host", time.Now())); err != nil {
		t.Fatalf("SaveRound() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()
	rounds, err := store.RecentRounds(10)
	if err != nil {
		t.Fatalf("RecentRounds() failed: %v", err)
	}
	if len(rounds) != 1 {
		t.Errorf("Expected 1 round after reopen, got %d", len(rounds))
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTemp(t)
	base := time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)

	if err := store.SaveRound(record("t1", 1, "host", base)); err != nil {
		t.Fatalf("SaveRound() failed: %v", err)
	}
	if err := store.SaveRound(record("t1", 2, "", base.Add(time.Minute))); err != nil {
		t.Fatalf("SaveRound() failed: %v", err)
	}

	rounds, err := store.RecentRounds(10)
	if err != nil {
		t.Fatalf("RecentRounds() failed: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("Expected 2 rounds, got %d", len(rounds))
	}

	// Newest first
	if rounds[0].Round != 2 || rounds[1].Round != 1 {
		t.Errorf("Rounds not newest first: %d, %d", rounds[0].Round, rounds[1].Round)
	}
	if rounds[0].Winner != "" {
		t.Errorf("Expected no winner, got %q", rounds[0].Winner)
	}
	if rounds[1].Winner != "host" {
		t.Errorf("Expected host to win round 1, got %q", rounds[1].Winner)
	}
	if !rounds[1].PlayedAt.Equal(base) {
		t.Errorf("Expected played at %v, got %v", base, rounds[1].PlayedAt)
	}

	seats := rounds[1].Seats
	if len(seats) != 3 {
		t.Fatalf("Expected 3 seats, got %d", len(seats))
	}
	if seats[2] != (SeatResult{Seat: 2, Name: "bob", Points: 31, Score: 0}) {
		t.Errorf("Unexpected seat line %+v", seats[2])
	}
}

func TestStoreRecentRoundsLimit(t *testing.T) {
	store := openTemp(t)
	base := time.Now()

	for i := 1; i <= 5; i++ {
		if err := store.SaveRound(record("t1", i, "host", base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("SaveRound() failed: %v", err)
		}
	}

	rounds, err := store.RecentRounds(3)
	if err != nil {
		t.Fatalf("RecentRounds() failed: %v", err)
	}
	if len(rounds) != 3 {
		t.Fatalf("Expected 3 rounds with limit, got %d", len(rounds))
	}
	if rounds[0].Round != 5 || rounds[2].Round != 3 {
		t.Errorf("Rounds not in expected order: %d..%d", rounds[0].Round, rounds[2].Round)
	}
	for _, r := range rounds {
		if len(r.Seats) != 3 {
			t.Errorf("Round %d: expected 3 seats, got %d", r.Round, len(r.Seats))
		}
	}
}

func TestStoreRejectsDuplicateRound(t *testing.T) {
	store := openTemp(t)
	rec := record("t1", 1, "host", time.Now())
	if err := store.SaveRound(rec); err != nil {
		t.Fatalf("SaveRound() failed: %v", err)
	}
	if err := store.SaveRound(rec); err == nil {
		t.Error("Expected error saving the same round twice")
	}

	// The failed insert must not leave seat rows behind.
	rounds, err := store.RecentRounds(10)
	if err != nil {
		t.Fatalf("RecentRounds() failed: %v", err)
	}
	if len(rounds) != 1 || len(rounds[0].Seats) != 3 {
		t.Errorf("Unexpected history after duplicate: %+v", rounds)
	}
}

func TestStoreRejectsMalformedRecord(t *testing.T) {
	store := openTemp(t)
	rec := record("t1", 1, "host", time.Now())
	rec.Points = rec.Points[:2]

	if err := store.SaveRound(rec); !errors.Is(err, ErrBadRecord) {
		t.Errorf("Expected ErrBadRecord, got %v", err)
	}
}

func TestStoreStandings(t *testing.T) {
	store := openTemp(t)
	base := time.Now()

	recs := []multiplayer.RoundRecord{
		record("t1", 1, "host", base),
		record("t1", 2, "ann", base.Add(time.Second)),
		record("t1", 3, "host", base.Add(2*time.Second)),
	}
	recs[1].Points = []int{9, 0, 20}
	for _, r := range recs {
		if err := store.SaveRound(r); err != nil {
			t.Fatalf("SaveRound() failed: %v", err)
		}
	}

	standings, err := store.Standings()
	if err != nil {
		t.Fatalf("Standings() failed: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("Expected 3 players, got %d", len(standings))
	}

	host := standings[0]
	if host.Name != "host" || host.Wins != 2 || host.Rounds != 3 || host.Points != 9 {
		t.Errorf("Unexpected leader %+v", host)
	}
	if standings[1].Name != "ann" || standings[1].Wins != 1 {
		t.Errorf("Expected ann second, got %+v", standings[1])
	}
	if standings[2].Name != "bob" || standings[2].Wins != 0 || standings[2].Points != 82 {
		t.Errorf("Expected bob last, got %+v", standings[2])
	}
}

func TestStoreClearHistory(t *testing.T) {
	store := openTemp(t)
	if err := store.SaveRound(record("t1", 1, "host", time.Now())); err != nil {
		t.Fatalf("SaveRound() failed: %v", err)
	}
	if err := store.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory() failed: %v", err)
	}

	rounds, _ := store.RecentRounds(10)
	if len(rounds) != 0 {
		t.Errorf("Expected empty history, got %d rounds", len(rounds))
	}
	standings, _ := store.Standings()
	if len(standings) != 0 {
		t.Errorf("Expected empty standings, got %d", len(standings))
	}
}
