package usecase

import (
	"testing"
	"time"
)

func TestAllLeagues_CopiesConfigured(t *testing.T) {
	t.Parallel()

	configured := []int{39, 140, 135}
	got := AllLeagues(time.Now(), configured)

	if len(got) != 3 {
		t.Fatalf("expected all leagues, got %v", got)
	}
	got[0] = 0
	if configured[0] != 39 {
		t.Fatal("expected selector to return a copy")
	}
}

func TestDailyRotation_WalksOneLeaguePerDay(t *testing.T) {
	t.Parallel()

	selector := DailyRotation([]int{39, 140, 135})
	configured := []int{39, 140, 135}

	day := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	var picks []int
	for i := 0; i < 4; i++ {
		got := selector(day.AddDate(0, 0, i), configured)
		if len(got) != 1 {
			t.Fatalf("expected single league per day, got %v", got)
		}
		picks = append(picks, got[0])
	}

	// YearDay 1..4 against a three-entry rotation.
	want := []int{140, 135, 39, 140}
	for i := range want {
		if picks[i] != want[i] {
			t.Fatalf("day %d: expected league %d, got %d", i, want[i], picks[i])
		}
	}

	// The same instant always yields the same pick.
	again := selector(day, configured)
	if again[0] != picks[0] {
		t.Fatalf("expected deterministic pick, got %d then %d", picks[0], again[0])
	}
}

func TestDailyRotation_EmptyRotationFallsBack(t *testing.T) {
	t.Parallel()

	selector := DailyRotation(nil)
	got := selector(time.Now(), []int{39, 140})
	if len(got) != 2 {
		t.Fatalf("expected all configured leagues, got %v", got)
	}
}
