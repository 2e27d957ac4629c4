package fixture

import (
	"testing"
	"time"
)

func TestRegistrable_OnlyNotStarted(t *testing.T) {
	t.Parallel()

	base := Fixture{
		ExternalID: "100",
		HomeTeam:   "A",
		AwayTeam:   "B",
		KickoffAt:  time.Date(2026, time.March, 1, 17, 0, 0, 0, time.UTC),
	}

	for _, status := range []string{"NS", "ns", " NS "} {
		item := base
		item.Status = status
		if !item.Registrable() {
			t.Fatalf("expected registrable for status=%q", status)
		}
	}

	for _, status := range []string{"FT", "1H", "HT", "PST", "CANC", ""} {
		item := base
		item.Status = status
		if item.Registrable() {
			t.Fatalf("expected not registrable for status=%q", status)
		}
	}
}

func TestRegistrable_RejectsIncompleteFixtures(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, time.March, 1, 17, 0, 0, 0, time.UTC)
	cases := []Fixture{
		{ExternalID: "", HomeTeam: "A", AwayTeam: "B", KickoffAt: kickoff, Status: StatusNotStarted},
		{ExternalID: "100", HomeTeam: "", AwayTeam: "B", KickoffAt: kickoff, Status: StatusNotStarted},
		{ExternalID: "100", HomeTeam: "A", AwayTeam: " ", KickoffAt: kickoff, Status: StatusNotStarted},
		{ExternalID: "100", HomeTeam: "A", AwayTeam: "B", Status: StatusNotStarted},
	}
	for i, item := range cases {
		if item.Registrable() {
			t.Fatalf("case %d: expected not registrable: %+v", i, item)
		}
	}
}

func TestIsFullTimeStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"FT", "AET", "PEN", "ft"} {
		if !IsFullTimeStatus(status) {
			t.Fatalf("expected full-time for status=%q", status)
		}
	}
	for _, status := range []string{"NS", "1H", "HT", "2H", "ET", "LIVE", "SUSP", ""} {
		if IsFullTimeStatus(status) {
			t.Fatalf("expected not full-time for status=%q", status)
		}
	}
}

func TestIsCancelledLikeStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"PST", "CANC", "ABD", "canc"} {
		if !IsCancelledLikeStatus(status) {
			t.Fatalf("expected cancelled-like for status=%q", status)
		}
	}
	for _, status := range []string{"NS", "FT", "SUSP", ""} {
		if IsCancelledLikeStatus(status) {
			t.Fatalf("expected not cancelled-like for status=%q", status)
		}
	}
}

func TestScoreResultFinished(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"FT", "AET", "PEN", "ft", " pen "} {
		result := ScoreResult{Status: NormalizeStatus(status), HomeScore: 2, AwayScore: 1, HasGoals: true}
		if !result.Finished() {
			t.Fatalf("expected %q with goals to be finished", status)
		}
	}

	for _, status := range []string{"NS", "1H", "HT", "2H", "LIVE", "CANC", "PST", ""} {
		result := ScoreResult{Status: NormalizeStatus(status), HomeScore: 2, AwayScore: 1, HasGoals: true}
		if result.Finished() {
			t.Fatalf("expected %q never to be finished", status)
		}
	}

	// Full-time without both goal counts is ambiguous provider data and
	// must not look like a 0-0 final.
	result := ScoreResult{Status: StatusFullTime}
	if result.Finished() {
		t.Fatal("expected full-time without goal counts to stay pending")
	}
}

func TestParseProviderTime(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, time.March, 1, 17, 0, 0, 0, time.UTC)

	cases := []string{
		"2026-03-01T17:00:00+00:00",
		"2026-03-01T18:00:00+01:00",
		"2026-03-01 17:00:00",
		"1772384400",
	}
	for _, raw := range cases {
		got, ok := ParseProviderTime(raw)
		if !ok {
			t.Fatalf("expected parse ok for %q", raw)
		}
		if !got.Equal(want) {
			t.Fatalf("unexpected time for %q: got=%s want=%s", raw, got, want)
		}
	}

	for _, raw := range []string{"", "not-a-date", "-42"} {
		if _, ok := ParseProviderTime(raw); ok {
			t.Fatalf("expected parse failure for %q", raw)
		}
	}
}
