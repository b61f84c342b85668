package calendar

import "testing"

func TestDeriveSeasonYear(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want int
	}{
		{"august boundary", NewDate(2024, 8, 1), 2024},
		{"mid season december", NewDate(2024, 12, 25), 2024},
		{"new year january", NewDate(2025, 1, 15), 2024},
		{"july still prior season", NewDate(2025, 7, 31), 2024},
		{"next august rolls over", NewDate(2025, 8, 1), 2025},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveSeasonYear(tt.date); got != tt.want {
				t.Errorf("DeriveSeasonYear(%s) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := NewDate(2024, 9, 5)
	s := d.String()
	parsed, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !parsed.Equal(d) {
		t.Errorf("round trip mismatch: got %s, want %s", parsed, d)
	}
}

func TestAddDaysMonotonic(t *testing.T) {
	d := NewDate(2024, 8, 31)
	next := d.AddDays(1)
	if !next.After(d) {
		t.Errorf("expected %s after %s", next, d)
	}
	if next.Year != 2024 || next.Month != 9 || next.Day != 1 {
		t.Errorf("expected 2024-09-01, got %s", next)
	}
}

func TestUnixMillisRoundTrip(t *testing.T) {
	d := NewDate(2024, 8, 2)
	ms := d.UnixMillis()
	back := FromUnixMillis(ms)
	if !back.Equal(d) {
		t.Errorf("round trip mismatch: got %s, want %s", back, d)
	}
}

func TestPhaseParseCaseInsensitive(t *testing.T) {
	for _, s := range []string{"REGULAR_SEASON", "regular_season", "Regular_Season"} {
		p, ok := ParsePhase(s)
		if !ok || p != RegularSeason {
			t.Errorf("ParsePhase(%q) = %v, %v; want RegularSeason, true", s, p, ok)
		}
	}
	if _, ok := ParsePhase("bogus"); ok {
		t.Error("expected ParsePhase(\"bogus\") to fail")
	}
}

func TestPhaseStateListenerPanicSwallowed(t *testing.T) {
	ps := NewPhaseState(Preseason, 2024, nil)
	called := false
	ps.AddListener(func(from, to SeasonPhase, year int) {
		panic("boom")
	})
	ps.AddListener(func(from, to SeasonPhase, year int) {
		called = true
	})
	ps.SetPhase(RegularSeason)
	if !called {
		t.Error("second listener should still run after first panics")
	}
	if ps.Phase() != RegularSeason {
		t.Errorf("phase = %v, want RegularSeason", ps.Phase())
	}
}

func TestPhaseStateNoNotifyOnNoChange(t *testing.T) {
	ps := NewPhaseState(Preseason, 2024, nil)
	count := 0
	ps.AddListener(func(from, to SeasonPhase, year int) { count++ })
	ps.SetPhase(Preseason)
	if count != 0 {
		t.Errorf("expected no notification for unchanged phase, got %d calls", count)
	}
}
