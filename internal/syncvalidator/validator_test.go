package syncvalidator

import (
	"errors"
	"testing"

	"github.com/sim-dynasty/season-cycle-engine/internal/apperrors"
	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
)

func TestComputeDrift(t *testing.T) {
	cal := calendar.NewDate(2024, 9, 10)
	db := calendar.NewDate(2024, 9, 8)
	drift := ComputeDrift(cal, db)
	if drift.DriftDays != 2 {
		t.Errorf("expected drift 2, got %d", drift.DriftDays)
	}
	if drift.Severity != apperrors.SeverityMinor {
		t.Errorf("expected minor severity, got %v", drift.Severity)
	}
}

func TestValidatePreSyncUninitializedCalendar(t *testing.T) {
	err := ValidatePreSync(calendar.Date{}, calendar.Preseason, nil, DefaultMaxAcceptableDrift)
	var fault *apperrors.Fault
	if !errors.As(err, &fault) || fault.Kind != apperrors.KindCalendarSyncInitialization {
		t.Fatalf("expected calendar initialization fault, got %v", err)
	}
}

func TestValidatePreSyncMissingDynastyState(t *testing.T) {
	err := ValidatePreSync(calendar.NewDate(2024, 9, 1), calendar.RegularSeason, nil, DefaultMaxAcceptableDrift)
	var fault *apperrors.Fault
	if !errors.As(err, &fault) || fault.Kind != apperrors.KindCalendarSyncInitialization {
		t.Fatalf("expected calendar initialization fault, got %v", err)
	}
}

func TestValidatePreSyncExcessiveDrift(t *testing.T) {
	state := &dynasty.State{CurrentDate: calendar.NewDate(2024, 9, 1), CurrentPhase: calendar.RegularSeason}
	err := ValidatePreSync(calendar.NewDate(2024, 9, 10), calendar.RegularSeason, state, DefaultMaxAcceptableDrift)
	var fault *apperrors.Fault
	if !errors.As(err, &fault) || fault.Kind != apperrors.KindCalendarSyncDrift {
		t.Fatalf("expected drift fault, got %v", err)
	}
	if fault.Severity != apperrors.SeverityMajor {
		t.Errorf("expected major severity for 9-day drift, got %v", fault.Severity)
	}
}

func TestValidatePreSyncPhaseMismatch(t *testing.T) {
	state := &dynasty.State{CurrentDate: calendar.NewDate(2024, 9, 1), CurrentPhase: calendar.Preseason}
	err := ValidatePreSync(calendar.NewDate(2024, 9, 2), calendar.RegularSeason, state, DefaultMaxAcceptableDrift)
	var fault *apperrors.Fault
	if !errors.As(err, &fault) || fault.Kind != apperrors.KindCalendarSyncPhase {
		t.Fatalf("expected phase fault, got %v", err)
	}
}

func TestValidatePreSyncClean(t *testing.T) {
	state := &dynasty.State{CurrentDate: calendar.NewDate(2024, 9, 1), CurrentPhase: calendar.RegularSeason}
	err := ValidatePreSync(calendar.NewDate(2024, 9, 2), calendar.RegularSeason, state, DefaultMaxAcceptableDrift)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestVerifyPostSyncDetectsMismatches(t *testing.T) {
	expected := calendar.NewDate(2024, 9, 2)
	state := &dynasty.State{CurrentDate: calendar.NewDate(2024, 9, 1), CurrentPhase: calendar.Preseason}

	report, err := VerifyPostSync(expected, calendar.RegularSeason, calendar.NewDate(2024, 9, 3), state)
	if err == nil {
		t.Fatal("expected a drift fault error")
	}
	if !report.HasMismatch() {
		t.Fatal("expected report to flag mismatches")
	}
	if !report.DBDateMismatch || !report.CalendarMismatch || !report.PhaseMismatch {
		t.Errorf("expected all three field mismatches, got %+v", report)
	}
}

func TestVerifyPostSyncClean(t *testing.T) {
	expected := calendar.NewDate(2024, 9, 2)
	state := &dynasty.State{CurrentDate: expected, CurrentPhase: calendar.RegularSeason}

	report, err := VerifyPostSync(expected, calendar.RegularSeason, expected, state)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.HasMismatch() {
		t.Errorf("expected clean report, got %+v", report)
	}
}
