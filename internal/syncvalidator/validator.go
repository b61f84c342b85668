// Package syncvalidator detects drift between the in-memory calendar
// (calendar.PhaseState) and the persisted dynasty.State (spec.md §4.4). It
// never mutates either side — only observes and classifies, the same
// defensive ordered-check style as the teacher's internal/fixture/seed.go
// (return the first failing check, don't try to repair it here).
package syncvalidator

import (
	"fmt"
	"strings"

	"github.com/sim-dynasty/season-cycle-engine/internal/apperrors"
	"github.com/sim-dynasty/season-cycle-engine/internal/calendar"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
)

// DefaultMaxAcceptableDrift is the drift_days threshold validate_pre_sync
// enforces unless the caller overrides it (spec.md §4.4).
const DefaultMaxAcceptableDrift = 3

// DriftInfo is the observation spec.md §4.4 names: how far apart the
// calendar and the database have drifted, and what to do about it.
type DriftInfo struct {
	DriftDays              int
	CalendarDate           calendar.Date
	DBDate                 calendar.Date
	Severity               apperrors.Severity
	Description            string
	RecoveryRecommendation []apperrors.RecoveryOption
}

// ComputeDrift measures calendarDate - dbDate in days and classifies it.
func ComputeDrift(calendarDate, dbDate calendar.Date) DriftInfo {
	days := calendarDate.DaysSince(dbDate)
	severity := apperrors.ClassifySeverity(days)
	return DriftInfo{
		DriftDays:    days,
		CalendarDate: calendarDate,
		DBDate:       dbDate,
		Severity:     severity,
		Description:  describeDrift(days, calendarDate, dbDate),
		RecoveryRecommendation: apperrors.RecoveryOptions(severity),
	}
}

func describeDrift(days int, calendarDate, dbDate calendar.Date) string {
	if days == 0 {
		return fmt.Sprintf("calendar (%s) and database (%s) agree", calendarDate, dbDate)
	}
	return fmt.Sprintf("calendar (%s) is %d day(s) ahead of database (%s)", calendarDate, days, dbDate)
}

// ValidatePreSync runs the four ordered checks spec.md §4.4 names and
// returns the first one that fails, or nil if every check passes.
// calendarDate is the zero Date when the calendar has not been
// initialized. dbState is nil when no DynastyState row exists yet.
func ValidatePreSync(calendarDate calendar.Date, calendarPhase calendar.SeasonPhase, dbState *dynasty.State, maxAcceptableDrift int) error {
	if calendarDate.IsZero() {
		return apperrors.New(apperrors.KindCalendarSyncInitialization, "calendar has not yielded a valid date")
	}
	if dbState == nil || dbState.CurrentDate.IsZero() {
		return apperrors.New(apperrors.KindCalendarSyncInitialization, "dynasty state has no current_date on record")
	}

	drift := ComputeDrift(calendarDate, dbState.CurrentDate)
	if abs(drift.DriftDays) > maxAcceptableDrift {
		return apperrors.Drift(drift.Severity, drift.Description)
	}

	if !strings.EqualFold(calendarPhase.String(), dbState.CurrentPhase.String()) {
		return apperrors.New(apperrors.KindCalendarSyncPhase,
			fmt.Sprintf("calendar phase %q does not match stored phase %q", calendarPhase.String(), dbState.CurrentPhase.String()))
	}
	return nil
}

// PostSyncReport is the outcome of verify_post_sync: every mismatch found
// between the expected post-write values and what the calendar/database
// actually show.
type PostSyncReport struct {
	DBDateMismatch     bool
	CalendarMismatch   bool
	PhaseMismatch      bool
	Drift              DriftInfo
	Mismatches         []string
}

// HasMismatch reports whether any check in the report failed.
func (r PostSyncReport) HasMismatch() bool {
	return r.DBDateMismatch || r.CalendarMismatch || r.PhaseMismatch || r.Drift.DriftDays != 0
}

// VerifyPostSync compares the state actually observed after a write
// against what was expected. Any non-zero drift raises a drift fault in
// addition to the returned report.
func VerifyPostSync(expectedDate calendar.Date, expectedPhase calendar.SeasonPhase, calendarDate calendar.Date, dbState *dynasty.State) (PostSyncReport, error) {
	report := PostSyncReport{}

	dbDate := calendar.Date{}
	dbPhase := calendar.SeasonPhase(-1)
	if dbState != nil {
		dbDate = dbState.CurrentDate
		dbPhase = dbState.CurrentPhase
	}

	if !dbDate.Equal(expectedDate) {
		report.DBDateMismatch = true
		report.Mismatches = append(report.Mismatches, fmt.Sprintf("db_date %s != expected %s", dbDate, expectedDate))
	}
	if !calendarDate.Equal(expectedDate) {
		report.CalendarMismatch = true
		report.Mismatches = append(report.Mismatches, fmt.Sprintf("calendar_date %s != expected %s", calendarDate, expectedDate))
	}
	if dbPhase != expectedPhase {
		report.PhaseMismatch = true
		report.Mismatches = append(report.Mismatches, fmt.Sprintf("phase %s != expected %s", dbPhase, expectedPhase))
	}

	report.Drift = ComputeDrift(calendarDate, dbDate)
	if report.Drift.DriftDays != 0 {
		report.Mismatches = append(report.Mismatches, report.Drift.Description)
		return report, apperrors.Drift(report.Drift.Severity, report.Drift.Description)
	}
	return report, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
