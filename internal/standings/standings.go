// Package standings is the direct-SQL store for the standings table: per
// team, per season, per season_type win/loss/tie splits. Grounded on the
// teacher's internal/notifications/store.go CRUD shape, generalized to the
// wider column set standings needs.
package standings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
)

// NumTeams is the fixed league size spec.md's "reset standings for all 32
// teams" (§4.8.4 step 5) assumes.
const NumTeams = 32

// Row is one team's standing for a (dynasty, season, season_type).
type Row struct {
	DynastyID         string
	TeamID            int
	Season            int
	SeasonType        eventstore.SeasonType
	Wins, Losses, Ties int
	DivisionWins, DivisionLosses, DivisionTies       int
	ConferenceWins, ConferenceLosses, ConferenceTies int
	HomeWins, HomeLosses, HomeTies                   int
	AwayWins, AwayLosses, AwayTies                    int
	PointsFor, PointsAgainst                          int
}

// Reset deletes any existing rows for (dynasty, season, season_type) and
// inserts a fresh 0-0-0 row for each of teamIDs (spec.md §4.8.4 step 5).
func Reset(ctx context.Context, db eventstore.Exec, dynastyID string, season int, seasonType eventstore.SeasonType, teamIDs []int) error {
	if _, err := db.ExecContext(ctx, `
		DELETE FROM standings WHERE dynasty_id = ? AND season = ? AND season_type = ?`,
		dynastyID, season, string(seasonType)); err != nil {
		return fmt.Errorf("reset standings: delete existing rows: %w", err)
	}
	for _, teamID := range teamIDs {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO standings (dynasty_id, team_id, season, season_type)
			VALUES (?, ?, ?, ?)`,
			dynastyID, teamID, season, string(seasonType)); err != nil {
			return fmt.Errorf("reset standings: insert team %d: %w", teamID, err)
		}
	}
	return nil
}

// GetByTeam returns a single team's standing row, or nil if absent.
func GetByTeam(ctx context.Context, db eventstore.Exec, dynastyID string, teamID, season int, seasonType eventstore.SeasonType) (*Row, error) {
	row := db.QueryRowContext(ctx, `
		SELECT dynasty_id, team_id, season, season_type, wins, losses, ties,
		       division_wins, division_losses, division_ties,
		       conference_wins, conference_losses, conference_ties,
		       home_wins, home_losses, home_ties,
		       away_wins, away_losses, away_ties,
		       points_for, points_against
		FROM standings WHERE dynasty_id = ? AND team_id = ? AND season = ? AND season_type = ?`,
		dynastyID, teamID, season, string(seasonType))
	var r Row
	var seasonTypeStr string
	err := row.Scan(&r.DynastyID, &r.TeamID, &r.Season, &seasonTypeStr, &r.Wins, &r.Losses, &r.Ties,
		&r.DivisionWins, &r.DivisionLosses, &r.DivisionTies,
		&r.ConferenceWins, &r.ConferenceLosses, &r.ConferenceTies,
		&r.HomeWins, &r.HomeLosses, &r.HomeTies,
		&r.AwayWins, &r.AwayLosses, &r.AwayTies,
		&r.PointsFor, &r.PointsAgainst)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get standing for team %d: %w", teamID, err)
	}
	r.SeasonType = eventstore.SeasonType(seasonTypeStr)
	return &r, nil
}

// GetBySeason returns every standing row for (dynasty, season, season_type).
func GetBySeason(ctx context.Context, db eventstore.Exec, dynastyID string, season int, seasonType eventstore.SeasonType) ([]Row, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT dynasty_id, team_id, season, season_type, wins, losses, ties,
		       division_wins, division_losses, division_ties,
		       conference_wins, conference_losses, conference_ties,
		       home_wins, home_losses, home_ties,
		       away_wins, away_losses, away_ties,
		       points_for, points_against
		FROM standings WHERE dynasty_id = ? AND season = ? AND season_type = ?`,
		dynastyID, season, string(seasonType))
	if err != nil {
		return nil, fmt.Errorf("get standings for season %d: %w", season, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var seasonTypeStr string
		if err := rows.Scan(&r.DynastyID, &r.TeamID, &r.Season, &seasonTypeStr, &r.Wins, &r.Losses, &r.Ties,
			&r.DivisionWins, &r.DivisionLosses, &r.DivisionTies,
			&r.ConferenceWins, &r.ConferenceLosses, &r.ConferenceTies,
			&r.HomeWins, &r.HomeLosses, &r.HomeTies,
			&r.AwayWins, &r.AwayLosses, &r.AwayTies,
			&r.PointsFor, &r.PointsAgainst); err != nil {
			return nil, fmt.Errorf("scan standing row: %w", err)
		}
		r.SeasonType = eventstore.SeasonType(seasonTypeStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ApplyGameResult atomically updates both teams' win/loss/tie splits
// (overall, home/away, and points) for one completed game. Division and
// conference splits are left to the caller's division/conference mapping
// (this package has no notion of league structure); ApplyGameResult only
// maintains overall/home/away/points, which every caller needs regardless
// of division alignment.
func ApplyGameResult(ctx context.Context, db eventstore.Exec, dynastyID string, season int, seasonType eventstore.SeasonType, homeTeamID, awayTeamID, homeScore, awayScore int) error {
	homeOutcome, awayOutcome := outcomes(homeScore, awayScore)

	if err := applyOneSide(ctx, db, dynastyID, season, seasonType, homeTeamID, homeOutcome, true, homeScore, awayScore); err != nil {
		return fmt.Errorf("apply game result: home team %d: %w", homeTeamID, err)
	}
	if err := applyOneSide(ctx, db, dynastyID, season, seasonType, awayTeamID, awayOutcome, false, awayScore, homeScore); err != nil {
		return fmt.Errorf("apply game result: away team %d: %w", awayTeamID, err)
	}
	return nil
}

type outcome int

const (
	outcomeLoss outcome = iota
	outcomeWin
	outcomeTie
)

func outcomes(homeScore, awayScore int) (home, away outcome) {
	switch {
	case homeScore > awayScore:
		return outcomeWin, outcomeLoss
	case awayScore > homeScore:
		return outcomeLoss, outcomeWin
	default:
		return outcomeTie, outcomeTie
	}
}

func applyOneSide(ctx context.Context, db eventstore.Exec, dynastyID string, season int, seasonType eventstore.SeasonType, teamID int, result outcome, isHome bool, pointsFor, pointsAgainst int) error {
	winCol, lossCol, tieCol := "home_wins", "home_losses", "home_ties"
	if !isHome {
		winCol, lossCol, tieCol = "away_wins", "away_losses", "away_ties"
	}

	var deltaWin, deltaLoss, deltaTie int
	switch result {
	case outcomeWin:
		deltaWin = 1
	case outcomeLoss:
		deltaLoss = 1
	case outcomeTie:
		deltaTie = 1
	}

	query := fmt.Sprintf(`
		UPDATE standings
		SET wins = wins + ?, losses = losses + ?, ties = ties + ?,
		    %s = %s + ?, %s = %s + ?, %s = %s + ?,
		    points_for = points_for + ?, points_against = points_against + ?
		WHERE dynasty_id = ? AND team_id = ? AND season = ? AND season_type = ?`,
		winCol, winCol, lossCol, lossCol, tieCol, tieCol)

	res, err := db.ExecContext(ctx, query,
		deltaWin, deltaLoss, deltaTie,
		deltaWin, deltaLoss, deltaTie,
		pointsFor, pointsAgainst,
		dynastyID, teamID, season, string(seasonType))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no standings row for team %d (dynasty=%s season=%d type=%s)", teamID, dynastyID, season, seasonType)
	}
	return nil
}
