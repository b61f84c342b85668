package eventstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GameType is one of the six game-type tags spec.md §3.1 defines.
type GameType string

const (
	GameTypePreseason  GameType = "preseason"
	GameTypeRegular    GameType = "regular"
	GameTypeWildcard   GameType = "wildcard"
	GameTypeDivisional GameType = "divisional"
	GameTypeConference GameType = "conference"
	GameTypeSuperBowl  GameType = "super_bowl"
)

// SeasonType is the normalized season_type tag stored on events, games, and
// standings rows. Per spec.md §9's open question, "regular" and
// "regular_season" are unified to regular_season as the one canonical
// value (see DESIGN.md).
type SeasonType string

const (
	SeasonTypePreseason SeasonType = "preseason"
	SeasonTypeRegular   SeasonType = "regular_season"
	SeasonTypePlayoffs  SeasonType = "playoffs"
)

// EventType is the discriminator column on the polymorphic events table.
// "game" covers every GameEvent regardless of GameType; every other value
// identifies a distinct MilestoneEvent kind.
type EventType string

const (
	EventTypeGame EventType = "game"

	MilestonePreseasonStart   EventType = "preseason_start"
	MilestoneFreeAgencyOpen   EventType = "free_agency_open"
	MilestoneDraftDay         EventType = "draft_day"
	MilestoneTradeDeadline    EventType = "trade_deadline"
	MilestoneSeasonKickoff    EventType = "season_kickoff"
)

// GameParameters is the "parameters" object of a game event's payload
// (spec.md §6.2).
type GameParameters struct {
	Season     int        `json:"season"`
	SeasonType SeasonType `json:"season_type"`
	Week       int        `json:"week"`
	HomeTeamID int        `json:"home_team_id"`
	AwayTeamID int        `json:"away_team_id"`
}

// GameResults is the "results" object, present only once a game has been
// simulated.
type GameResults struct {
	HomeScore     int  `json:"home_score"`
	AwayScore     int  `json:"away_score"`
	WinnerTeamID  *int `json:"winner_team_id"`
}

// GamePayload is the full JSON payload of a game event.
type GamePayload struct {
	Parameters GameParameters         `json:"parameters"`
	Results    *GameResults           `json:"results"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// MilestonePayload is the JSON payload of a non-game milestone event.
type MilestonePayload struct {
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Results    map[string]interface{} `json:"results,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Event is the generic, polymorphic row stored in the events table
// (spec.md §4.1).
type Event struct {
	EventID     string
	EventType   EventType
	TimestampMs int64
	GameID      string // empty for milestone events
	DynastyID   string
	Data        json.RawMessage
}

// IsCompleted reports whether a game event's payload carries a non-null
// results object.
func (e *Event) IsCompleted() (bool, error) {
	if e.EventType != EventTypeGame {
		return false, nil
	}
	payload, err := e.GamePayload()
	if err != nil {
		return false, err
	}
	return payload.Results != nil, nil
}

// GamePayload decodes a game event's JSON payload.
func (e *Event) GamePayload() (*GamePayload, error) {
	var p GamePayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, fmt.Errorf("decode game payload for event %s: %w", e.EventID, err)
	}
	return &p, nil
}

// MilestonePayload decodes a milestone event's JSON payload.
func (e *Event) MilestonePayload() (*MilestonePayload, error) {
	var p MilestonePayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, fmt.Errorf("decode milestone payload for event %s: %w", e.EventID, err)
	}
	return &p, nil
}

// NewGameEvent builds an Event for a scheduled (not yet simulated) game.
func NewGameEvent(dynastyID, gameID string, timestampMs int64, params GameParameters) (Event, error) {
	payload := GamePayload{Parameters: params}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal game payload: %w", err)
	}
	return Event{
		EventID:     gameID,
		EventType:   EventTypeGame,
		TimestampMs: timestampMs,
		GameID:      gameID,
		DynastyID:   dynastyID,
		Data:        data,
	}, nil
}

// WithResults returns a copy of the event with its game payload's results
// populated, for the single mutation a game event ever undergoes (spec.md
// §3.3).
func (e Event) WithResults(results GameResults) (Event, error) {
	payload, err := e.GamePayload()
	if err != nil {
		return Event{}, err
	}
	payload.Results = &results
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal game payload with results: %w", err)
	}
	e.Data = data
	return e, nil
}

// PrefixClass is the coarse classification spec.md §6.2 assigns to a
// game_id by its prefix: "preseason_...", "playoff_...", anything else is
// regular-season. Completion predicates (internal/completion) filter on
// this, not on the finer-grained GameType (which distinguishes wildcard
// from divisional from conference from super_bowl within the playoff
// bucket, and is carried in the game's own parameters instead).
type PrefixClass string

const (
	PrefixPreseason PrefixClass = "preseason"
	PrefixPlayoff   PrefixClass = "playoff"
	PrefixRegular   PrefixClass = "regular"
)

// ClassifyGameID returns the PrefixClass for a game_id.
func ClassifyGameID(gameID string) PrefixClass {
	switch {
	case strings.HasPrefix(gameID, "preseason_"):
		return PrefixPreseason
	case strings.HasPrefix(gameID, "playoff_"):
		return PrefixPlayoff
	default:
		return PrefixRegular
	}
}
