// Package events decodes raw transport frames into the typed event sum the
// rest of the agent consumes (spec §4.3). Anything off a URI the agent
// doesn't care about is dropped silently; anything on a URI it does care
// about but fails to parse is surfaced as a Decode error so the supervisor
// can log it without losing the connection.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/draftwatch/agent/internal/model"
	"github.com/draftwatch/agent/internal/transport"
)

// Subscriptions is the set of subscribe frames the transport sends on
// connect. A bare "OnJsonApiEvent" subscribes to every JSON API event the
// client emits; Decode then drops anything off a URI this package doesn't
// recognise, so new resources never need a new subscribe call.
var Subscriptions = []string{"OnJsonApiEvent"}

const (
	gameflowPhaseURI   = "/lol-gameflow/v1/gameflow-phase"
	champSelectSessionURI = "/lol-champ-select/v1/session"
)

// Event is the sum type the decoder produces. Exactly one of PhaseChanged
// or Session is non-nil.
type Event struct {
	PhaseChanged *PhaseChanged
	Session      *ChampSelectSnapshot
}

// PhaseChanged carries the new gameflow phase. Unknown phase strings map to
// model.PhaseNone rather than erroring, since the client's phase set has
// grown over time and an unrecognised phase is not actionable either way.
type PhaseChanged struct {
	Phase model.Phase
}

// ChampSelectSnapshot is the raw champ-select session payload, decoded just
// enough to hand to the draft model (internal/draft owns interpreting it).
type ChampSelectSnapshot struct {
	LocalPlayerCellID int                     `json:"localPlayerCellId"`
	MyTeam            []SessionTeamMember     `json:"myTeam"`
	TheirTeam         []SessionTeamMember     `json:"theirTeam"`
	Actions           [][]SessionAction       `json:"actions"`
	Bans              SessionBans             `json:"bans"`
}

type SessionTeamMember struct {
	CellID             int    `json:"cellId"`
	ChampionID         int    `json:"championId"`
	ChampionPickIntent int    `json:"championPickIntent"`
	AssignedPosition   string `json:"assignedPosition"` // "top".."support", "" if unassigned
}

type SessionAction struct {
	ActorCellID  int    `json:"actorCellId"`
	ChampionID   int    `json:"championId"`
	Type         string `json:"type"` // "pick" or "ban"
	Completed    bool   `json:"completed"`
	IsInProgress bool   `json:"isInProgress"`
}

type SessionBans struct {
	MyTeamBans    []int `json:"myTeamBans"`
	TheirTeamBans []int `json:"theirTeamBans"`
}

// Decoder turns transport.RawFrame values into Events.
type Decoder struct{}

// NewDecoder returns a stateless Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Decode interprets frame. A nil Event with a nil error means the frame was
// on a URI the agent ignores; that is the common case, not a failure.
func (d *Decoder) Decode(frame transport.RawFrame) (*Event, error) {
	switch frame.URI {
	case gameflowPhaseURI:
		var phase string
		if err := json.Unmarshal(frame.Payload, &phase); err != nil {
			return nil, fmt.Errorf("events: decode gameflow phase: %w", err)
		}
		return &Event{PhaseChanged: &PhaseChanged{Phase: mapPhase(phase)}}, nil

	case champSelectSessionURI:
		var snap ChampSelectSnapshot
		if err := json.Unmarshal(frame.Payload, &snap); err != nil {
			return nil, fmt.Errorf("events: decode champ select session: %w", err)
		}
		return &Event{Session: &snap}, nil

	default:
		return nil, nil
	}
}

var knownPhases = map[string]model.Phase{
	"None":        model.PhaseNone,
	"Lobby":       model.PhaseLobby,
	"Matchmaking": model.PhaseMatchmaking,
	"ReadyCheck":  model.PhaseReadyCheck,
	"ChampSelect": model.PhaseChampSelect,
	"InProgress":  model.PhaseInProgress,
	"WaitingForStats": model.PhasePostGame,
	"PreEndOfGame":    model.PhasePostGame,
	"EndOfGame":       model.PhasePostGame,
}

func mapPhase(raw string) model.Phase {
	if p, ok := knownPhases[raw]; ok {
		return p
	}
	return model.PhaseNone
}
