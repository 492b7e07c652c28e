// Package model holds the domain vocabulary shared across draftwatch's
// subsystems (phase machine, draft model, role inference, trigger engine)
// so that none of them need to import each other just to share a type.
package model

import "fmt"

// Role is the closed set of lanes a pick can be assigned to.
type Role string

const (
	RoleTop     Role = "top"
	RoleJungle  Role = "jungle"
	RoleMiddle  Role = "middle"
	RoleBottom  Role = "bottom"
	RoleSupport Role = "support"
	RoleUnknown Role = "unknown"
)

// Roles lists the five real lanes in canonical row order (top=0 .. support=4).
var Roles = [5]Role{RoleTop, RoleJungle, RoleMiddle, RoleBottom, RoleSupport}

// RowOf returns the canonical lane row index for r, or -1 if r has no row
// (RoleUnknown).
func RowOf(r Role) int {
	for i, candidate := range Roles {
		if candidate == r {
			return i
		}
	}
	return -1
}

// Team distinguishes the local player's team from the opposing team.
type Team string

const (
	TeamAlly  Team = "ally"
	TeamEnemy Team = "enemy"
)

// Phase is the gameflow phase reported by the local client, collapsed to the
// states the agent cares about.
type Phase string

const (
	PhaseNone        Phase = "None"
	PhaseLobby       Phase = "Lobby"
	PhaseMatchmaking Phase = "Matchmaking"
	PhaseReadyCheck  Phase = "ReadyCheck"
	PhaseChampSelect Phase = "ChampSelect"
	PhaseInProgress  Phase = "InProgress"
	PhasePostGame    Phase = "PostGame"
)

// State is the agent's own lifecycle state, derived from a sequence of
// Phase values (several Phase values collapse into InQueue).
type State string

const (
	StateIdle        State = "Idle"
	StateInQueue     State = "InQueue"
	StateChampSelect State = "ChampSelect"
	StateInGame      State = "InGame"
	StatePostGame    State = "PostGame"
)

// EventKind is the commitment level of a champion choice, used by the
// Trigger Engine to decide whether a feature's configured trigger fires.
type EventKind string

const (
	EventHover     EventKind = "hover"
	EventPick      EventKind = "pick"
	EventLockIn    EventKind = "lock_in"
	EventGameStart EventKind = "game_start"
)

// Pick is one cell's champion selection within a draft.
type Pick struct {
	CellID        int
	ChampionID    int // 0 means "not yet selected"
	Team          Team
	PickOrder     int
	IsLocalPlayer bool
	Completed     bool
	AssignedLane  Role
}

// HasChampion reports whether a champion has been hovered or picked for p.
func (p Pick) HasChampion() bool { return p.ChampionID != 0 }

// DraftState is the evolving picture of one champion-select session.
type DraftState struct {
	SessionID   string
	LocalCellID int
	Allies      [5]*Pick // index 0=top .. 4=support, logical lane order
	Enemies     [5]*Pick
	Bans        map[int]struct{}
}

// NewDraftState returns an empty draft state for a fresh session.
func NewDraftState(sessionID string) *DraftState {
	return &DraftState{
		SessionID: sessionID,
		Bans:      make(map[int]struct{}),
	}
}

// AllyPicks returns the non-nil ally picks in lane order.
func (d *DraftState) AllyPicks() []*Pick {
	return compact(d.Allies[:])
}

// EnemyPicks returns the non-nil enemy picks in lane order.
func (d *DraftState) EnemyPicks() []*Pick {
	return compact(d.Enemies[:])
}

func compact(picks []*Pick) []*Pick {
	out := make([]*Pick, 0, len(picks))
	for _, p := range picks {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// LocalPick returns the ally pick belonging to the local player, if known.
func (d *DraftState) LocalPick() *Pick {
	for _, p := range d.Allies {
		if p != nil && p.IsLocalPlayer {
			return p
		}
	}
	return nil
}

// EnemyInLane returns the enemy occupying the same row as the local pick's
// assigned lane, if any.
func (d *DraftState) EnemyInLane(lane Role) *Pick {
	row := RowOf(lane)
	if row < 0 {
		return nil
	}
	return d.Enemies[row]
}

// ChampionTaken reports whether championID already appears anywhere in the
// draft (allies, enemies, or bans) — the one-appearance invariant from the
// data model.
func (d *DraftState) ChampionTaken(championID int) bool {
	if championID == 0 {
		return false
	}
	for _, p := range d.Allies {
		if p != nil && p.ChampionID == championID {
			return true
		}
	}
	for _, p := range d.Enemies {
		if p != nil && p.ChampionID == championID {
			return true
		}
	}
	_, banned := d.Bans[championID]
	return banned
}

// Champion is a registry entry: id/name mapping plus per-lane aptitude.
type Champion struct {
	ID            int
	CanonicalName string
	DisplayNames  map[string]string // locale -> display name
	LaneAptitude  map[Role]uint8
}

// BasicAuthUser is the literal username the local client's HTTP Basic auth
// always uses.
const BasicAuthUser = "riot"

// Credentials are the ephemeral local-client credentials the Client Locator
// extracts. Immutable once obtained; Generation bumps on every reacquire.
type Credentials struct {
	Host       string
	Port       int
	AuthToken  string
	Protocol   string
	Generation uint64
}

// BaseURL is the loopback origin the client API is served from.
func (c Credentials) BaseURL() string {
	protocol := c.Protocol
	if protocol == "" {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s:%d", protocol, c.Host, c.Port)
}

// Feature is the closed set of analytics features a trigger policy can
// enable.
type Feature string

const (
	FeatureMatchup       Feature = "matchup"
	FeatureMyCounters    Feature = "my_counters"
	FeatureEnemyCounters Feature = "enemy_counters"
	FeatureBuildGuide    Feature = "build_guide"
)

// TriggerFingerprint is the dedup key for a trigger intent; lifetime equals
// the session it was emitted in.
type TriggerFingerprint struct {
	Feature     Feature
	ChampionID  int
	OpponentID  int // 0 when absent
	Role        Role
	SessionID   string
	PhaseEpoch  int
}
