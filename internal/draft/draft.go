// Package draft maintains the canonical DraftState for a champion-select
// session (spec §4.5): folding snapshots additively, placing allies by
// assigned position and enemies by inferred lane, and classifying each
// change into the hover/pick/lock_in vocabulary the Trigger Engine reads.
package draft

import (
	"github.com/draftwatch/agent/internal/champions"
	"github.com/draftwatch/agent/internal/events"
	"github.com/draftwatch/agent/internal/model"
	"github.com/draftwatch/agent/internal/role"
)

// PickEvent is one classified change the Trigger Engine should evaluate.
type PickEvent struct {
	Pick model.Pick
	Team model.Team
	Kind model.EventKind
}

type actionState struct {
	completed    bool
	isInProgress bool
}

// Model owns one session's DraftState and the bookkeeping needed to
// classify hover/pick/lock_in transitions across successive snapshots.
type Model struct {
	state    *model.DraftState
	registry *champions.Registry
	actions  map[int]actionState // actorCellId -> last observed action state
}

// New starts a fresh Model for sessionID. Call Reset on session change
// rather than constructing a new Model, so callers that hold a *Model
// reference keep seeing the right state.
func New(sessionID string, registry *champions.Registry) *Model {
	return &Model{
		state:    model.NewDraftState(sessionID),
		registry: registry,
		actions:  make(map[int]actionState),
	}
}

// Reset clears all draft state for a new session (spec: "session_id changes
// only at champion-select entry; all pick lists reset on change").
func (m *Model) Reset(sessionID string) {
	m.state = model.NewDraftState(sessionID)
	m.actions = make(map[int]actionState)
}

// State returns the current DraftState. Callers must not mutate it.
func (m *Model) State() *model.DraftState {
	return m.state
}

// PendingEnemyHover returns the first enemy pick that has a champion
// showing but has not yet completed, if any.
func (m *Model) PendingEnemyHover() *model.Pick {
	for _, p := range m.state.Enemies {
		if p != nil && p.HasChampion() && !p.Completed {
			return p
		}
	}
	return nil
}

// Apply folds snap into the draft state and returns the pick events
// produced by this update, in no particular order (the Trigger Engine
// imposes its own emission order).
func (m *Model) Apply(snap *events.ChampSelectSnapshot) []PickEvent {
	m.state.LocalCellID = snap.LocalPlayerCellID

	var out []PickEvent
	out = append(out, m.applyTeam(snap.MyTeam, model.TeamAlly)...)
	out = append(out, m.applyTeam(snap.TheirTeam, model.TeamEnemy)...)
	out = append(out, m.applyActions(snap.Actions)...)

	for _, id := range snap.Bans.MyTeamBans {
		m.state.Bans[id] = struct{}{}
	}
	for _, id := range snap.Bans.TheirTeamBans {
		m.state.Bans[id] = struct{}{}
	}

	return out
}

// applyTeam folds hover intents and lane placement for one side. It never
// unsets a champion already recorded (no data loss rule).
func (m *Model) applyTeam(members []events.SessionTeamMember, team model.Team) []PickEvent {
	var out []PickEvent
	rows := m.state.Allies[:]
	if team == model.TeamEnemy {
		rows = m.state.Enemies[:]
	}

	for _, member := range members {
		championID := member.ChampionID
		if championID == 0 {
			championID = member.ChampionPickIntent
		}
		if championID == 0 {
			continue
		}

		existing := findByCellID(rows, member.CellID)
		if existing != nil {
			if !existing.HasChampion() && member.ChampionID != 0 {
				existing.ChampionID = member.ChampionID
			}
			continue
		}
		if m.state.ChampionTaken(championID) {
			continue
		}

		// pick_order is this team's 1-indexed placement count (spec §3:
		// "pick_order: 1..5"), counted over picks placed on this side so far.
		pickOrder := len(compactNonNil(rows)) + 1

		pick := &model.Pick{
			CellID:        member.CellID,
			ChampionID:    championID,
			Team:          team,
			PickOrder:     pickOrder,
			IsLocalPlayer: team == model.TeamAlly && member.CellID == m.state.LocalCellID,
		}

		var lane model.Role
		if team == model.TeamAlly && member.AssignedPosition != "" {
			lane = model.Role(member.AssignedPosition)
		} else {
			var open [5]*model.Pick
			copy(open[:], rows)
			lane = role.Infer(m.registry, championID, pickOrder, role.OpenLanes(open))
		}
		pick.AssignedLane = lane

		m.placeInRow(rows, pick, lane)

		kind := model.EventHover
		if member.ChampionID != 0 {
			kind = model.EventPick
		}
		out = append(out, PickEvent{Pick: *pick, Team: team, Kind: kind})
	}
	return out
}

// placeInRow inserts pick into the row lane indicates, falling back to the
// first empty row (ties break ascending) when lane is unknown or occupied.
func (m *Model) placeInRow(rows []*model.Pick, pick *model.Pick, lane model.Role) {
	if row := model.RowOf(lane); row >= 0 && rows[row] == nil {
		rows[row] = pick
		return
	}
	for i := range rows {
		if rows[i] == nil {
			rows[i] = pick
			return
		}
	}
}

// applyActions folds the action grid into completion/lock-in transitions.
// A transition from not-completed to completed is a "pick"; a transition
// from isInProgress=true to isInProgress=false on an already-completed
// action is that pick's non-revocable "lock_in".
func (m *Model) applyActions(groups [][]events.SessionAction) []PickEvent {
	var out []PickEvent
	for _, group := range groups {
		for _, action := range group {
			if action.Type != "pick" || action.ChampionID == 0 {
				continue
			}
			prior := m.actions[action.ActorCellID]
			next := actionState{completed: action.Completed, isInProgress: action.IsInProgress}

			pick := m.findPick(action.ActorCellID)

			if action.Completed && !prior.completed && pick != nil {
				pick.Completed = true
				pick.ChampionID = action.ChampionID
				out = append(out, PickEvent{Pick: *pick, Team: pick.Team, Kind: model.EventPick})
			} else if action.Completed && prior.completed && prior.isInProgress && !action.IsInProgress && pick != nil {
				out = append(out, PickEvent{Pick: *pick, Team: pick.Team, Kind: model.EventLockIn})
			}

			m.actions[action.ActorCellID] = next
		}
	}
	return out
}

func (m *Model) findPick(cellID int) *model.Pick {
	if p := findByCellID(m.state.Allies[:], cellID); p != nil {
		return p
	}
	return findByCellID(m.state.Enemies[:], cellID)
}

func compactNonNil(rows []*model.Pick) []*model.Pick {
	var out []*model.Pick
	for _, p := range rows {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func findByCellID(rows []*model.Pick, cellID int) *model.Pick {
	for _, p := range rows {
		if p != nil && p.CellID == cellID {
			return p
		}
	}
	return nil
}
