// Package role implements lane inference (spec §4.6): deriving a pick's
// assigned_lane from champion lane-aptitude plus pick-order, for the cases
// where the client itself does not dictate a lane.
package role

import (
	"github.com/draftwatch/agent/internal/champions"
	"github.com/draftwatch/agent/internal/model"
)

// soloLaneOrder and lateLaneOrder break aptitude ties by pick
// order: earlier picks lean toward the solo lanes (top/jungle), later picks
// toward bottom/support.
var (
	soloLaneOrder    = []model.Role{model.RoleTop, model.RoleJungle, model.RoleMiddle, model.RoleBottom, model.RoleSupport}
	lateLaneOrder    = []model.Role{model.RoleSupport, model.RoleBottom, model.RoleMiddle, model.RoleJungle, model.RoleTop}
)

// Infer derives a lane for championID given its position in the pick order
// (1-indexed, matching model.Pick.PickOrder) and which of the occupied
// rows are still open. It never returns a lane outside open, and returns
// model.RoleUnknown when nothing fits.
func Infer(registry *champions.Registry, championID int, pickOrder int, open []model.Role) model.Role {
	if len(open) == 0 {
		return model.RoleUnknown
	}

	champ, ok := registry.Lookup(championID)
	if ok && len(champ.LaneAptitude) > 0 {
		best := model.RoleUnknown
		var bestScore uint8
		for _, lane := range preferenceOrder(pickOrder) {
			if !contains(open, lane) {
				continue
			}
			score := champ.LaneAptitude[lane]
			if best == model.RoleUnknown || score > bestScore {
				best = lane
				bestScore = score
			}
		}
		if best != model.RoleUnknown {
			return best
		}
	}

	return open[0]
}

// preferenceOrder picks the tie-break ordering for a given pick slot:
// first-to-pick lean solo lanes, last-to-pick lean support/bottom.
func preferenceOrder(pickOrder int) []model.Role {
	if pickOrder >= 4 {
		return lateLaneOrder
	}
	return soloLaneOrder
}

func contains(roles []model.Role, r model.Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// OpenLanes returns the lanes not yet occupied in rows (indexed per
// model.RowOf).
func OpenLanes(rows [5]*model.Pick) []model.Role {
	var open []model.Role
	for i, lane := range model.Roles {
		if rows[i] == nil {
			open = append(open, lane)
		}
	}
	return open
}
