// Package champions implements the Champion Registry (id <-> canonical
// name, lane-aptitude lookup). It is loaded once from an embedded data
// file and can be refreshed atomically from the vendor CDN without ever
// exposing a partially-built view to concurrent readers.
package champions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/draftwatch/agent/internal/model"
)

//go:embed data/champions.json
var embeddedData []byte

type rawChampion struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	Aptitude    map[string]int `json:"aptitude"`
}

// nameOverrides fixes historical id->canonical-name mappings that don't
// follow the straightforward "lowercase, strip punctuation" rule.
var nameOverrides = map[string]string{
	"MonkeyKing": "wukong",
}

// snapshot is one immutable view of the registry. Registry swaps the
// pointer to a new snapshot on refresh, so a reader holding a reference to
// an old snapshot never observes a torn update (spec's "concurrent lookups
// always see a consistent version").
type snapshot struct {
	byID map[int]model.Champion
}

// Registry maps champion id <-> canonical name and exposes lane-aptitude
// lookups.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// New loads the embedded baseline registry.
func New() (*Registry, error) {
	snap, err := decodeEmbeddedSnapshot(embeddedData)
	if err != nil {
		return nil, fmt.Errorf("champions: decode embedded data: %w", err)
	}
	r := &Registry{}
	r.current.Store(snap)
	return r, nil
}

func decodeEmbeddedSnapshot(raw []byte) (*snapshot, error) {
	var data map[string]rawChampion
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	byID := make(map[int]model.Champion, len(data))
	for idStr, rc := range data {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		byID[id] = toChampion(id, rc)
	}
	return &snapshot{byID: byID}, nil
}

func toChampion(id int, rc rawChampion) model.Champion {
	canonical := Normalize(rc.Name)
	if override, ok := nameOverrides[rc.Name]; ok {
		canonical = override
	}
	display := rc.DisplayName
	if display == "" {
		display = rc.Name
	}
	aptitude := make(map[model.Role]uint8, len(rc.Aptitude))
	for roleStr, weight := range rc.Aptitude {
		aptitude[model.Role(roleStr)] = uint8(weight)
	}
	return model.Champion{
		ID:            id,
		CanonicalName: canonical,
		DisplayNames:  map[string]string{"en_US": display},
		LaneAptitude:  aptitude,
	}
}

// Lookup returns the champion for id, if known.
func (r *Registry) Lookup(id int) (model.Champion, bool) {
	snap := r.current.Load()
	c, ok := snap.byID[id]
	return c, ok
}

// LookupByName returns the champion whose canonical name matches name
// (already normalised), if any.
func (r *Registry) LookupByName(canonicalName string) (model.Champion, bool) {
	snap := r.current.Load()
	for _, c := range snap.byID {
		if c.CanonicalName == canonicalName {
			return c, true
		}
	}
	return model.Champion{}, false
}

// Aptitude returns champion id's weight for lane, or 0 if unknown.
func (r *Registry) Aptitude(id int, lane model.Role) uint8 {
	c, ok := r.Lookup(id)
	if !ok {
		return 0
	}
	return c.LaneAptitude[lane]
}

// BestLane returns the lane with the highest aptitude score for id, and
// whether any aptitude data exists at all for that champion. Ties break by
// row index ascending because later candidates only replace the best on a
// strictly-greater score.
func (r *Registry) BestLane(id int) (model.Role, bool) {
	c, ok := r.Lookup(id)
	if !ok || len(c.LaneAptitude) == 0 {
		return model.RoleUnknown, false
	}
	best := model.Roles[0]
	bestScore := c.LaneAptitude[best]
	for _, lane := range model.Roles[1:] {
		if score := c.LaneAptitude[lane]; score > bestScore {
			best = lane
			bestScore = score
		}
	}
	return best, true
}

// Size reports how many champions the current snapshot holds.
func (r *Registry) Size() int {
	return len(r.current.Load().byID)
}

// Normalize applies the URL name-normalisation rule: lowercase, strip
// apostrophes/spaces/periods. It is idempotent: Normalize(Normalize(x)) ==
// Normalize(x), since the stripped characters never reappear and lowercase
// letters are already lowercase.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '\'', ' ', '.':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}
