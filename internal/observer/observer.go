// Package observer defines the narrow interface core subsystems use to
// report state changes, dispatches, and errors outward (spec §9's
// replacement for the excluded UI's tight coupling), plus an optional
// loopback WebSocket broadcaster that lets an external process subscribe
// without ever being a required collaborator.
package observer

import (
	"github.com/draftwatch/agent/internal/model"
)

// Observer is implemented by anything that wants to watch the agent run.
// The Supervisor calls these on every relevant transition; absence of any
// registered Observer must not change core behaviour.
type Observer interface {
	OnStateChange(state model.State, draft *model.DraftState)
	OnDispatch(url string, feature model.Feature)
	OnError(kind string, err error)
}

// Multi fans a single call out to every attached Observer. A nil Multi (or
// one with no attached observers) is a valid no-op — satisfies "absence of
// any observer must not change core behaviour."
type Multi struct {
	observers []Observer
}

// NewMulti returns a Multi fanning out to observers.
func NewMulti(observers ...Observer) *Multi {
	return &Multi{observers: observers}
}

// Attach adds an Observer at runtime (e.g. a settings UI process dialing
// in after startup).
func (m *Multi) Attach(o Observer) {
	m.observers = append(m.observers, o)
}

func (m *Multi) OnStateChange(state model.State, draft *model.DraftState) {
	if m == nil {
		return
	}
	for _, o := range m.observers {
		o.OnStateChange(state, draft)
	}
}

func (m *Multi) OnDispatch(url string, feature model.Feature) {
	if m == nil {
		return
	}
	for _, o := range m.observers {
		o.OnDispatch(url, feature)
	}
}

func (m *Multi) OnError(kind string, err error) {
	if m == nil {
		return
	}
	for _, o := range m.observers {
		o.OnError(kind, err)
	}
}
