package observer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftwatch/agent/internal/model"
)

type recordingObserver struct {
	states []model.State
	urls   []string
	errs   []string
}

func (r *recordingObserver) OnStateChange(state model.State, _ *model.DraftState) {
	r.states = append(r.states, state)
}
func (r *recordingObserver) OnDispatch(url string, _ model.Feature) {
	r.urls = append(r.urls, url)
}
func (r *recordingObserver) OnError(kind string, _ error) {
	r.errs = append(r.errs, kind)
}

func TestNilMultiIsNoOp(t *testing.T) {
	var m *Multi
	require.NotPanics(t, func() {
		m.OnStateChange(model.StateIdle, nil)
		m.OnDispatch("https://x", model.FeatureMatchup)
		m.OnError("Transport", nil)
	})
}

func TestMultiFansOutToAllObservers(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	m := NewMulti(a, b)

	m.OnStateChange(model.StateChampSelect, nil)
	m.OnDispatch("https://x/champion/ahri", model.FeatureMyCounters)
	m.OnError("Decode", nil)

	require.Equal(t, []model.State{model.StateChampSelect}, a.states)
	require.Equal(t, []model.State{model.StateChampSelect}, b.states)
	require.Equal(t, []string{"https://x/champion/ahri"}, a.urls)
	require.Equal(t, []string{"Decode"}, b.errs)
}

func TestAttachAddsObserverAtRuntime(t *testing.T) {
	m := NewMulti()
	a := &recordingObserver{}
	m.Attach(a)

	m.OnStateChange(model.StateInGame, nil)
	require.Equal(t, []model.State{model.StateInGame}, a.states)
}
