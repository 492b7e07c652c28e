package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftwatch/agent/internal/model"
	"github.com/draftwatch/agent/internal/transport"
)

func TestDecodePhaseChanged(t *testing.T) {
	d := NewDecoder()
	payload, _ := json.Marshal("ChampSelect")
	ev, err := d.Decode(transport.RawFrame{Opcode: 8, URI: gameflowPhaseURI, Payload: payload})
	require.NoError(t, err)
	require.NotNil(t, ev.PhaseChanged)
	require.Equal(t, model.PhaseChampSelect, ev.PhaseChanged.Phase)
}

func TestDecodeUnknownPhaseMapsToNone(t *testing.T) {
	d := NewDecoder()
	payload, _ := json.Marshal("SomeFuturePhase")
	ev, err := d.Decode(transport.RawFrame{Opcode: 8, URI: gameflowPhaseURI, Payload: payload})
	require.NoError(t, err)
	require.Equal(t, model.PhaseNone, ev.PhaseChanged.Phase)
}

func TestDecodeChampSelectSession(t *testing.T) {
	d := NewDecoder()
	payload := []byte(`{"localPlayerCellId": 2, "myTeam": [{"cellId": 2, "championId": 103}]}`)
	ev, err := d.Decode(transport.RawFrame{Opcode: 8, URI: champSelectSessionURI, Payload: payload})
	require.NoError(t, err)
	require.NotNil(t, ev.Session)
	require.Equal(t, 2, ev.Session.LocalPlayerCellID)
	require.Len(t, ev.Session.MyTeam, 1)
	require.Equal(t, 103, ev.Session.MyTeam[0].ChampionID)
}

func TestDecodeIgnoredURIReturnsNilEvent(t *testing.T) {
	d := NewDecoder()
	ev, err := d.Decode(transport.RawFrame{Opcode: 8, URI: "/lol-summoner/v1/current-summoner"})
	require.NoError(t, err)
	require.Nil(t, ev)
}

func TestDecodeMalformedPayloadErrors(t *testing.T) {
	d := NewDecoder()
	_, err := d.Decode(transport.RawFrame{Opcode: 8, URI: gameflowPhaseURI, Payload: []byte(`not json`)})
	require.Error(t, err)
}
