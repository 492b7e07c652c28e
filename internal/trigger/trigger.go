// Package trigger implements the Trigger Engine (spec §4.8): turning draft
// updates into URL-open intents under the user's per-feature policy, with
// session-scoped deduplication via TriggerFingerprint.
package trigger

import (
	"fmt"
	"strings"

	"github.com/draftwatch/agent/internal/champions"
	"github.com/draftwatch/agent/internal/config"
	"github.com/draftwatch/agent/internal/draft"
	"github.com/draftwatch/agent/internal/model"
)

// Intent is one URL the Dispatcher should open.
type Intent struct {
	URL         string
	Feature     model.Feature
	Fingerprint model.TriggerFingerprint
}

// Engine evaluates draft updates against configured feature policies. It
// owns the fingerprint set for the current session — the sole mutable
// state besides what's passed in on each call.
type Engine struct {
	registry *champions.Registry
	seen     map[model.TriggerFingerprint]struct{}
}

// New builds an Engine backed by registry for name lookups.
func New(registry *champions.Registry) *Engine {
	return &Engine{registry: registry, seen: make(map[model.TriggerFingerprint]struct{})}
}

// ResetSession clears the fingerprint set; call this whenever the phase
// machine reports a new session (§5: a new session cancels everything tied
// to the old one).
func (e *Engine) ResetSession() {
	e.seen = make(map[model.TriggerFingerprint]struct{})
}

// featureOrder is the fixed emission order from §4.8.
var featureOrder = []model.Feature{
	model.FeatureMatchup,
	model.FeatureMyCounters,
	model.FeatureEnemyCounters,
	model.FeatureBuildGuide,
}

// Evaluate inspects one PickEvent against state and cfg and returns the
// intents it produces, in the fixed §4.8 order. Passing gameStart=true
// additionally qualifies build_guide's open_in_game trigger.
func (e *Engine) Evaluate(state *model.DraftState, pe draft.PickEvent, cfg config.Features, sessionID string, phaseEpoch int, gameStart bool) []Intent {
	var out []Intent
	for _, feature := range featureOrder {
		intent, ok := e.evaluateFeature(feature, state, pe, cfg, sessionID, phaseEpoch, gameStart)
		if ok {
			out = append(out, intent)
		}
	}
	return out
}

// EvaluateGameStart is called once on the ChampSelect->InGame transition,
// independent of any particular pick event, so that build_guide's
// open_in_game trigger can fire even without a fresh PickEvent.
func (e *Engine) EvaluateGameStart(state *model.DraftState, cfg config.Features, sessionID string, phaseEpoch int) []Intent {
	local := state.LocalPick()
	if local == nil || !cfg.BuildGuide.Enabled || !cfg.BuildGuide.OpenInGame {
		return nil
	}
	intent, ok := e.buildGuideIntent(*local, cfg, sessionID, phaseEpoch)
	if !ok {
		return nil
	}
	return []Intent{intent}
}

func (e *Engine) evaluateFeature(feature model.Feature, state *model.DraftState, pe draft.PickEvent, cfg config.Features, sessionID string, phaseEpoch int, gameStart bool) (Intent, bool) {
	switch feature {
	case model.FeatureMatchup:
		return e.matchupIntent(state, pe, cfg, sessionID, phaseEpoch)
	case model.FeatureMyCounters:
		return e.myCountersIntent(state, pe, cfg, sessionID, phaseEpoch)
	case model.FeatureEnemyCounters:
		return e.enemyCountersIntent(pe, cfg, sessionID, phaseEpoch)
	case model.FeatureBuildGuide:
		if pe.Team != model.TeamAlly {
			return Intent{}, false
		}
		matches := cfg.BuildGuide.Trigger == string(pe.Kind) || (gameStart && cfg.BuildGuide.OpenInGame)
		if !matches {
			return Intent{}, false
		}
		local := state.LocalPick()
		if local == nil {
			return Intent{}, false
		}
		return e.buildGuideIntent(*local, cfg, sessionID, phaseEpoch)
	}
	return Intent{}, false
}

func (e *Engine) matchupIntent(state *model.DraftState, pe draft.PickEvent, cfg config.Features, sessionID string, phaseEpoch int) (Intent, bool) {
	if !cfg.Matchup.Enabled || cfg.Matchup.Trigger != string(pe.Kind) {
		return Intent{}, false
	}
	local := state.LocalPick()
	if local == nil || !local.HasChampion() || local.AssignedLane == model.RoleUnknown {
		return Intent{}, false
	}
	enemy := state.EnemyInLane(local.AssignedLane)
	if enemy == nil || !enemy.HasChampion() {
		return Intent{}, false
	}

	fp := model.TriggerFingerprint{
		Feature: model.FeatureMatchup, ChampionID: local.ChampionID, OpponentID: enemy.ChampionID,
		Role: local.AssignedLane, SessionID: sessionID, PhaseEpoch: phaseEpoch,
	}
	if e.alreadySeen(fp) {
		return Intent{}, false
	}
	url := e.buildURL(cfg.BaseURL, "matchup", local.ChampionID, enemy.ChampionID, local.AssignedLane)
	return e.record(Intent{URL: url, Feature: model.FeatureMatchup, Fingerprint: fp}), true
}

func (e *Engine) myCountersIntent(state *model.DraftState, pe draft.PickEvent, cfg config.Features, sessionID string, phaseEpoch int) (Intent, bool) {
	if !cfg.MyCounters.Enabled || cfg.MyCounters.Trigger != string(pe.Kind) || pe.Team != model.TeamAlly {
		return Intent{}, false
	}
	local := state.LocalPick()
	if local == nil || !local.HasChampion() {
		return Intent{}, false
	}
	fp := model.TriggerFingerprint{
		Feature: model.FeatureMyCounters, ChampionID: local.ChampionID,
		Role: local.AssignedLane, SessionID: sessionID, PhaseEpoch: phaseEpoch,
	}
	if e.alreadySeen(fp) {
		return Intent{}, false
	}
	url := e.buildURL(cfg.BaseURL, "counters", local.ChampionID, 0, local.AssignedLane)
	return e.record(Intent{URL: url, Feature: model.FeatureMyCounters, Fingerprint: fp}), true
}

func (e *Engine) enemyCountersIntent(pe draft.PickEvent, cfg config.Features, sessionID string, phaseEpoch int) (Intent, bool) {
	if !cfg.EnemyCounters.Enabled || cfg.EnemyCounters.Trigger != string(pe.Kind) || pe.Team != model.TeamEnemy {
		return Intent{}, false
	}
	if !pe.Pick.Completed || !pe.Pick.HasChampion() {
		return Intent{}, false
	}
	fp := model.TriggerFingerprint{
		Feature: model.FeatureEnemyCounters, ChampionID: pe.Pick.ChampionID,
		Role: pe.Pick.AssignedLane, SessionID: sessionID, PhaseEpoch: phaseEpoch,
	}
	if e.alreadySeen(fp) {
		return Intent{}, false
	}
	url := e.buildURL(cfg.BaseURL, "counters", pe.Pick.ChampionID, 0, pe.Pick.AssignedLane)
	return e.record(Intent{URL: url, Feature: model.FeatureEnemyCounters, Fingerprint: fp}), true
}

func (e *Engine) buildGuideIntent(local model.Pick, cfg config.Features, sessionID string, phaseEpoch int) (Intent, bool) {
	if !local.HasChampion() {
		return Intent{}, false
	}
	fp := model.TriggerFingerprint{
		Feature: model.FeatureBuildGuide, ChampionID: local.ChampionID,
		Role: local.AssignedLane, SessionID: sessionID, PhaseEpoch: phaseEpoch,
	}
	if e.alreadySeen(fp) {
		return Intent{}, false
	}
	url := e.buildURL(cfg.BaseURL, "build", local.ChampionID, 0, local.AssignedLane)
	return e.record(Intent{URL: url, Feature: model.FeatureBuildGuide, Fingerprint: fp}), true
}

func (e *Engine) alreadySeen(fp model.TriggerFingerprint) bool {
	_, ok := e.seen[fp]
	return ok
}

// record marks fp seen before returning, per §4.8: "the fingerprint is
// recorded before dispatch to prevent duplicates even if dispatch fails."
func (e *Engine) record(intent Intent) Intent {
	e.seen[intent.Fingerprint] = struct{}{}
	return intent
}

// buildURL constructs one of the canonical forms from §4.8.
func (e *Engine) buildURL(baseURL, kind string, championID, opponentID int, lane model.Role) string {
	champ := e.canonicalName(championID)
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString("/champion/")
	b.WriteString(champ)

	switch kind {
	case "build":
		b.WriteString("/build")
		writeLaneSuffix(&b, lane)
	case "counters":
		b.WriteString("/counters")
		writeLaneSuffix(&b, lane)
	case "matchup":
		b.WriteString("/matchup/")
		b.WriteString(e.canonicalName(opponentID))
		writeLaneSuffix(&b, lane)
	}
	return b.String()
}

func writeLaneSuffix(b *strings.Builder, lane model.Role) {
	if lane == model.RoleUnknown || lane == "" {
		return
	}
	fmt.Fprintf(b, "/%s", lane)
}

func (e *Engine) canonicalName(championID int) string {
	if c, ok := e.registry.Lookup(championID); ok {
		return c.CanonicalName
	}
	return "unknown"
}
