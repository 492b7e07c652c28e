// Package supervisor owns lifecycle, reconnection, configuration hot-apply,
// and graceful shutdown (spec §4.10): the single place that decides to
// reconnect or reacquire credentials, wiring every other subsystem together.
package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/draftwatch/agent/internal/champions"
	"github.com/draftwatch/agent/internal/config"
	"github.com/draftwatch/agent/internal/dispatch"
	"github.com/draftwatch/agent/internal/draft"
	"github.com/draftwatch/agent/internal/events"
	"github.com/draftwatch/agent/internal/locator"
	"github.com/draftwatch/agent/internal/model"
	"github.com/draftwatch/agent/internal/observer"
	"github.com/draftwatch/agent/internal/phase"
	"github.com/draftwatch/agent/internal/transport"
	"github.com/draftwatch/agent/internal/trigger"
)

const (
	gameflowPhasePath     = "/lol-gameflow/v1/gameflow-phase"
	champSelectSessionPath = "/lol-champ-select/v1/session"
)

// Supervisor is the top-level lifecycle owner. One Supervisor runs for the
// life of the process; Run blocks until ctx is cancelled.
type Supervisor struct {
	locate     *locator.Locator
	registry   *champions.Registry
	dispatcher *dispatch.Dispatcher
	obs        *observer.Multi
	log        zerolog.Logger

	cfg atomic.Pointer[config.Config]
}

// New builds a Supervisor. cfg is the initial configuration; call SetConfig
// later (e.g. from config.Watch's callback) to hot-apply changes.
func New(locate *locator.Locator, registry *champions.Registry, dispatcher *dispatch.Dispatcher, obs *observer.Multi, log zerolog.Logger, cfg config.Config) *Supervisor {
	s := &Supervisor{
		locate:     locate,
		registry:   registry,
		dispatcher: dispatcher,
		obs:        obs,
		log:        log.With().Str("component", "supervisor").Logger(),
	}
	s.cfg.Store(&cfg)
	return s
}

// SetConfig hot-applies a new configuration. In-flight sessions pick it up
// on their next draft update.
func (s *Supervisor) SetConfig(cfg config.Config) {
	s.cfg.Store(&cfg)
}

func (s *Supervisor) config() config.Config {
	return *s.cfg.Load()
}

// backoffPolicy builds the retry policy from the current configuration:
// exponential backoff starting at retry_interval_ms, capped at 30s, bounded
// by max_retries when it is positive. There is no linear policy; the
// backoff shape is always exponential.
func (s *Supervisor) backoffPolicy() backoff.BackOff {
	cfg := s.config()
	interval := time.Duration(cfg.Transport.RetryIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = interval
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0 // bounded externally by max_retries below

	var policy backoff.BackOff = exp
	if cfg.Transport.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(cfg.Transport.MaxRetries))
	}
	return policy
}

// Run drives the connect/reconnect loop until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := backoff.Retry(func() error {
			sessionErr := s.runUntilDisconnected(ctx)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return sessionErr
		}, backoff.WithContext(s.backoffPolicy(), ctx))

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.obs.OnError("Transport", err)
			s.log.Warn().Err(err).Msg("supervisor: retries exhausted, restarting backoff cycle")
		}
	}
}

// runUntilDisconnected acquires credentials, connects, and processes events
// until the connection drops or ctx is cancelled. Any returned error is
// retried by Run's backoff policy.
func (s *Supervisor) runUntilDisconnected(ctx context.Context) error {
	creds, err := s.locate.Acquire()
	if err != nil {
		return fmt.Errorf("supervisor: acquire credentials: %w", err)
	}

	client := transport.New(creds)
	decoder := events.NewDecoder()
	phaseMachine := phase.New()
	draftModel := draft.New("", s.registry)
	triggerEngine := trigger.New(s.registry)

	scope := newSessionScope(ctx)
	defer scope.cancel()

	// Resync: replay one get per tracked resource before re-enabling event
	// application (§4.10, §5: "after a reconnect, the resync gets are
	// applied before any buffered WebSocket events").
	if err := s.resync(ctx, client, decoder, phaseMachine, draftModel, triggerEngine, scope); err != nil {
		if !isAuthError(err) {
			s.log.Debug().Err(err).Msg("supervisor: resync incomplete, continuing with live stream only")
		} else {
			// §7's Auth kind: credentials are no longer valid, not merely a
			// transient network failure. Reacquire rather than keep talking
			// to the client with a token it has already rejected.
			s.log.Warn().Err(err).Msg("supervisor: credentials rejected, reacquiring")
			creds, err = s.locate.Acquire()
			if err != nil {
				return fmt.Errorf("supervisor: reacquire credentials after auth failure: %w", err)
			}
			client = transport.New(creds)
			if err := s.resync(ctx, client, decoder, phaseMachine, draftModel, triggerEngine, scope); err != nil {
				if isAuthError(err) {
					return fmt.Errorf("supervisor: still unauthorized after reacquiring credentials: %w", err)
				}
				s.log.Debug().Err(err).Msg("supervisor: resync incomplete after reacquire, continuing with live stream only")
			}
		}
	}

	stream, err := client.OpenEvents(ctx, events.Subscriptions)
	if err != nil {
		return fmt.Errorf("supervisor: open event stream: %w", err)
	}
	defer stream.Close()

	for {
		frame, err := stream.Read()
		if err != nil {
			if terr, ok := err.(*transport.Error); ok && terr.Kind == transport.ErrDecode {
				s.obs.OnError("Decode", err)
				continue
			}
			return fmt.Errorf("supervisor: event stream closed: %w", err)
		}

		ev, err := decoder.Decode(frame)
		if err != nil {
			s.obs.OnError("Decode", err)
			continue
		}
		if ev == nil {
			continue
		}

		s.handleEvent(scope, ev, phaseMachine, draftModel, triggerEngine)
	}
}

// sessionScope holds the context that delayed dispatches for the current
// draft session run under. A new session cancels the old scope's context
// (§5: pending delayed opens from the old session must not fire) and
// replaces it with a fresh one derived from the connection's parent
// context, so dispatches made after the swap are never cancelled along
// with the session they no longer belong to.
type sessionScope struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
}

func newSessionScope(parent context.Context) *sessionScope {
	s := &sessionScope{parent: parent}
	s.ctx, s.cancel = context.WithCancel(parent)
	return s
}

func (s *sessionScope) renew() {
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(s.parent)
}

// resync fetches the current phase and (if in champ select) the current
// session snapshot, folding both through the normal pipeline once.
func (s *Supervisor) resync(ctx context.Context, client *transport.Client, decoder *events.Decoder, phaseMachine *phase.Machine, draftModel *draft.Model, triggerEngine *trigger.Engine, scope *sessionScope) error {
	var rawPhase string
	if err := client.Get(ctx, gameflowPhasePath, &rawPhase); err != nil {
		return err
	}
	payload, _ := json.Marshal(rawPhase)
	ev, err := decoder.Decode(transportFrameFor(gameflowPhasePath, payload))
	if err != nil {
		return err
	}
	if ev != nil {
		s.handleEvent(scope, ev, phaseMachine, draftModel, triggerEngine)
	}

	if phaseMachine.State() != model.StateChampSelect {
		return nil
	}

	var snap events.ChampSelectSnapshot
	if err := client.Get(ctx, champSelectSessionPath, &snap); err != nil {
		// 404 here means "not in champ select" (§4.2) — not a real failure.
		if terr, ok := err.(*transport.Error); ok && terr.HTTPStatus == 404 {
			return nil
		}
		return err
	}
	snapPayload, _ := json.Marshal(snap)
	snapEv, err := decoder.Decode(transportFrameFor(champSelectSessionPath, snapPayload))
	if err != nil {
		return err
	}
	if snapEv != nil {
		s.handleEvent(scope, snapEv, phaseMachine, draftModel, triggerEngine)
	}
	return nil
}

// isAuthError reports whether err is a transport.Error carrying the Auth
// kind (§7: HTTP 401, credentials rejected) as opposed to a transient or
// routine resync failure such as the champ-select 404 above.
func isAuthError(err error) bool {
	terr, ok := err.(*transport.Error)
	return ok && terr.Kind == transport.ErrAuth
}

// transportFrameFor wraps a resync GET's response as the same shape the
// live event stream would have delivered it in, so it flows through the
// one Decode/handleEvent path regardless of source. The decoder keys
// purely on URI, and these resource paths are identical to their event
// URIs (§6).
func transportFrameFor(path string, payload json.RawMessage) transport.RawFrame {
	return transport.RawFrame{Opcode: 8, URI: path, Payload: payload}
}

// handleEvent applies one decoded Event to the phase machine and draft
// model, evaluates triggers, and dispatches any resulting intents.
func (s *Supervisor) handleEvent(scope *sessionScope, ev *events.Event, phaseMachine *phase.Machine, draftModel *draft.Model, triggerEngine *trigger.Engine) {
	cfg := s.config()

	switch {
	case ev.PhaseChanged != nil:
		prevState := phaseMachine.State()
		transition := phaseMachine.Apply(ev.PhaseChanged.Phase)

		if transition.IsNewSession {
			// New session cancels pending delayed opens from the old one
			// (§5) and starts a fresh scope so dispatches made for the new
			// session are never cancelled along with it.
			scope.renew()
			draftModel.Reset(transition.SessionID)
			triggerEngine.ResetSession()
		}

		s.obs.OnStateChange(transition.State, draftModel.State())

		if prevState == model.StateChampSelect && transition.State == model.StateInGame {
			intents := triggerEngine.EvaluateGameStart(draftModel.State(), cfg.AsFeatures(), transition.SessionID, transition.PhaseEpoch)
			s.dispatchAll(scope.ctx, intents, cfg)
		}

	case ev.Session != nil:
		pickEvents := draftModel.Apply(ev.Session)
		state := draftModel.State()
		sessionID := phaseMachine.SessionID()

		for _, pe := range pickEvents {
			intents := triggerEngine.Evaluate(state, pe, cfg.AsFeatures(), sessionID, phaseMachine.PhaseEpoch(), false)
			s.dispatchAll(scope.ctx, intents, cfg)
		}
	}
}

func (s *Supervisor) dispatchAll(ctx context.Context, intents []trigger.Intent, cfg config.Config) {
	for _, intent := range intents {
		go func(intent trigger.Intent) {
			if err := s.dispatcher.Open(ctx, intent.URL, cfg.DispatchDelay()); err != nil {
				s.obs.OnError("Dispatch", err)
				return
			}
			s.obs.OnDispatch(intent.URL, intent.Feature)
		}(intent)
	}
}
