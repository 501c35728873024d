package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"intentswap/pkg/tokens"
)

// Store is the process-wide application state container. State changes
// go through Dispatch only; every transition is persisted through the
// port (best effort) and fanned out to subscribers.
type Store struct {
	mu    sync.Mutex
	state State

	port    Port
	source  tokens.Source
	symbols func(chainID int64) []string
	log     *slog.Logger

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int

	refreshGen uint64
	refreshing int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a store backed by the given persistence port. The token
// source may be nil, in which case no token refresh runs. Call Init
// before use and Close when done.
func New(port Port, source tokens.Source, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		state:   DefaultState(),
		port:    port,
		source:  source,
		symbols: tokens.DefaultSymbols,
		log:     log,
		subs:    make(map[int]func(State)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetSymbols overrides the per-chain token symbol list. Must be called
// before Init.
func (s *Store) SetSymbols(fn func(chainID int64) []string) {
	s.symbols = fn
}

// Init restores the persisted snapshot and kicks off the initial token
// refresh for the restored chain. Restore failures are swallowed; the
// store falls back to defaults.
func (s *Store) Init() {
	s.mu.Lock()
	data, err := s.port.Load()
	if err != nil {
		s.log.Debug("snapshot load failed, using defaults", "err", err)
	} else if len(data) > 0 {
		restored := DefaultState()
		if err := json.Unmarshal(data, &restored); err != nil {
			s.log.Debug("snapshot parse failed, using defaults", "err", err)
		} else {
			s.state = restored
		}
	}
	chainID := s.state.ChainID
	s.mu.Unlock()

	s.triggerRefresh(chainID)
}

// Close stops background work and waits for in-flight refreshes.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

// GetState returns the current state snapshot.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener called after every dispatch. The
// returned function unsubscribes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch applies an action through the reducer, persists the new
// snapshot, and notifies subscribers. Mutations are applied in
// dispatch order.
func (s *Store) Dispatch(a Action) {
	s.dispatch(a, 0)
}

// dispatch applies an action; a nonzero gen restricts it to the
// current refresh generation. The generation check and the state
// transition happen under one lock, so a supersession cannot slip in
// between them.
func (s *Store) dispatch(a Action, gen uint64) bool {
	s.mu.Lock()
	if gen != 0 && gen != s.refreshGen {
		s.mu.Unlock()
		return false
	}
	oldChain := s.state.ChainID
	s.state = reduce(s.state, a)
	next := s.state

	// Persistence is a cache, not the source of truth. Failures are
	// swallowed.
	if data, err := json.Marshal(next); err != nil {
		s.log.Debug("snapshot marshal failed", "err", err)
	} else if err := s.port.Save(data); err != nil {
		s.log.Debug("snapshot save failed", "err", err)
	}
	s.mu.Unlock()

	s.subMu.Lock()
	listeners := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}

	if next.ChainID != oldChain {
		s.triggerRefresh(next.ChainID)
	}
	return true
}

// triggerRefresh starts one asynchronous supported-token refresh cycle
// for the given chain. A later trigger supersedes earlier ones: stale
// results are discarded on arrival.
func (s *Store) triggerRefresh(chainID int64) {
	if s.source == nil {
		return
	}

	s.mu.Lock()
	s.refreshGen++
	s.refreshing++
	gen := s.refreshGen
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.refreshing--
			s.mu.Unlock()
		}()
		s.refreshTokens(gen, chainID)
	}()
}

// Refreshing reports whether a token refresh cycle is outstanding. It
// turns true synchronously with the trigger, so a caller observing
// false with the loading flag down can treat the token list as settled.
func (s *Store) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing > 0
}

// refreshTokens runs one refresh cycle. Every dispatch carries the
// cycle's generation; a superseded cycle touches nothing, not even the
// loading flag.
func (s *Store) refreshTokens(gen uint64, chainID int64) {
	if !s.dispatch(SetTokensLoading{}, gen) {
		return
	}

	syms := s.symbols(chainID)
	metas := make([]tokens.Meta, 0, len(syms))
	var firstErr error
	for _, sym := range syms {
		m, err := s.source.Resolve(s.ctx, chainID, sym)
		if err != nil {
			// A single bad symbol is omitted, not fatal.
			s.log.Debug("token metadata lookup failed", "symbol", sym, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metas = append(metas, m)
	}

	if len(metas) == 0 && firstErr != nil {
		s.dispatch(SetGlobalError{Message: fmt.Sprintf("Failed to load trading tokens: %v", firstErr)}, gen)
		return
	}

	s.dispatch(SetSupportedTokens{Tokens: metas}, gen)
}
