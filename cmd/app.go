package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"intentswap/config"
	"intentswap/pkg/client"
	"intentswap/pkg/history"
	"intentswap/pkg/logging"
	"intentswap/pkg/store"
	"intentswap/pkg/swap"
	"intentswap/pkg/tokens"
	"intentswap/pkg/wallet"
)

// engine is the combined pricing and execution surface a backend must
// provide. Both the 1Click client and the mock engine satisfy it.
type engine interface {
	swap.QuoteProvider
	swap.Executor
}

// app bundles the wired application: the persisted store, the swap
// flow, the order listing, and the selected backend.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	flow    *swap.Flow
	listing *history.Controller
	engine  engine
	wallet  *wallet.Wallet
}

// newApp wires the application the same way for every command. The
// store restores its snapshot and kicks off the token refresh before
// the command body runs.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logging.New(cfg.LogDir, cfg.LogLevel)

	port, err := store.NewFilePort(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state storage: %w", err)
	}

	st := store.New(port, tokens.NewCDNSource(nil), log)
	st.Init()

	w, err := wallet.Resolve(cfg.WalletKey, cfg.WalletAddress)
	if err != nil {
		st.Close()
		return nil, err
	}
	if w != nil {
		st.Dispatch(store.SetUser{User: &store.User{Address: w.Address}})
	}

	var eng engine
	if cfg.UseMockEngine() {
		eng = client.NewMockEngine()
	} else {
		eng = client.NewOneClick(cfg.JWTToken)
	}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   st,
		flow:    swap.New(st, eng, eng, log),
		listing: history.NewController(st, history.NewFeed(time.Now().UnixNano())),
		engine:  eng,
		wallet:  w,
	}, nil
}

func (a *app) close() {
	a.store.Close()
}
