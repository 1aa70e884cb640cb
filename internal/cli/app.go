package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ddong19/ranked/auth"
	"github.com/ddong19/ranked/cache"
	"github.com/ddong19/ranked/config"
	"github.com/ddong19/ranked/outbox"
	"github.com/ddong19/ranked/record"
	"github.com/ddong19/ranked/remote"
	"github.com/ddong19/ranked/store"
	"github.com/ddong19/ranked/syncer"
)

// app wires the full client stack for one command invocation.
type app struct {
	cfg     config.Config
	store   *store.Store
	records *record.Service
	view    *cache.View
	orch    *syncer.Orchestrator
	owner   string
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	st, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	owner := opts.Owner
	if owner == "" {
		owner = cfg.Owner
	}
	if owner == "" {
		owner, err = st.Owner(ctx)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	deviceID, err := st.DeviceID(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}

	queue := outbox.NewQueue(st, logger)
	records := record.NewService(st, queue, logger)
	tokens := auth.NewTokenSource(cfg.JWTSecret, owner, deviceID, cfg.TokenTTL.Std())
	client := remote.NewClient(cfg.ServerURL, tokens.Token, deviceID, logger)
	pinger := remote.NewPinger(cfg.ServerURL)
	drainer := syncer.NewDrainer(records, queue, client, deviceID, logger)
	orch := syncer.NewOrchestrator(st, records, drainer, client, pinger, cfg.SyncInterval.Std(), logger)

	return &app{
		cfg:     cfg,
		store:   st,
		records: records,
		view:    cache.NewView(records),
		orch:    orch,
		owner:   owner,
	}, nil
}

func (a *app) close() {
	a.orch.Stop()
	a.store.Close()
}

// parseID parses a positional numeric id argument.
func parseID(arg, what string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}
