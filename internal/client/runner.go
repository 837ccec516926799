package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pairlink/internal/auth"
	"pairlink/internal/cascade"
	"pairlink/internal/config"
	"pairlink/internal/constants"
	"pairlink/internal/logger"
	"pairlink/internal/protocol"
	"pairlink/internal/store"
	"pairlink/internal/transport"
)

// Runner owns one client lifecycle: walk the endpoint cascade, come out
// authenticated, then hold the connection with heartbeats until the
// context ends or the hub goes away.
type Runner struct {
	Config *config.Config
	Store  *store.FileStore
	Log    *logger.Logger

	// HeartbeatInterval overrides the 30s default, for tests.
	HeartbeatInterval time.Duration
}

func NewRunner(cfg *config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(uuid.New().String())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &Runner{
		Config: cfg,
		Store:  store.Load(cfg.StorePath, cfg.StoreKey),
		Log:    log,
	}, nil
}

// Run connects, authenticates and serves until ctx is cancelled. The
// returned error is nil on a clean user-initiated shutdown.
func (r *Runner) Run(ctx context.Context) error {
	endpoints := r.Config.Endpoints()

	printStep("Connecting")
	for _, ep := range endpoints {
		printHint(ep.Name + ": " + ep.URL)
	}

	authenticator := &auth.Authenticator{
		Store: r.Store,
		Negotiator: &auth.Negotiator{
			Hostname: r.Config.Hostname,
			Display:  PairingPrompt,
		},
	}
	casc := &cascade.Cascade{
		Endpoints: endpoints,
		Auth:      authenticator,
		Log:       r.Log,
	}

	conn, rec, err := casc.Connect(ctx)
	if err != nil {
		switch {
		case errors.Is(err, cascade.ErrDenied):
			fmt.Printf("\n  %s✗ The hub denied this device%s\n\n", colorRed, colorReset)
		case errors.Is(err, cascade.ErrPairingTimeout):
			fmt.Printf("\n  %s✗ Pairing was not approved in time%s\n\n", colorRed, colorReset)
		case errors.Is(err, cascade.ErrAllEndpointsFailed):
			fmt.Printf("\n  %s✗ No endpoint is reachable%s\n\n", colorRed, colorReset)
		}
		return err
	}
	defer conn.Close()

	fmt.Println()
	fmt.Printf("  %s%s● connected%s\n", colorBold, colorGreen, colorReset)
	fmt.Println()
	printField("hub", rec.HubIdentity, colorCyan)
	printField("endpoint", conn.Endpoint(), colorYellow)
	printField("session", maskSession(rec.SessionID), colorReset)
	printField("valid until", rec.LastActivity.Add(constants.SessionExpiry).Format("2006-01-02 15:04"), colorReset)
	if r.Log != nil && r.Log.GetLogPath() != "" {
		printField("logs", r.Log.GetLogPath(), colorDim)
	}
	fmt.Println()
	printSep()
	fmt.Println()
	printHint("ctrl+c to stop")
	fmt.Println()

	return r.serve(ctx, conn, rec.HubIdentity)
}

// serve pumps heartbeats out and treats any inbound traffic as session
// activity worth persisting.
func (r *Runner) serve(ctx context.Context, conn transport.Conn, hubIdentity string) error {
	interval := r.HeartbeatInterval
	if interval <= 0 {
		interval = constants.HeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			hb := protocol.Heartbeat(time.Now().UTC().Format(time.RFC3339))
			if err := conn.Send(hb); err != nil {
				return fmt.Errorf("heartbeat failed: %w", err)
			}
		case _, ok := <-conn.Messages():
			if !ok {
				return fmt.Errorf("connection to %s closed", hubIdentity)
			}
			r.Store.Refresh(hubIdentity, time.Now())
		}
	}
}

// Logout drops the stored session for hubIdentity. The hub side is
// untouched; the next connection simply pairs again.
func (r *Runner) Logout(hubIdentity string) error {
	if _, ok := r.Store.Get(hubIdentity); !ok {
		printHint("no valid session for " + hubIdentity)
	}
	if err := r.Store.Remove(hubIdentity); err != nil {
		return err
	}
	fmt.Printf("  %s✓ logged out from %s%s\n", colorGreen, hubIdentity, colorReset)
	return nil
}

// Status lists every stored session with its remaining validity.
// Tokens never appear; session ids are masked.
func (r *Runner) Status() {
	records := r.Store.All()
	if len(records) == 0 {
		printHint("no stored sessions")
		return
	}

	now := time.Now()
	for _, rec := range records {
		state := colorGreen + "valid" + colorReset
		if !rec.Valid(now) {
			state = colorRed + "expired" + colorReset
		}
		fmt.Printf("  %s%-24s%s %s %s%s%s  last active %s\n",
			colorCyan, rec.HubIdentity, colorReset,
			state,
			colorDim, maskSession(rec.SessionID), colorReset,
			rec.LastActivity.Format("2006-01-02 15:04"))
	}
}
