// Package notify is the client-resident notification synchronization
// engine for the HR application. It aggregates the task, leave, shift,
// and salary notification streams into one deduplicated inbox with
// adaptive polling, optimistic read-state mutations, and permanent
// dismissal tracking. The host application creates one engine per login
// session and stops it on logout.
package notify

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/peopledesk/notify/internal/credential"
	"github.com/peopledesk/notify/internal/engine"
	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/session"
	"github.com/peopledesk/notify/internal/source"
	"github.com/peopledesk/notify/internal/source/leave"
	"github.com/peopledesk/notify/internal/source/salary"
	"github.com/peopledesk/notify/internal/source/shift"
	"github.com/peopledesk/notify/internal/source/task"
	"github.com/peopledesk/notify/internal/store"
)

// Options configures NewEngine.
type Options struct {
	// UserID is the logged-in user's backend identifier.
	UserID string

	// Role resolves role-dependent navigation targets.
	Role model.Role

	// ConfigPath is the engine YAML config location; empty uses
	// ~/.config/peopledesk/notify.yaml.
	ConfigPath string

	// StatePath is the SQLite state database location; empty uses
	// ~/.local/share/peopledesk/notify.db.
	StatePath string

	// OnSessionInvalid is called exactly once when any source rejects
	// the credential; the host should redirect to login.
	OnSessionInvalid func()

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultStatePath returns the default location of the state database.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "notify.db")
	}
	return filepath.Join(home, ".local", "share", "peopledesk", "notify.db")
}

// NewEngine loads configuration and the stored credential, builds the
// four stream adapters, and assembles a ready-to-start engine. The
// returned store is owned by the engine's lifetime; Close it after
// Stop.
func NewEngine(opts Options) (*engine.Engine, *store.SQLiteStore, error) {
	if opts.UserID == "" {
		return nil, nil, fmt.Errorf("notify: user id is required")
	}

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	token, err := credential.GetToken(opts.UserID)
	if err != nil {
		// No stored credential: the gate starts invalid and the first
		// manual refresh returns ErrSessionInvalid.
		token = ""
	}
	gate := session.NewGate(opts.UserID, token, opts.OnSessionInvalid)

	identity := source.Identity{
		UserID:     opts.UserID,
		Role:       opts.Role,
		FilterSelf: cfg.FilterSelf,
	}

	var sources []source.Source
	for _, ep := range cfg.Endpoints {
		if !ep.Enabled {
			continue
		}
		switch model.SourceType(ep.Type) {
		case model.SourceTypeTask:
			sources = append(sources, task.NewAdapter(ep.BaseURL, token, identity))
		case model.SourceTypeLeave:
			sources = append(sources, leave.NewAdapter(ep.BaseURL, token, identity))
		case model.SourceTypeShift:
			sources = append(sources, shift.NewAdapter(ep.BaseURL, token, identity))
		case model.SourceTypeSalary:
			sources = append(sources, salary.NewAdapter(ep.BaseURL, token, identity))
		default:
			return nil, nil, fmt.Errorf("notify: unknown endpoint type %q", ep.Type)
		}
	}

	statePath := opts.StatePath
	if statePath == "" {
		statePath = DefaultStatePath()
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("notify: creating state directory: %w", err)
	}
	st, err := store.NewSQLiteStore(statePath)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		UserID:            opts.UserID,
		Sources:           sources,
		Gate:              gate,
		Store:             st,
		Logger:            opts.Logger,
		MinFetchInterval:  cfg.MinFetchInterval(),
		PollInterval:      cfg.PollInterval(),
		RetryBackoff:      cfg.RetryBackoff(),
		IdleTimeout:       cfg.IdleTimeout(),
		DismissedCapacity: cfg.DismissedCapacity,
		FilterSelf:        cfg.FilterSelf,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return eng, st, nil
}
