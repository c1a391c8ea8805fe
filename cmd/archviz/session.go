package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/smallnest/archviz/client"
	"github.com/smallnest/archviz/config"
	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/interaction"
	"github.com/smallnest/archviz/layout"
	"github.com/smallnest/archviz/log"
	"github.com/smallnest/archviz/store"
	"github.com/smallnest/archviz/store/backend"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	key        string
	storage    string
	logLevel   string
}

// session is one CLI invocation: the persisted graph restored into a Store,
// with the service client, layout engine and controller wired around it.
type session struct {
	cfg     *config.Config
	logger  log.Logger
	backend store.StateStore
	key     string
	store   *graph.Store
	saver   *store.AutoSaver
	detach  func()
	client  *client.Client
	engine  *layout.Engine
	ctrl    *interaction.Controller
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.storage != "" {
		cfg.Storage.Backend = flags.storage
	}
	if flags.key != "" {
		cfg.Storage.Key = flags.key
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return log.New(cfg.Backend, out, level)
}

func layoutConfig(c config.LayoutConfig) layout.Config {
	lc := layout.DefaultConfig()
	lc.Width = c.Width
	lc.Height = c.Height
	lc.LinkDistance = c.LinkDistance
	lc.Charge = c.Charge
	lc.CenterStrength = c.CenterStrength
	lc.CollideRadius = c.CollideRadius
	lc.MinZoom = c.MinZoom
	lc.MaxZoom = c.MaxZoom
	if c.FrameInterval > 0 {
		lc.FrameInterval = c.FrameInterval.Std()
	}
	return lc
}

func retryConfig(c config.APIConfig) *client.RetryConfig {
	if c.MaxRetries == 0 {
		return client.NoRetry()
	}
	rc := client.DefaultRetryConfig()
	rc.MaxAttempts = c.MaxRetries + 1
	return rc
}

// openSession restores the persisted graph and wires every component around it.
func openSession(ctx context.Context, flags *globalFlags) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}

	be, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		backend: be,
		key:     cfg.Storage.Key,
		store:   graph.NewStore(graph.WithLogger(logger)),
	}

	if _, err := store.Restore(ctx, be, s.key, s.store); err != nil {
		be.Close()
		return nil, fmt.Errorf("restore %q: %w", s.key, err)
	}

	s.client, err = client.New(
		client.WithBaseURL(cfg.API.BaseURL),
		client.WithTimeout(cfg.API.Timeout.Std()),
		client.WithRetry(retryConfig(cfg.API)),
		client.WithLogger(logger),
	)
	if err != nil {
		be.Close()
		return nil, err
	}

	s.engine = layout.NewEngine(s.store, layout.WithConfig(layoutConfig(cfg.Layout)), layout.WithLogger(logger))
	s.saver, s.detach = store.Attach(s.store, be, store.WithKey(s.key), store.WithLogger(logger))
	s.ctrl = interaction.New(s.store, s.client, interaction.WithEngine(s.engine), interaction.WithLogger(logger))
	return s, nil
}

// Close flushes the state, detaches every listener and releases the backend.
func (s *session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.saver.Flush(ctx, s.store)
	s.detach()
	s.engine.Close()
	if cerr := s.backend.Close(); err == nil {
		err = cerr
	}
	if z, ok := s.logger.(*log.ZapLogger); ok {
		_ = z.Sync()
	}
	return err
}

// settle runs the layout until it cools or maxTicks ticks elapsed.
func (s *session) settle(maxTicks int) int {
	s.engine.Sync()
	return s.engine.Settle(maxTicks)
}

// failure is the message shown for err: the error the controller stored, or err itself.
func (s *session) failure(err error) string {
	if msg := s.store.Error(); msg != "" {
		return msg
	}
	return err.Error()
}

// resolveHistory finds a history item by id, id prefix or 1-based index.
func resolveHistory(history []graph.HistoryItem, ref string) (graph.HistoryItem, bool) {
	var idx int
	if _, err := fmt.Sscanf(ref, "%d", &idx); err == nil && fmt.Sprint(idx) == ref {
		if idx >= 1 && idx <= len(history) {
			return history[idx-1], true
		}
		return graph.HistoryItem{}, false
	}

	var match graph.HistoryItem
	found := 0
	for _, h := range history {
		if h.ID == ref {
			return h, true
		}
		if strings.HasPrefix(h.ID, ref) {
			match = h
			found++
		}
	}
	return match, found == 1
}
