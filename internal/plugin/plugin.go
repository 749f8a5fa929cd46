// Package plugin wires the config manager, registry, storage and
// services together and runs the reload loop.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/emberhollow/arcanum/internal/catalog"
	"github.com/emberhollow/arcanum/internal/config"
	"github.com/emberhollow/arcanum/internal/log"
	"github.com/emberhollow/arcanum/internal/permission"
	"github.com/emberhollow/arcanum/internal/registry"
	"github.com/emberhollow/arcanum/internal/research"
	"github.com/emberhollow/arcanum/internal/storage/sqlite"
	"github.com/emberhollow/arcanum/internal/tracing"
	"github.com/emberhollow/arcanum/internal/watcher"
)

// Options configures the plugin.
type Options struct {
	// DataDir holds the config documents, the profile database and logs.
	DataDir string

	// AutoReload watches the data directory and reloads on config edits.
	AutoReload bool
}

// Plugin is the composition root. It owns every subsystem's lifecycle.
type Plugin struct {
	opts Options

	manager  *config.Manager
	registry registry.Registry
	perms    *permission.Service
	research *research.Service
	db       *sqlite.DB
	tracing  *tracing.Provider
	watcher  *watcher.Watcher

	wg      sync.WaitGroup
	stopped chan struct{}
}

// New builds the plugin: registry with the builtin catalog, the config
// manager over DataDir, permission and research services, the profile
// database and the tracing provider.
func New(opts Options) (*Plugin, error) {
	reg := registry.NewInMemory()
	if err := catalog.Register(reg); err != nil {
		return nil, fmt.Errorf("registering builtin catalog: %w", err)
	}

	manager, err := config.NewManager(config.Options{
		Dir:      opts.DataDir,
		Registry: reg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating config manager: %w", err)
	}

	traceProvider, err := tracing.NewProvider(
		tracing.ConfigFromDocument(manager.PluginConfig(), opts.DataDir))
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	manager.SetTracer(traceProvider.Tracer())

	perms := permission.NewService(manager.ItemsConfig())
	manager.SetPermissions(perms)

	db, err := sqlite.NewDB(filepath.Join(opts.DataDir, "data", "profiles.db"))
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("opening profile database: %w", err)
	}

	return &Plugin{
		opts:     opts,
		manager:  manager,
		registry: reg,
		perms:    perms,
		research: research.NewService(manager, db.Profiles()),
		db:       db,
		tracing:  traceProvider,
		stopped:  make(chan struct{}),
	}, nil
}

// Manager returns the config manager.
func (p *Plugin) Manager() *config.Manager { return p.manager }

// Registry returns the item and research registry.
func (p *Plugin) Registry() registry.Registry { return p.registry }

// Permissions returns the permission service.
func (p *Plugin) Permissions() *permission.Service { return p.perms }

// Research returns the research unlock service.
func (p *Plugin) Research() *research.Service { return p.research }

// Start performs the initial reload and, when auto-reload is on, starts
// watching the data directory. An initial reload with failures is
// logged but does not abort startup.
func (p *Plugin) Start(ctx context.Context) error {
	if ok := p.manager.ReloadContext(ctx); !ok {
		log.Warn(log.CatPlugin, "initial reload completed with failures")
	}

	if !p.opts.AutoReload {
		return nil
	}

	w, err := watcher.New(watcher.DefaultConfig(p.opts.DataDir))
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	onChange, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return fmt.Errorf("starting config watcher: %w", err)
	}
	p.watcher = w

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case _, ok := <-onChange:
				if !ok {
					return
				}
				log.Info(log.CatPlugin, "config change detected, reloading")
				p.manager.ReloadContext(ctx)
			case <-ctx.Done():
				return
			case <-p.stopped:
				return
			}
		}
	}()

	log.Info(log.CatPlugin, "watching data directory for config changes",
		"dir", p.opts.DataDir)
	return nil
}

// Stop shuts every subsystem down: watcher, documents (saved), tracing
// and the profile database.
func (p *Plugin) Stop(ctx context.Context) error {
	close(p.stopped)

	var errs []error
	if p.watcher != nil {
		errs = append(errs, p.watcher.Stop())
	}
	p.wg.Wait()

	if err := p.manager.SaveAll(); err != nil {
		errs = append(errs, fmt.Errorf("saving config documents: %w", err))
	}
	p.manager.Close()

	errs = append(errs, p.tracing.Shutdown(ctx))
	errs = append(errs, p.db.Close())

	return errors.Join(errs...)
}
