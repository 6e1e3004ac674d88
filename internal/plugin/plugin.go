// Package plugin is the host-facing entry point of the exporter: the
// version descriptor the host inspects before loading, and Load, which checks
// compatibility and starts the background export.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/dbsmedya/questexport/internal/config"
	"github.com/dbsmedya/questexport/internal/extract"
	"github.com/dbsmedya/questexport/internal/host"
	"github.com/dbsmedya/questexport/internal/layout"
	"github.com/dbsmedya/questexport/internal/logger"
	"github.com/dbsmedya/questexport/internal/paths"
	"github.com/dbsmedya/questexport/internal/scheduler"
	"github.com/dbsmedya/questexport/internal/snapshot"
	"github.com/dbsmedya/questexport/internal/walker"
)

// Identity of the exporter as reported to the host.
const (
	Name   = "OBRQuestCompanion"
	Author = "dbsmedya"
)

// Version is set via ldflags at build time.
var Version = "0.0.1-dev"

// Descriptor is the version data a host reads before calling Load.
type Descriptor struct {
	Name             string
	Author           string
	Version          string
	MinimumRuntime   host.RuntimeVersion
	SupportedRuntime host.RuntimeVersion
	Strict           bool
}

// Compatible reports whether the descriptor accepts runtime.
func (d Descriptor) Compatible(runtime host.RuntimeVersion) bool {
	return host.IsCompatibleVersion(runtime, d.MinimumRuntime, d.SupportedRuntime, d.Strict)
}

// NewDescriptor builds the descriptor from host configuration.
func NewDescriptor(cfg config.HostConfig) (Descriptor, error) {
	minimum, err := host.ParseVersion(cfg.MinimumRuntime)
	if err != nil {
		return Descriptor{}, fmt.Errorf("minimum runtime: %w", err)
	}
	supported, err := host.ParseVersion(cfg.SupportedRuntime)
	if err != nil {
		return Descriptor{}, fmt.Errorf("supported runtime: %w", err)
	}
	return Descriptor{
		Name:             Name,
		Author:           Author,
		Version:          Version,
		MinimumRuntime:   minimum,
		SupportedRuntime: supported,
		Strict:           cfg.Strict,
	}, nil
}

// Components are the pieces of one export pipeline.
type Components struct {
	Walker    *walker.Walker
	Writer    *snapshot.Writer
	Paths     *paths.Resolver
	Scheduler *scheduler.Scheduler
}

// Build wires walker, writer, path resolver and scheduler from configuration.
func Build(cfg *config.Config, provider host.Provider, log *logger.Logger) (*Components, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	kind, err := host.ParseFormType(cfg.Export.RecordKind)
	if err != nil {
		return nil, err
	}

	contract := layout.Contract{
		Version:     cfg.Layout.Version,
		StageOffset: cfg.Layout.StageOffset,
	}
	ex := extract.New(layout.NewFixedOffset(contract), cfg.Export.NamePrefix, cfg.Export.Placeholder)

	c := &Components{
		Walker: walker.New(provider, kind, ex, log),
		Writer: snapshot.NewWriter(log, snapshot.WithAtomicRename(cfg.Export.AtomicWrite)),
		Paths: &paths.Resolver{
			Directory:  cfg.Export.Directory,
			SaveFolder: cfg.Export.SaveFolder,
			Filename:   cfg.Export.Filename,
		},
	}
	c.Scheduler = scheduler.New(c.Walker, c.Writer, c.Paths, cfg.Export.Interval(), log)

	log.Debugw("Export pipeline built",
		"kind", kind.String(),
		"layout", contract.String(),
		"atomic_write", cfg.Export.AtomicWrite,
	)
	return c, nil
}

// Plugin owns the lifetime of one exporter inside a host.
type Plugin struct {
	cfg       *config.Config
	logger    *logger.Logger
	observers []scheduler.Observer

	mu     sync.Mutex
	handle *scheduler.Handle
}

// New creates an unloaded plugin.
func New(cfg *config.Config, log *logger.Logger) *Plugin {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Plugin{cfg: cfg, logger: log}
}

// OnPass registers an observer for every pass. Call before Load.
func (p *Plugin) OnPass(obs scheduler.Observer) {
	p.observers = append(p.observers, obs)
}

// Descriptor returns the version descriptor for the configured host.
func (p *Plugin) Descriptor() (Descriptor, error) {
	return NewDescriptor(p.cfg.Host)
}

// Load checks the host runtime and starts the export scheduler. It returns
// false, having started nothing, when the runtime is incompatible or the
// exporter cannot be built. Loading twice is a no-op that returns true.
func (p *Plugin) Load(ctx context.Context, h host.Interface) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil {
		return true
	}

	desc, err := p.Descriptor()
	if err != nil {
		p.logger.Errorw("Invalid plugin descriptor, disabling", "error", err)
		return false
	}

	runtime := h.RuntimeVersion()
	if !desc.Compatible(runtime) {
		p.logger.Errorw("Plugin is not compatible with runtime version, disabling",
			"runtime", runtime.String(),
			"minimum", desc.MinimumRuntime.String(),
			"supported", desc.SupportedRuntime.String(),
			"strict", desc.Strict,
		)
		return false
	}

	c, err := Build(p.cfg, h, p.logger)
	if err != nil {
		p.logger.Errorw("Failed to build exporter, disabling", "error", err)
		return false
	}
	for _, obs := range p.observers {
		c.Scheduler.OnPass(obs)
	}

	p.handle = c.Scheduler.Start(ctx)
	p.logger.Infow("Plugin loaded",
		"name", desc.Name,
		"version", desc.Version,
		"runtime", runtime.String(),
	)
	return true
}

// Stop ends the export loop and waits for an in-flight pass. The host itself
// never calls it; processes embedding the exporter may.
func (p *Plugin) Stop() {
	p.mu.Lock()
	h := p.handle
	p.handle = nil
	p.mu.Unlock()

	if h != nil {
		h.Stop()
	}
}

// Done is closed when the export loop exits. It is nil before Load.
func (p *Plugin) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return nil
	}
	return p.handle.Done()
}
