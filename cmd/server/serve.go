package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"homebox-voice-mcp/internal/config"
	"homebox-voice-mcp/internal/display"
	"homebox-voice-mcp/internal/facts"
	"homebox-voice-mcp/internal/homebox"
	"homebox-voice-mcp/internal/logging"
	mcpserver "homebox-voice-mcp/internal/mcp"
	"homebox-voice-mcp/internal/recorder"
	"homebox-voice-mcp/internal/session"
	"homebox-voice-mcp/internal/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var ssePort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio, or SSE with --sse-port)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if ssePort != 0 {
				cfg.MCP.SSEPort = ssePort
			}

			// stdout carries the protocol in stdio mode.
			logger, err := logging.New(cfg.Server, logging.Options{
				Verbose: opts.verbose,
				ToFile:  cfg.MCP.SSEPort == 0,
			})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, logger)
			if err != nil {
				logger.Error("startup failed", zap.Error(err))
				return err
			}
			defer a.close()

			return a.run(ctx)
		},
	}
	cmd.Flags().IntVar(&ssePort, "sse-port", 0, "Serve MCP over SSE on this port instead of stdio")
	return cmd
}

// app is one fully wired server process: one agent session, its tools and
// the surfaces that expose them.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	engine   *facts.Engine
	session  *session.Session
	client   *homebox.Client
	registry *tools.Registry
	server   *mcpserver.Server
	display  *display.Server
	recorder *recorder.Recorder
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !cfg.Homebox.HasCredentials() {
		logger.Warn("homebox credentials missing; tool calls will fail until HOMEBOX_USERNAME and HOMEBOX_PASSWORD are set",
			zap.String("base_url", cfg.Homebox.BaseURL))
	}

	engine, err := facts.NewEngine(cfg.Facts, logger.Named("facts"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fact engine: %w", err)
	}

	sess := session.New(session.WithMirror(engine), session.WithLogger(logger.Named("session")))
	client := homebox.NewClient(cfg.Homebox, homebox.WithLogger(logger.Named("homebox")))
	toolset := tools.NewToolset(client, sess,
		tools.WithFacts(engine),
		tools.WithLogger(logger.Named("tools")),
		tools.WithScopeToCurrentLocation(cfg.Resolver.ScopeToCurrentLocation),
	)

	a := &app{cfg: cfg, logger: logger, engine: engine, session: sess, client: client}

	var regOpts []tools.RegistryOption
	if cfg.Recorder.Enable {
		rec, err := recorder.New(cfg.Recorder.Dir, logger.Named("recorder"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize recorder: %w", err)
		}
		if err := rec.Start(sess.ID().String()); err != nil {
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		a.recorder = rec
		regOpts = append(regOpts, tools.WithRecorder(rec))
	}
	a.registry = tools.NewRegistry(toolset, regOpts...)

	a.server, err = mcpserver.NewServer(cfg, a.registry, sess, client,
		mcpserver.WithFacts(engine),
		mcpserver.WithLogger(logger.Named("mcp")),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	if cfg.Display.Enable {
		a.display = display.NewServer(cfg.Display, sess,
			display.WithFacts(engine),
			display.WithLogger(logger.Named("display")),
		)
	}
	return a, nil
}

// run serves MCP and, when enabled, the display API until ctx is done or
// the MCP transport ends.
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		var err error
		if a.cfg.MCP.SSEPort > 0 {
			a.logger.Info("starting MCP SSE server", zap.Int("port", a.cfg.MCP.SSEPort))
			err = a.server.StartSSE(gctx, a.cfg.MCP.SSEPort)
		} else {
			a.logger.Info("starting MCP stdio server")
			err = a.server.Start(gctx)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if a.display != nil {
		g.Go(func() error {
			return a.display.Start(gctx)
		})
	}

	err := g.Wait()
	a.logger.Info("server stopped",
		zap.String("session", a.session.ID().String()),
		zap.Int("events", a.session.Events().Len()),
		zap.Error(err))
	return err
}

func (a *app) close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.logger.Warn("closing trace failed", zap.Error(err))
		}
	}
}
