// Package app wires configuration, logging, transport, the topic store and
// the visualizer registry into the three ways pubtail runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"github.com/jwafle/pubtail/internal/config"
	"github.com/jwafle/pubtail/internal/logging"
	"github.com/jwafle/pubtail/internal/telemetry"
	"github.com/jwafle/pubtail/internal/transport"
	"github.com/jwafle/pubtail/internal/ui"
	"github.com/jwafle/pubtail/internal/visualization"
	"github.com/jwafle/pubtail/internal/web"
)

// shutdownGrace bounds how long the web mirror may take to drain.
const shutdownGrace = 5 * time.Second

type App struct {
	cfg      config.Config
	sink     *logging.Sink
	log      *log.Logger
	registry *visualization.Registry
	store    *telemetry.Store
}

// New validates cfg and opens the log sink. Callers must Close the App.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sink, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:      cfg,
		sink:     sink,
		log:      sink.Logger("app"),
		registry: visualization.Default(),
		store:    telemetry.NewStore(cfg.View.MaxTopics),
	}, nil
}

func (a *App) Close() error { return a.sink.Close() }

// Registry is the visualizer registry every surface shares.
func (a *App) Registry() *visualization.Registry { return a.registry }

// Store is the topic store every surface shares.
func (a *App) Store() *telemetry.Store { return a.store }

func (a *App) dial(ctx context.Context) (*transport.Stream, error) {
	a.log.Infof("dialing %s", a.cfg.Endpoint)
	return transport.Dial(ctx, a.cfg.Endpoint, &transport.Config{
		Origin:       a.cfg.Origin,
		PingInterval: a.cfg.PingInterval,
		BaseBackoff:  a.cfg.Backoff.Base,
		MaxBackoff:   a.cfg.Backoff.Max,
		MaxRetries:   a.cfg.Backoff.MaxRetries,
		Logger:       a.sink.Logger("transport"),
	})
}

func (a *App) webServer() *web.Server {
	return web.New(web.Options{
		Store:    a.store,
		Registry: a.registry,
		Width:    a.cfg.Web.Width,
		Logger:   a.sink.Logger("web"),
	})
}

// serveWeb runs srv on the group until ctx ends.
func (a *App) serveWeb(ctx context.Context, g *errgroup.Group, srv *web.Server) {
	g.Go(func() error { return srv.Start(a.cfg.Web.Addr) })
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// RunTUI drives the terminal UI. When web.addr is set the web mirror serves
// the same store alongside it.
func (a *App) RunTUI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := a.dial(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Web.Addr != "" {
		a.serveWeb(gctx, g, a.webServer())
	}
	g.Go(func() error {
		defer cancel()
		return ui.Run(gctx, ui.Options{
			Receiver: stream,
			Registry: a.registry,
			Store:    a.store,
			Logger:   a.sink.Logger("ui"),
		})
	})
	return g.Wait()
}

// RunServe mirrors the stream over HTTP without a terminal.
func (a *App) RunServe(ctx context.Context) error {
	if a.cfg.Web.Addr == "" {
		return errors.New("app: web.addr is required to serve")
	}
	stream, err := a.dial(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	g, gctx := errgroup.WithContext(ctx)
	a.serveWeb(gctx, g, a.webServer())
	g.Go(func() error { return a.ingest(gctx, stream) })
	return g.Wait()
}

// ingest feeds r into the store until ctx ends or r fails.
func (a *App) ingest(ctx context.Context, r ui.Receiver) error {
	for {
		m, err := r.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if evicted := a.store.Add(m); evicted != "" {
			a.log.Debugf("evicted topic %q", evicted)
		}
	}
}

// RunDump prints each message rendered at width to w, stopping after count
// messages when count > 0.
func (a *App) RunDump(ctx context.Context, w io.Writer, width, count int) error {
	stream, err := a.dial(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()
	return a.dump(ctx, stream, w, width, count)
}

func (a *App) dump(ctx context.Context, r ui.Receiver, w io.Writer, width, count int) error {
	if width <= 0 {
		width = 80
	}
	for n := 0; count <= 0 || n < count; n++ {
		m, err := r.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		a.store.Add(m)
		if err := a.writeMessage(w, &m, width); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) writeMessage(w io.Writer, m *telemetry.Message, width int) error {
	v := a.registry.Open(telemetry.Pin(m))
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (%s) %s ==\n", m.Topic, v.Kind(), m.Timestamp.UTC().Format(time.RFC3339))
	for _, l := range v.Render(width) {
		b.WriteString(ansi.Strip(l))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
