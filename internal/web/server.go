// Package web mirrors the topic store over HTTP: a JSON listing, a rendered
// fragment per topic, and a server-sent event stream of re-renders.
package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/charmbracelet/x/ansi"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/jwafle/pubtail/internal/telemetry"
	"github.com/jwafle/pubtail/internal/visualization"
)

const (
	defaultWidth = 100
	defaultPoll  = 250 * time.Millisecond
	maxWidth     = 1000
)

// Options wires a Server to the store it mirrors.
type Options struct {
	Store    *telemetry.Store
	Registry *visualization.Registry
	Width    int           // render width when the request gives none
	Poll     time.Duration // how often streams check for a new snapshot
	Logger   *log.Logger
}

type Server struct {
	e        *echo.Echo
	store    *telemetry.Store
	registry *visualization.Registry
	width    int
	poll     time.Duration
	log      *log.Logger
}

type topicInfo struct {
	Name    string    `json:"name"`
	Tag     string    `json:"tag"`
	Count   int       `json:"count"`
	Size    int       `json:"size"`
	Updated time.Time `json:"updated"`
}

func New(o Options) *Server {
	if o.Store == nil {
		o.Store = telemetry.NewStore(0)
	}
	if o.Registry == nil {
		o.Registry = visualization.Default()
	}
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Poll <= 0 {
		o.Poll = defaultPoll
	}
	if o.Logger == nil {
		o.Logger = log.New("web")
		o.Logger.SetOutput(io.Discard)
	}

	s := &Server{
		e:        echo.New(),
		store:    o.Store,
		registry: o.Registry,
		width:    o.Width,
		poll:     o.Poll,
		log:      o.Logger,
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Logger = o.Logger
	s.e.Use(middleware.Recover())

	s.e.GET("/", s.home)
	s.e.GET("/topics", s.topics)
	s.e.GET("/topics/:topic", s.topic)
	s.e.GET("/topics/:topic/stream", s.stream)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Infof("web mirror listening on %s", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func render(c echo.Context, status int, t templ.Component) error {
	var buf bytes.Buffer
	if err := t.Render(c.Request().Context(), &buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "render failed: "+err.Error())
	}
	return c.HTML(status, buf.String())
}

func (s *Server) infos() []topicInfo {
	topics := s.store.Topics()
	out := make([]topicInfo, 0, len(topics))
	for _, t := range topics {
		snap := t.Slot.Snapshot()
		out = append(out, topicInfo{
			Name:    t.Name,
			Tag:     snap.Tag,
			Count:   t.Count,
			Size:    snap.Size(),
			Updated: t.Updated,
		})
	}
	return out
}

func (s *Server) home(c echo.Context) error {
	return render(c, http.StatusOK, index(s.infos()))
}

func (s *Server) topics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.infos())
}

// requestWidth reads ?width=, falling back to the configured width.
func (s *Server) requestWidth(c echo.Context) (int, error) {
	width := s.width
	if err := echo.QueryParamsBinder(c).Int("width", &width).BindError(); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "width must be an integer")
	}
	if width <= 0 || width > maxWidth {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "width out of range")
	}
	return width, nil
}

func (s *Server) lookup(c echo.Context) (telemetry.Topic, error) {
	name := c.Param("topic")
	t, ok := s.store.Get(name)
	if !ok {
		return telemetry.Topic{}, echo.NewHTTPError(http.StatusNotFound, "unknown topic "+name)
	}
	return t, nil
}

// plain lays v out at width with terminal styling removed.
func plain(v visualization.View, width int) []string {
	lines := v.Render(width)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = ansi.Strip(l)
	}
	return out
}

func (s *Server) topic(c echo.Context) error {
	t, err := s.lookup(c)
	if err != nil {
		return err
	}
	width, err := s.requestWidth(c)
	if err != nil {
		return err
	}
	v := s.registry.Open(telemetry.Pin(t.Slot.Snapshot()))
	lines := plain(v, width)
	if c.QueryParam("format") == "text" {
		return c.String(http.StatusOK, strings.Join(lines, "\n")+"\n")
	}
	return render(c, http.StatusOK, message(t.Name, v.Kind(), lines))
}

func (s *Server) stream(c echo.Context) error {
	t, err := s.lookup(c)
	if err != nil {
		return err
	}
	width, err := s.requestWidth(c)
	if err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var last uint64
	for {
		if seq := t.Slot.Seq(); seq != last {
			last = seq
			snap := t.Slot.Snapshot()
			v := s.registry.Open(telemetry.Pin(snap))

			var buf bytes.Buffer
			if err := message(t.Name, v.Kind(), plain(v, width)).Render(ctx, &buf); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "render failed: "+err.Error())
			}
			ev := &Event{ID: seq, Data: buf.Bytes(), Event: []byte(v.Kind())}
			if err := ev.MarshalTo(w); err != nil {
				return nil
			}
			w.Flush()
		}

		select {
		case <-ctx.Done():
			s.log.Debugf("SSE client disconnected, ip: %v", c.RealIP())
			return nil
		case <-ticker.C:
		}

		// A re-added topic gets a fresh slot; the one this stream holds is dead.
		if cur, ok := s.store.Get(t.Name); !ok || cur.Slot != t.Slot {
			ev := &Event{ID: last, Data: []byte(t.Name), Event: []byte("evicted")}
			_ = ev.MarshalTo(w)
			w.Flush()
			return nil
		}
	}
}
