package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/net/websocket"

	"github.com/jwafle/pubtail/internal/telemetry"
)

// ErrStreamClosed is returned by Recv once the stream has shut down.
var ErrStreamClosed = errors.New("transport: stream closed")

// ErrRetriesExhausted is reported when MaxRetries consecutive dials fail.
var ErrRetriesExhausted = errors.New("transport: reconnect attempts exhausted")

// Stream delivers parsed frames from a reconnecting websocket.
type Stream struct {
	msgCh  chan []byte // closed when the dial loop exits
	errCh  chan error  // holds the fatal error, sent before msgCh closes
	cancel context.CancelFunc
}

// Close cancels the underlying context and shuts the channels.
func (s *Stream) Close() { s.cancel() }

// Recv blocks until the next frame arrives and parses it into a Message.
// Once the stream has ended it reports the fatal error, if there was one,
// and ErrStreamClosed afterwards.
func (s *Stream) Recv(ctx context.Context) (telemetry.Message, error) {
	select {
	case <-ctx.Done():
		return telemetry.Message{}, ctx.Err()
	case b, ok := <-s.msgCh:
		if !ok {
			return telemetry.Message{}, s.fatal()
		}
		return telemetry.Parse(b), nil
	case err, ok := <-s.errCh:
		if ok {
			return telemetry.Message{}, err
		}
		return telemetry.Message{}, ErrStreamClosed
	}
}

func (s *Stream) fatal() error {
	select {
	case err, ok := <-s.errCh:
		if ok && err != nil {
			return err
		}
	default:
	}
	return ErrStreamClosed
}

// --------------------------------------------------------------------

// Config tweaks behaviour; zero-value is sane.
type Config struct {
	Origin       string        // default http://localhost/
	PingInterval time.Duration // 0 = no pings
	BaseBackoff  time.Duration // default 500 ms
	MaxBackoff   time.Duration // default 30 s
	MaxRetries   int           // consecutive failed dials before giving up; 0 = forever
	Logger       *log.Logger   // nil = discard
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Origin == "" {
		out.Origin = "http://localhost/"
	}
	if out.BaseBackoff <= 0 {
		out.BaseBackoff = 500 * time.Millisecond
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = 30 * time.Second
	}
	if out.Logger == nil {
		out.Logger = log.New("transport")
		out.Logger.SetOutput(io.Discard)
	}
	return out
}

// Dial starts a background goroutine that
//   - dials endpoint (with Origin header)
//   - pipes frames into Stream.msgCh
//   - auto-reconnects with exponential back-off
func Dial(ctx context.Context, endpoint string, cfg *Config) (*Stream, error) {
	c := cfg.withDefaults()

	// Validate URL up-front.
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("transport: invalid websocket endpoint %q", endpoint)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		msgCh:  make(chan []byte, 1024),
		errCh:  make(chan error, 1), // buffer so goroutine can exit
		cancel: cancel,
	}

	go func() {
		defer func() {
			cancel()
			close(s.msgCh)
			close(s.errCh)
		}()
		if err := dialLoop(ctx, endpoint, c, s.msgCh); err != nil {
			s.errCh <- err
		}
	}()

	return s, nil
}

// dialLoop keeps a connection open until ctx is done or retries run out.
func dialLoop(ctx context.Context, endpoint string, c Config, out chan<- []byte) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := dial(ctx, endpoint, c.Origin)
		if err != nil {
			attempt++
			if c.MaxRetries > 0 && attempt >= c.MaxRetries {
				return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
			}
			delay := backoff(attempt-1, c.BaseBackoff, c.MaxBackoff)
			c.Logger.Warnf("dial %s: %v (retry in %s)", endpoint, err, delay)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}
		attempt = 0 // successful dial → reset
		c.Logger.Infof("connected to %s", endpoint)

		if c.PingInterval > 0 {
			go pingLoop(ctx, conn, c.PingInterval, c.Logger)
		}

		if err := readLoop(ctx, conn, out); err != nil && ctx.Err() == nil {
			c.Logger.Warnf("read loop ended: %v", err)
		}
	}
}

func dial(ctx context.Context, endpoint, origin string) (*websocket.Conn, error) {
	wc, err := websocket.NewConfig(endpoint, origin)
	if err != nil {
		return nil, err
	}
	return wc.DialContext(ctx)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// --------------------------------------------------------------------
// Internal helpers

// readLoop blocks, copying frames to out until EOF or ctx.Done().
func readLoop(ctx context.Context, c *websocket.Conn, out chan<- []byte) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()
	defer c.Close()

	for {
		var frame []byte
		if err := websocket.Message.Receive(c, &frame); err != nil {
			return err // includes io.EOF on clean close
		}
		// Non-blocking send; drop frame if no reader (paused UI).
		select {
		case out <- frame:
		default:
		}
	}
}

// pingLoop sends a WebSocket Ping every interval until ctx.Done() or the
// connection fails.
func pingLoop(ctx context.Context, c *websocket.Conn, interval time.Duration, l *log.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.PayloadType = websocket.PingFrame
			if _, err := c.Write(nil); err != nil {
				l.Debugf("ping failed: %v", err)
				return
			}
		}
	}
}
