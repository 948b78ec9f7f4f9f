package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/logging"
	"github.com/hupe1980/parlance/transcript"
)

// DefaultURL is the realtime websocket endpoint.
const DefaultURL = "wss://api.openai.com/v1/realtime"

const (
	listenOp              = "realtime.listen"
	defaultConnectTimeout = 10 * time.Second
)

// ListenerOptions configures a Listener.
type ListenerOptions struct {
	URL    string
	Dialer *websocket.Dialer
	Logger logging.Logger
}

// Listener follows the text side of a live realtime session. It connects with
// the session's ephemeral credential and feeds decoded transcript events to a
// handler.
type Listener struct {
	opts ListenerOptions
}

// NewListener creates a Listener.
func NewListener(optFns ...func(o *ListenerOptions)) *Listener {
	opts := ListenerOptions{URL: DefaultURL}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Listener{opts: opts}
}

// Run connects and blocks until ctx is done or the server closes the socket.
// connected is called once the socket is open; it may be nil. Both callbacks
// run on the Run goroutine.
func (l *Listener) Run(ctx context.Context, cred *core.Credential, connected func(), handle func(transcript.Event)) error {
	if cred == nil || cred.Secret == "" {
		return core.InvalidInputError(listenOp, "credential secret is required")
	}

	u, err := url.Parse(l.opts.URL)
	if err != nil {
		return fmt.Errorf("parse realtime url: %w", err)
	}
	if cred.Model != "" {
		q := u.Query()
		q.Set("model", cred.Model)
		u.RawQuery = q.Encode()
	}

	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+cred.Secret)

	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, resp, err := l.opts.Dialer.DialContext(dialCtx, u.String(), headers)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return core.UpstreamError(listenOp, status, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	if connected != nil {
		connected()
	}

	dec := NewDecoder()
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return core.UpstreamError(listenOp, 0, err)
		}
		if messageType != websocket.TextMessage {
			continue
		}

		ev, ok, err := dec.Decode(data)
		if err != nil {
			var serverErr *ServerError
			if errors.As(err, &serverErr) {
				l.opts.Logger.Warn("realtime server error", "type", serverErr.Type, "code", serverErr.Code, "message", serverErr.Message)
			} else {
				l.opts.Logger.Debug("skipping undecodable realtime event", "error", err)
			}
			continue
		}
		if ok && handle != nil {
			handle(ev)
		}
	}
}
