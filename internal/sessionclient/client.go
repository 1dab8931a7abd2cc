// Package sessionclient implements the Session Client (SC): a
// client-side WebSocket session to the streaming recognition service,
// driven by a single-threaded event loop over one channel, per spec
// §4.3. Grounded in the teacher's tools/transcript-viewer Hub (gorilla
// websocket connection handling) and in the teacher's
// stt.Adapter/Callback interface shape.
package sessionclient

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"caption-core/internal/config"
	"caption-core/internal/errs"
	"caption-core/internal/models"
)

// Callback receives session events. Implementations must not block;
// the event loop calls these synchronously from its own goroutine.
type Callback interface {
	OnTranscript(models.Transcript)
	OnStateChange(models.SessionState)
	OnError(error)
}

// eventKind discriminates the four event classes spec §4.3's event
// loop dispatches: inbound audio to send, inbound wire messages from
// the server, timer firings, and external commands (Open/Close/Send).
type eventKind int

const (
	eventAudioFrame eventKind = iota
	eventWireMessage
	eventTimer
	eventCommand
)

type event struct {
	kind  eventKind
	audio []byte
	wire  []byte
	cmd   command
}

type commandKind int

const (
	cmdOpen commandKind = iota
	cmdClose
	cmdSend
	// cmdConnLost is pushed by readLoop whenever conn.ReadMessage
	// returns an error. It is distinct from cmdClose (a user-requested
	// shutdown) so the event loop can tell a non-clean close apart from
	// the read error our own shutdown() causes when it closes the
	// socket out from under a blocked readLoop.
	cmdConnLost
	// cmdReconnect fires when a scheduled reconnect delay elapses.
	cmdReconnect
)

type command struct {
	kind commandKind
}

// Client is the Session Client. One Client serves one logical
// recognition session; reconnects reuse the same Client and reset its
// internal WebSocket handle.
type Client struct {
	cfg      config.SessionConfig
	endpoint string
	protocol string // sub-protocol auth token
	callback Callback

	mu    sync.Mutex
	state models.SessionState
	stats models.SessionStats

	closeRequested   bool
	reconnectAttempt int
	reconnectTimer   *time.Timer
	giveUp           bool
	pendingInterim   *models.Transcript

	events chan event
	done   chan struct{}
	conn   *websocket.Conn
	dialer *websocket.Dialer
}

// New builds a Client. endpoint is the wss:// URL of the recognition
// service; authToken becomes the WebSocket sub-protocol, mirroring the
// "token carried as sub-protocol, never as a query parameter" rule
// spec §4.3/§7 states for credential handling.
func New(cfg config.SessionConfig, endpoint, authToken string, callback Callback) *Client {
	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		protocol: authToken,
		callback: callback,
		state:    models.StateDisconnected,
		events:   make(chan event, 64),
		done:     make(chan struct{}),
		dialer: &websocket.Dialer{
			HandshakeTimeout: time.Duration(cfg.OpenTimeoutSec) * time.Second,
			Subprotocols:     subprotocolsFor(authToken),
		},
	}
}

// subprotocolsFor carries the auth token as a WebSocket sub-protocol
// rather than a URL query parameter, so it never lands in proxy or
// server access logs.
func subprotocolsFor(authToken string) []string {
	if authToken == "" {
		return nil
	}
	return []string{"token", authToken}
}

// State returns the current session state.
func (c *Client) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the session's counters.
func (c *Client) Stats() models.SessionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Client) setState(s models.SessionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.callback.OnStateChange(s)
}

// Run starts the event loop and blocks until ctx is cancelled, Close is
// called, or the reconnection policy gives up. It owns reconnection per
// spec §4.3: on a non-clean close (or a failed open) while
// ReconnectMaxRetries > 0, it schedules a reconnect after
// ReconnectBaseDelayMs * attempt, giving up once attempt exceeds
// ReconnectMaxRetries. A successful open resets the attempt counter.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.stopReconnectTimer()

	if err := c.connect(ctx); err != nil {
		c.callback.OnError(err)
		c.failConnection()
	}

	var keepAlive *time.Ticker
	var keepAliveC <-chan time.Time
	if c.cfg.KeepAliveEnabled {
		keepAlive = time.NewTicker(time.Duration(c.cfg.KeepAliveIntervalMs) * time.Millisecond)
		keepAliveC = keepAlive.C
		defer keepAlive.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			if c.State() != models.StateErrored {
				c.shutdown()
			}
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ctx, ev)
			if c.State() == models.StateClosing {
				c.shutdown()
				return nil
			}
			if c.hasGivenUp() {
				return errs.New(errs.KindServerError, "reconnect attempts exhausted")
			}
		case <-keepAliveC:
			c.sendKeepAlive()
		}
	}
}

func (c *Client) hasGivenUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.giveUp
}

func (c *Client) stopReconnectTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// failConnection transitions to Errored and, if autoreconnect is
// enabled (ReconnectMaxRetries > 0), schedules the next reconnect
// attempt per the linear-backoff policy, giving up once the retry cap
// is exceeded.
func (c *Client) failConnection() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	c.setState(models.StateErrored)

	if c.cfg.ReconnectMaxRetries <= 0 {
		c.mu.Lock()
		c.giveUp = true
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.reconnectAttempt++
	attempt := c.reconnectAttempt
	c.mu.Unlock()

	if attempt > c.cfg.ReconnectMaxRetries {
		c.callback.OnError(errs.New(errs.KindServerError, "reconnect attempts exhausted, giving up"))
		c.mu.Lock()
		c.giveUp = true
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.stats.ReconnectCount++
	c.mu.Unlock()

	delay := time.Duration(c.cfg.ReconnectBaseDelayMs*attempt) * time.Millisecond
	timer := time.AfterFunc(delay, func() {
		select {
		case c.events <- event{kind: eventCommand, cmd: command{kind: cmdReconnect}}:
		case <-c.done:
		}
	})
	c.mu.Lock()
	c.reconnectTimer = timer
	c.mu.Unlock()
}

// SendAudio enqueues a PCM frame for transmission. Non-blocking: if
// the event channel is saturated, the frame is dropped and counted,
// matching the Audio Pipeline's own backpressure discipline.
func (c *Client) SendAudio(frame []byte) bool {
	select {
	case c.events <- event{kind: eventAudioFrame, audio: frame}:
		return true
	default:
		c.mu.Lock()
		c.stats.FramesDropped++
		c.mu.Unlock()
		return false
	}
}

// Close requests a graceful shutdown of the session. Idempotent: it
// cancels any pending reconnect and, if the loop has already exited,
// the send below simply falls through on the closed done channel.
func (c *Client) Close() {
	c.stopReconnectTimer()
	select {
	case c.events <- event{kind: eventCommand, cmd: command{kind: cmdClose}}:
	case <-c.done:
	}
}

func (c *Client) connect(ctx context.Context) error {
	c.setState(models.StateConnecting)

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return errs.Wrap(errs.KindWebSocketOpenFailed, err, "opening websocket session")
	}

	c.mu.Lock()
	c.conn = conn
	c.closeRequested = false
	c.reconnectAttempt = 0
	c.mu.Unlock()

	c.setState(models.StateConnected)

	go c.readLoop(conn)
	return nil
}

// readLoop pumps inbound frames from one WebSocket connection into the
// event channel; it is the only goroutine that calls conn.ReadMessage.
// Each reconnect starts a fresh readLoop bound to the new conn value,
// so an old readLoop unblocked by shutdown() closing its socket never
// races with a newer connection's traffic.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case c.events <- event{kind: eventCommand, cmd: command{kind: cmdConnLost}}:
			case <-c.done:
			}
			return
		}
		select {
		case c.events <- event{kind: eventWireMessage, wire: data}:
		case <-c.done:
			return
		}
	}
}

func (c *Client) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case eventAudioFrame:
		c.handleAudioFrame(ev.audio)
	case eventWireMessage:
		c.handleWireMessage(ev.wire)
	case eventCommand:
		c.handleCommand(ctx, ev.cmd)
	case eventTimer:
		c.sendKeepAlive()
	}
}

func (c *Client) handleAudioFrame(frame []byte) {
	if c.conn == nil || c.State() != models.StateConnected {
		return
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.callback.OnError(errs.Wrap(errs.KindNetworkError, err, "writing audio frame"))
		return
	}
	c.mu.Lock()
	c.stats.FramesSent++
	c.stats.BytesSent += uint64(len(frame))
	c.mu.Unlock()
}

// handleWireMessage dispatches an inbound JSON message by its "type"
// field, read with a single gjson.Get rather than a full unmarshal so
// the hot path (many interim transcripts per second) avoids building
// an intermediate map for messages it will discard. Per spec §4.3's
// message table: Results carries transcripts; Metadata/SpeechStarted
// are logged at debug; UtteranceEnd is logged at debug and may
// force-finalize a pending interim; Error increments the error counter
// and surfaces the payload's message; unknown kinds are logged and
// ignored, not surfaced as errors.
func (c *Client) handleWireMessage(data []byte) {
	msgType := gjson.GetBytes(data, "type").String()
	switch msgType {
	case "Results":
		c.handleResults(data)
	case "Metadata":
		log.Debug().Msg("session metadata received")
	case "SpeechStarted":
		log.Debug().Msg("speech started")
	case "UtteranceEnd":
		log.Debug().Msg("utterance end")
		c.forceFinalizePending()
	case "Error":
		reason := gjson.GetBytes(data, "message").String()
		c.mu.Lock()
		c.stats.ErrorCount++
		c.mu.Unlock()
		c.callback.OnError(errs.New(errorKindForReason(reason), reason))
	default:
		log.Debug().Str("type", msgType).Msg("unknown message type, ignoring")
	}
}

// errorKindForReason maps a server Error payload's "message" field to
// a Kind. Reasons the backend hasn't documented fall back to
// ServerError rather than failing to parse.
func errorKindForReason(reason string) errs.Kind {
	switch reason {
	case "rate_limit":
		return errs.KindRateLimited
	case "unauthorized", "auth_failed":
		return errs.KindAuthFailed
	case "timeout":
		return errs.KindTimeout
	default:
		return errs.KindServerError
	}
}

func (c *Client) handleResults(data []byte) {
	root := gjson.ParseBytes(data)
	transcript := models.Transcript{
		UtteranceID:   root.Get("channel_index").Raw,
		Text:          root.Get("channel.alternatives.0.transcript").String(),
		IsFinal:       root.Get("is_final").Bool(),
		Confidence:    root.Get("channel.alternatives.0.confidence").Float(),
		RecvTimestamp: time.Now(),
	}
	for _, w := range root.Get("channel.alternatives.0.words").Array() {
		transcript.Words = append(transcript.Words, models.Word{
			Text:     w.Get("word").String(),
			StartSec: w.Get("start").Float(),
			EndSec:   w.Get("end").Float(),
		})
	}

	c.mu.Lock()
	if transcript.IsFinal {
		c.pendingInterim = nil
	} else {
		pending := transcript
		c.pendingInterim = &pending
	}
	c.mu.Unlock()

	c.callback.OnTranscript(transcript)
}

// forceFinalizePending promotes a still-open interim to final on
// UtteranceEnd, per spec §4.3's "may be used to force-finalize a
// pending interim".
func (c *Client) forceFinalizePending() {
	c.mu.Lock()
	pending := c.pendingInterim
	c.pendingInterim = nil
	c.mu.Unlock()
	if pending == nil {
		return
	}
	final := *pending
	final.IsFinal = true
	c.callback.OnTranscript(final)
}

func (c *Client) handleCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdClose:
		c.mu.Lock()
		c.closeRequested = true
		c.mu.Unlock()
		c.setState(models.StateClosing)
	case cmdConnLost:
		c.handleConnLost()
	case cmdReconnect:
		if err := c.connect(ctx); err != nil {
			c.callback.OnError(err)
			c.failConnection()
		}
	}
}

// handleConnLost runs when readLoop observes a read error. A read
// error caused by our own shutdown() closing the socket (closeRequested
// already true, or the state already past Connected) is expected and
// ignored; anything else is the "non-clean close after Connected"
// spec §4.3 requires transitioning to Errored and, per the
// reconnection policy, retrying.
func (c *Client) handleConnLost() {
	c.mu.Lock()
	requested := c.closeRequested
	c.mu.Unlock()
	if requested {
		return
	}
	switch c.State() {
	case models.StateClosing, models.StateDisconnected:
		return
	}

	c.callback.OnError(errs.New(errs.KindNetworkError, "connection closed unexpectedly"))
	c.failConnection()
}

func (c *Client) sendKeepAlive() {
	if c.conn == nil || c.State() != models.StateConnected {
		return
	}
	_ = c.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`))
}

func (c *Client) shutdown() {
	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
		c.conn = nil
	}
	c.setState(models.StateDisconnected)
}
