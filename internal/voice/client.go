package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dioinnovo/voicelead/internal/dialogue"
	"github.com/dioinnovo/voicelead/pkg/logging"
)

// Client drives one realtime voice connection. The capture loop and the
// receive loop run independently; the only coordination between callers and
// the connection is the single-flight response gate and the write mutex.
type Client struct {
	cfg    Config
	bus    *Bus
	sched  *Scheduler
	source AudioSource
	logger *logging.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu               sync.Mutex
	responseInFlight bool
	sendQueue        []string
	assistantText    string
	callActive       bool
	captureDone      chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client's logger.
func WithClientLogger(l *logging.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithBus sets the event bus the client publishes on. Without it the
// client creates its own, reachable via Events.
func WithBus(b *Bus) ClientOption {
	return func(c *Client) { c.bus = b }
}

// NewClient builds a client over the given sink and capture source. The
// source may be nil for text-only use.
func NewClient(cfg Config, sink AudioSink, source AudioSource, opts ...ClientOption) *Client {
	c := &Client{
		cfg:    cfg.withDefaults(),
		source: source,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = NewBus()
	}
	if c.logger == nil {
		c.logger = logging.Default()
	}
	c.sched = NewScheduler(sink, c.bus)
	return c
}

// Events returns the bus the client publishes lifecycle and transcript
// events on.
func (c *Client) Events() *Bus { return c.bus }

// Connect dials the backend, sends the session configuration, and waits
// for the server's acknowledgment. It fails with a connection error if the
// handshake does not complete within the configured timeout.
func (c *Client) Connect(ctx context.Context) error {
	target, protocols, err := dialTarget(c.cfg)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		Subprotocols:     protocols,
	}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("voice: dial: %w", err)
	}
	c.conn = conn

	if err := c.writeJSON(sessionUpdateMessage{
		Type: msgSessionUpdate,
		Session: sessionParams{
			Modalities:        []string{"audio", "text"},
			Instructions:      c.cfg.Instructions,
			Voice:             c.cfg.Voice,
			InputAudioFormat:  "pcm16",
			OutputAudioFormat: "pcm16",
			TurnDetection: &turnDetection{
				Type:              "server_vad",
				Threshold:         0.5,
				PrefixPaddingMs:   300,
				SilenceDurationMs: 500,
			},
		},
	}); err != nil {
		conn.Close()
		return fmt.Errorf("voice: session update: %w", err)
	}

	if err := c.awaitAck(); err != nil {
		conn.Close()
		return err
	}

	go c.receiveLoop()
	c.bus.Publish(Event{Type: EventConnected})
	return nil
}

// awaitAck reads until the server acknowledges the session, bounded by the
// handshake timeout.
func (c *Client) awaitAck() error {
	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("voice: set deadline: %w", err)
	}
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("voice: handshake: %w", err)
		}
		var evt serverEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		switch evt.Type {
		case evtSessionCreated, evtSessionUpdated:
			return nil
		case evtError:
			if evt.Error != nil && evt.Error.Message != "" {
				return fmt.Errorf("voice: handshake rejected: %s", evt.Error.Message)
			}
		}
	}
}

func (c *Client) writeJSON(v any) error {
	if c.conn == nil {
		return fmt.Errorf("voice: not connected")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("voice: marshal: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SendText requests a voiced response to the given text. If a response is
// already in flight the text is queued and sent exactly once after the
// current generation completes; a second response.create is never issued
// concurrently.
func (c *Client) SendText(text string) error {
	c.mu.Lock()
	if c.responseInFlight {
		c.sendQueue = append(c.sendQueue, text)
		c.mu.Unlock()
		return nil
	}
	c.responseInFlight = true
	c.mu.Unlock()

	if err := c.sendNow(text); err != nil {
		// a failed send produces no response.done, so the gate must
		// reopen here or every later SendText would queue forever
		c.mu.Lock()
		c.responseInFlight = false
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Client) sendNow(text string) error {
	if err := c.writeJSON(conversationItemMessage{
		Type: msgItemCreate,
		Item: conversationItem{
			Type: "message",
			Role: "user",
			Content: []conversationPart{
				{Type: "input_text", Text: text},
			},
		},
	}); err != nil {
		return err
	}
	return c.writeJSON(typeOnlyMessage{Type: msgResponseCreate})
}

// StartCall begins streaming captured audio to the backend.
func (c *Client) StartCall() error {
	if c.source == nil {
		return fmt.Errorf("voice: no audio source configured")
	}
	c.mu.Lock()
	if c.callActive {
		c.mu.Unlock()
		return nil
	}
	c.callActive = true
	c.captureDone = make(chan struct{})
	c.mu.Unlock()

	if err := c.source.Start(); err != nil {
		c.mu.Lock()
		c.callActive = false
		c.mu.Unlock()
		return fmt.Errorf("voice: start capture: %w", err)
	}

	go c.captureLoop()
	c.bus.Publish(Event{Type: EventCallStarted})
	return nil
}

// captureLoop encodes capture frames and streams them as append messages.
// It exits when the source's frame channel closes.
func (c *Client) captureLoop() {
	defer close(c.captureDone)
	for frame := range c.source.Frames() {
		if len(frame) == 0 {
			continue
		}
		msg := audioAppendMessage{
			Type:  msgAudioAppend,
			Audio: base64.StdEncoding.EncodeToString(frame),
		}
		if err := c.writeJSON(msg); err != nil {
			c.logger.Error("failed to stream audio frame", "error", err)
			return
		}
	}
}

// EndCall stops capture, cancels playback, and clears server-side audio
// state. Safe to call from any exit path; calling it twice is a no-op.
func (c *Client) EndCall() {
	c.mu.Lock()
	if !c.callActive {
		c.mu.Unlock()
		return
	}
	c.callActive = false
	captureDone := c.captureDone
	c.mu.Unlock()

	if err := c.source.Stop(); err != nil {
		c.logger.Error("failed to stop capture", "error", err)
	}
	if captureDone != nil {
		<-captureDone
	}
	c.sched.Flush()
	if err := c.writeJSON(typeOnlyMessage{Type: msgAudioClear}); err != nil {
		c.logger.Error("failed to clear audio buffer", "error", err)
	}
	c.bus.Publish(Event{Type: EventCallEnded})
}

// receiveLoop reads server events until the connection drops.
func (c *Client) receiveLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// deliberate close
			default:
				c.bus.Publish(Event{Type: EventConnectionError, Err: err})
			}
			c.bus.Publish(Event{Type: EventDisconnected})
			return
		}
		var evt serverEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		c.handleServerEvent(&evt)
	}
}

func (c *Client) handleServerEvent(evt *serverEvent) {
	switch evt.Type {
	case evtResponseCreated:
		c.mu.Lock()
		c.responseInFlight = true
		c.mu.Unlock()

	case evtResponseDone:
		c.mu.Lock()
		var next string
		var hasNext bool
		if len(c.sendQueue) > 0 {
			next = c.sendQueue[0]
			c.sendQueue = c.sendQueue[1:]
			hasNext = true
		} else {
			c.responseInFlight = false
		}
		c.mu.Unlock()

		if hasNext {
			if err := c.sendNow(next); err != nil {
				c.logger.Error("failed to send queued text", "error", err)
				c.mu.Lock()
				c.responseInFlight = false
				c.mu.Unlock()
			}
		}

	case evtAudioDelta:
		if evt.Delta == "" {
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(evt.Delta)
		if err != nil || len(pcm) == 0 {
			return
		}
		if err := c.sched.Enqueue(pcm); err != nil {
			c.logger.Error("failed to schedule audio", "error", err)
		}

	case evtTranscriptDelta:
		if evt.Delta == "" {
			return
		}
		c.mu.Lock()
		c.assistantText += evt.Delta
		partial := c.assistantText
		c.mu.Unlock()
		c.bus.Publish(Event{
			Type: EventInterimTranscript,
			Role: dialogue.RoleAssistant,
			Text: partial,
		})

	case evtTranscriptDone:
		c.mu.Lock()
		text := c.assistantText
		c.assistantText = ""
		c.mu.Unlock()
		if text == "" {
			return
		}
		c.bus.Publish(Event{
			Type: EventTranscript,
			Role: dialogue.RoleAssistant,
			Text: text,
		})

	case evtInputTranscriptDone:
		if evt.Transcript == "" {
			return
		}
		c.bus.Publish(Event{
			Type: EventTranscript,
			Role: dialogue.RoleUser,
			Text: evt.Transcript,
		})

	case evtError:
		// empty error payloads are noise, not failures
		if evt.Error == nil || evt.Error.Message == "" {
			c.logger.Debug("ignoring empty error event")
			return
		}
		c.bus.Publish(Event{
			Type: EventConnectionError,
			Err:  fmt.Errorf("voice: server error: %s", evt.Error.Message),
		})
	}
}

// PublishUIAction forwards a dialogue UI action to subscribers. The
// orchestration layer calls this when a turn's state carries one.
func (c *Client) PublishUIAction(action *dialogue.UIAction) {
	if action == nil {
		return
	}
	c.bus.Publish(Event{Type: EventUIAction, UIAction: action})
}

// Close tears the connection down. All exit paths funnel here; it ends any
// active call first so capture and playback always release cleanly.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.EndCall()
		close(c.done)
		if c.conn != nil {
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(time.Second),
			)
			err = c.conn.Close()
		}
	})
	return err
}
