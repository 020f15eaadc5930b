package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Maximum audio accepted for one capture.
	maxCaptureBytes = 16 * 1024 * 1024

	// Size of the binary frames used to stream synthesized audio.
	audioChunkSize = 16 * 1024
)

// WriteData is one outbound frame
type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and a session.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Closed when the client is detached.
	done     chan struct{}
	stopOnce sync.Once

	sessionID string
	pipeline  *usecase.SessionPipeline
	validator *MessageValidator
	logger    *zap.Logger

	// Capture in progress
	mutex      sync.Mutex
	capturing  bool
	generation uint64
	audio      []byte
	sampleRate int
	encoding   string
}

func newClient(hub *Hub, conn *websocket.Conn, pipeline *usecase.SessionPipeline, logger *zap.Logger) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		done:      make(chan struct{}),
		sessionID: pipeline.ID(),
		pipeline:  pipeline,
		validator: NewMessageValidator(),
		logger:    logger,
	}
}

// stop detaches the client; the write pump closes the connection
func (c *Client) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// readPump pumps messages from the websocket connection to the session.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			c.stop()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) enqueue(data WriteData) bool {
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) sendJSON(v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return false
	}
	return c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

func (c *Client) sendError(code string, err error) {
	c.sendJSON(CreateErrorMessage(code, err.Error()))
}

// processMessage dispatches a control frame
func (c *Client) processMessage(message []byte) {
	msg, err := c.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected message", zap.Error(err))
		c.sendError(ErrorCodeInvalidMessage, err)
		return
	}

	switch msg.Type {
	case domain.MessageCaptureStart:
		c.handleCaptureStart(msg)
	case domain.MessageCaptureEnd:
		c.handleCaptureEnd()
	case domain.MessageCaptureCancel:
		c.handleCaptureCancel()
	case domain.MessageSelectLanguages:
		c.handleSelectLanguages(msg)
	}
}

func (c *Client) handleCaptureStart(msg *domain.ClientMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	generation, err := c.pipeline.StartCapture()
	if err != nil {
		c.sendError(ErrorCodeInvalidState, err)
		return
	}

	c.capturing = true
	c.generation = generation
	c.audio = c.audio[:0]
	c.sampleRate = msg.SampleRate
	c.encoding = msg.Encoding

	c.sendJSON(domain.CaptureMessage{
		Type:       domain.MessageCaptureStarted,
		SessionID:  c.sessionID,
		Generation: generation,
		Timestamp:  time.Now().Unix(),
	})
}

// processBinaryAudioChunk buffers audio for the capture in progress
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.capturing {
		c.logger.Warn("Received audio chunk outside of a capture", zap.Int("size", len(data)))
		return
	}

	if len(c.audio)+len(data) > maxCaptureBytes {
		c.capturing = false
		c.audio = c.audio[:0]
		cause := fmt.Errorf("%w: capture exceeds %d bytes", entities.ErrCaptureUnavailable, maxCaptureBytes)
		snapshot, err := c.pipeline.FailCapture(c.generation, cause)
		if err != nil {
			c.sendError(ErrorCodeCaptureTooBig, err)
			return
		}
		c.sendJSON(domain.NewResultMessage(snapshot))
		return
	}

	c.audio = append(c.audio, data...)
}

func (c *Client) handleCaptureEnd() {
	c.mutex.Lock()
	if !c.capturing {
		c.mutex.Unlock()
		c.sendError(ErrorCodeInvalidState, errors.New("no capture in progress"))
		return
	}
	c.capturing = false
	generation := c.generation
	data := make([]byte, len(c.audio))
	copy(data, c.audio)
	c.audio = c.audio[:0]
	sampleRate, encoding := c.sampleRate, c.encoding
	c.mutex.Unlock()

	c.logger.Info("Capture received", zap.Int("audioSize", len(data)), zap.Uint64("generation", generation))

	recording, err := capture.FromUpload(data, encoding, sampleRate)
	if err != nil {
		snapshot, failErr := c.pipeline.FailCapture(generation, err)
		if failErr != nil {
			c.sendError(ErrorCodeCaptureFailed, failErr)
			return
		}
		c.sendJSON(domain.NewResultMessage(snapshot))
		return
	}

	if _, err := c.pipeline.FinishCapture(generation, recording); err != nil {
		c.sendError(ErrorCodeInvalidState, err)
		return
	}

	go c.respond()
}

// respond processes the capture and streams the outcome back
func (c *Client) respond() {
	snapshot, err := c.pipeline.Process(context.Background())
	if errors.Is(err, entities.ErrStaleResult) {
		c.logger.Info("Discarding superseded result")
		return
	}
	if err != nil {
		c.sendError(ErrorCodeInvalidState, err)
		return
	}

	if !c.sendJSON(domain.NewResultMessage(snapshot)) {
		return
	}

	audio := snapshot.SynthesizedAudio
	if snapshot.Phase != entities.PhaseCompleted || audio == nil {
		return
	}

	c.sendJSON(domain.SpeakingStartMessage{
		Type:      domain.MessageSpeakingStart,
		SessionID: c.sessionID,
		AudioID:   audio.ID,
		FileName:  audio.FileName(),
		MimeType:  audio.MimeType,
		Size:      len(audio.Data),
	})

	for start := 0; start < len(audio.Data); start += audioChunkSize {
		end := min(start+audioChunkSize, len(audio.Data))
		if !c.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: audio.Data[start:end]}) {
			return
		}
	}

	c.sendJSON(domain.SpeakingEndMessage{
		Type:      domain.MessageSpeakingEnd,
		SessionID: c.sessionID,
		AudioID:   audio.ID,
		Timestamp: time.Now().Unix(),
	})
}

func (c *Client) handleCaptureCancel() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	snapshot, err := c.pipeline.CancelCapture()
	if err != nil {
		c.sendError(ErrorCodeInvalidState, err)
		return
	}
	c.capturing = false
	c.audio = c.audio[:0]

	c.sendJSON(domain.CaptureMessage{
		Type:       domain.MessageCaptureCancelled,
		SessionID:  c.sessionID,
		Generation: snapshot.Generation,
		Timestamp:  time.Now().Unix(),
	})
}

func (c *Client) handleSelectLanguages(msg *domain.ClientMessage) {
	snapshot, err := c.pipeline.SelectLanguages(msg.Source, msg.Target)
	if err != nil {
		code := ErrorCodeInvalidState
		if errors.Is(err, entities.ErrLanguageNotFound) {
			code = ErrorCodeUnsupported
		}
		c.sendError(code, err)
		return
	}

	c.sendJSON(domain.LanguagesMessage{
		Type:      domain.MessageLanguagesSelected,
		SessionID: c.sessionID,
		Source:    snapshot.SourceLanguage,
		Target:    snapshot.TargetLanguage,
	})
}
