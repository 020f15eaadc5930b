package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/internal/auth"
	"github.com/satriahrh/jurubahasa/internal/websocket"
	"github.com/satriahrh/jurubahasa/usecase"
)

const (
	pipelineKey    = "pipeline"
	maxUploadBytes = 16 * 1024 * 1024
)

// Handlers serves the HTTP and websocket presentation layer
type Handlers struct {
	hub           *websocket.Hub
	catalog       *entities.Catalog
	tokens        *auth.TokenIssuer
	gatherer      prometheus.Gatherer
	defaultSource string
	defaultTarget string
	logger        *zap.Logger
}

// NewHandlers creates the route handlers. Empty defaults use English to Spanish.
func NewHandlers(
	hub *websocket.Hub,
	catalog *entities.Catalog,
	tokens *auth.TokenIssuer,
	gatherer prometheus.Gatherer,
	defaultSource, defaultTarget string,
	logger *zap.Logger,
) *Handlers {
	if defaultSource == "" {
		defaultSource = "en"
	}
	if defaultTarget == "" {
		defaultTarget = "es"
	}
	return &Handlers{
		hub:           hub,
		catalog:       catalog,
		tokens:        tokens,
		gatherer:      gatherer,
		defaultSource: defaultSource,
		defaultTarget: defaultTarget,
		logger:        logger,
	}
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handlers) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ok",
			"service":  "jurubahasa",
			"sessions": h.hub.Len(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.GET("/languages", h.listLanguages)
	v1.POST("/sessions", h.createSession)

	session := v1.Group("/sessions/:id", h.requireSession)
	session.GET("", h.getSession)
	session.DELETE("", h.deleteSession)
	session.PUT("/languages", h.selectLanguages)
	session.POST("/capture/start", h.startCapture)
	session.PUT("/capture", h.uploadCapture, middleware.BodyLimit(strconv.Itoa(maxUploadBytes/(1024*1024))+"M"))
	session.POST("/capture/cancel", h.cancelCapture)
	session.POST("/process", h.process)
	session.GET("/audio", h.downloadAudio)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", h.websocketWithAuth)
}

func (h *Handlers) listLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, LanguagesResponse{Languages: h.catalog.All()})
}

func (h *Handlers) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			h.logger.Error("Failed to bind create session request", zap.Error(err))
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request format",
			})
		}
	}
	if req.Source == "" {
		req.Source = h.defaultSource
	}
	if req.Target == "" {
		req.Target = h.defaultTarget
	}

	pipeline, err := h.hub.CreateSession(req.Source, req.Target)
	if err != nil {
		return h.errorResponse(c, err)
	}

	token, expiresAt, err := h.tokens.GenerateSessionToken(pipeline.ID())
	if err != nil {
		h.logger.Error("Failed to generate session token", zap.String("sessionID", pipeline.ID()), zap.Error(err))
		h.hub.CloseSession(pipeline.ID())
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate session token",
		})
	}

	return c.JSON(http.StatusCreated, CreateSessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Session:   newSessionView(pipeline.Snapshot()),
	})
}

// requireSession checks the bearer token against the :id parameter and loads the session
func (h *Handlers) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		token := bearerToken(c.Request())
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "Session token is required in Authorization header",
			})
		}
		if err := h.tokens.ValidateSessionToken(token, id); err != nil {
			h.logger.Warn("Request rejected: invalid token", zap.String("sessionID", id), zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired session token",
			})
		}

		pipeline, ok := h.hub.Session(id)
		if !ok {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "session_not_found",
				Message: "Session does not exist or has expired",
			})
		}
		c.Set(pipelineKey, pipeline)
		return next(c)
	}
}

func sessionFrom(c echo.Context) *usecase.SessionPipeline {
	return c.Get(pipelineKey).(*usecase.SessionPipeline)
}

func (h *Handlers) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, newSessionView(sessionFrom(c).Snapshot()))
}

func (h *Handlers) deleteSession(c echo.Context) error {
	h.hub.CloseSession(sessionFrom(c).ID())
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) selectLanguages(c echo.Context) error {
	var req SelectLanguagesRequest
	if err := c.Bind(&req); err != nil || req.Source == "" || req.Target == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "source and target are required",
		})
	}

	snapshot, err := sessionFrom(c).SelectLanguages(req.Source, req.Target)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSessionView(snapshot))
}

func (h *Handlers) startCapture(c echo.Context) error {
	pipeline := sessionFrom(c)
	if _, err := pipeline.StartCapture(); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSessionView(pipeline.Snapshot()))
}

// uploadCapture finishes the capture in progress with the request body.
// WAV bodies describe themselves; raw audio takes encoding and sample_rate
// query parameters.
func (h *Handlers) uploadCapture(c echo.Context) error {
	pipeline := sessionFrom(c)

	current := pipeline.Snapshot()
	if current.Phase != entities.PhaseRecording {
		return h.errorResponse(c, fmt.Errorf("%w: no capture in progress", entities.ErrInvalidTransition))
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to read audio body",
		})
	}

	sampleRate, _ := strconv.Atoi(c.QueryParam("sample_rate"))
	recording, err := capture.FromUpload(data, c.QueryParam("encoding"), sampleRate)
	if err != nil {
		snapshot, failErr := pipeline.FailCapture(current.Generation, err)
		if failErr != nil {
			return h.errorResponse(c, failErr)
		}
		return c.JSON(http.StatusUnprocessableEntity, newSessionView(snapshot))
	}

	snapshot, err := pipeline.FinishCapture(current.Generation, recording)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSessionView(snapshot))
}

func (h *Handlers) cancelCapture(c echo.Context) error {
	snapshot, err := sessionFrom(c).CancelCapture()
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSessionView(snapshot))
}

// process runs the pipeline to completion. A dropped client connection does
// not cancel the run; the result stays readable on the session.
func (h *Handlers) process(c echo.Context) error {
	snapshot, err := sessionFrom(c).Process(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSessionView(snapshot))
}

func (h *Handlers) downloadAudio(c echo.Context) error {
	snapshot := sessionFrom(c).Snapshot()
	audio := snapshot.SynthesizedAudio
	if audio == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "audio_not_found",
			Message: "No synthesized audio for the current capture",
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", audio.FileName()))
	mimeType := audio.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, mimeType, audio.Data)
}

// websocketWithAuth handles WebSocket connections authenticated by a session token
func (h *Handlers) websocketWithAuth(c echo.Context) error {
	token := bearerToken(c.Request())
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		h.logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Session token is required",
		})
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired session token",
		})
	}

	h.logger.Info("WebSocket connection authenticated", zap.String("sessionID", claims.SessionID))

	return h.hub.HandleWebSocket(c, claims.SessionID)
}

// errorResponse maps domain errors to HTTP status codes
func (h *Handlers) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entities.ErrLanguageNotFound):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported_language", Message: err.Error()})
	case errors.Is(err, entities.ErrStaleResult):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "stale_result", Message: err.Error()})
	case errors.Is(err, entities.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid_state", Message: err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
