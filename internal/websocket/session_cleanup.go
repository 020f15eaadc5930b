package websocket

import (
	"time"

	"go.uber.org/zap"
)

// SessionCleanupService evicts idle sessions from the hub
type SessionCleanupService struct {
	hub         *Hub
	idleTimeout time.Duration
	interval    time.Duration
	logger      *zap.Logger
	stopChan    chan struct{}
	now         func() time.Time
}

// NewSessionCleanupService creates a cleanup service. Sessions idle for
// longer than idleTimeout are removed; the hub is checked every idleTimeout/4,
// but at least once a minute.
func NewSessionCleanupService(hub *Hub, idleTimeout time.Duration, logger *zap.Logger) *SessionCleanupService {
	interval := idleTimeout / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	return &SessionCleanupService{
		hub:         hub,
		idleTimeout: idleTimeout,
		interval:    interval,
		logger:      logger,
		stopChan:    make(chan struct{}),
		now:         time.Now,
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started",
		zap.Duration("idleTimeout", s.idleTimeout),
		zap.Duration("interval", s.interval))
}

// Stop gracefully stops the cleanup service
func (s *SessionCleanupService) Stop() {
	close(s.stopChan)
	s.logger.Info("Session cleanup service stopped")
}

// cleanupLoop runs the cleanup process periodically
func (s *SessionCleanupService) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// runCleanup evicts sessions idle for longer than the timeout
func (s *SessionCleanupService) runCleanup() int {
	evicted := s.hub.EvictIdle(s.now(), s.idleTimeout)
	if len(evicted) > 0 {
		s.logger.Info("Evicted idle sessions",
			zap.Strings("sessionIDs", evicted),
			zap.Int("remaining", s.hub.Len()))
	}
	return len(evicted)
}
