package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/socialhub/internal/observability"
	"github.com/upb/socialhub/models"
	"github.com/upb/socialhub/repositories"
	"go.uber.org/zap"
)

// Metadata describes the request an audit entry is about
type Metadata struct {
	Endpoint  string
	Method    string
	IPAddress string
	UserAgent string
	RequestID string
	Details   map[string]interface{}
}

// Service handles asynchronous audit logging. Activity entries and security
// entries share one worker pool; security entries are also written to the
// security logger as they are recorded.
type Service struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	security    *zap.Logger
	eventChan   chan *models.AuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.RWMutex
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 4,
	}
}

// NewService creates a new Service instance
func NewService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		auditRepo:   auditRepo,
		logger:      logger,
		security:    observability.SecurityLogger(logger),
		eventChan:   make(chan *models.AuditLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service.
// Waits for all pending events to be processed.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	// No sender holds the read lock past this point, so closing is safe
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an entry without blocking. When the buffer is full the
// entry is dropped with a warning.
func (s *Service) LogEvent(log *models.AuditLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- log:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("category", string(log.Category)),
			zap.String("action", string(log.Action)),
			zap.String("request_id", log.RequestID))
		return fmt.Errorf("audit event buffer full")
	}
}

// Record queues an activity entry for principal
func (s *Service) Record(ctx context.Context, principal *models.Principal, action models.AuditAction, meta Metadata) error {
	return s.LogEvent(newEntry(models.AuditCategoryActivity, principal, action, meta))
}

// RecordDenial writes an access violation to the security logger and queues
// the matching security entry
func (s *Service) RecordDenial(ctx context.Context, principal *models.Principal, action models.AuditAction, meta Metadata) error {
	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.String("endpoint", meta.Endpoint),
		zap.String("method", meta.Method),
		zap.String("ip_address", meta.IPAddress),
		zap.String("request_id", meta.RequestID),
	}
	if principal != nil {
		fields = append(fields,
			zap.String("principal_id", principal.ID.String()),
			zap.String("principal_kind", string(principal.Kind)))
	}
	if len(meta.Details) > 0 {
		fields = append(fields, zap.Any("details", meta.Details))
	}
	s.security.Warn("access denied", fields...)

	return s.LogEvent(newEntry(models.AuditCategorySecurity, principal, action, meta))
}

func newEntry(category models.AuditCategory, principal *models.Principal, action models.AuditAction, meta Metadata) *models.AuditLog {
	log := models.NewAuditLog(category, action).
		WithPrincipal(principal).
		WithEndpoint(meta.Method, meta.Endpoint).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	if len(meta.Details) > 0 {
		log.WithDetails(meta.Details)
	}
	return log
}

// worker processes events from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for log := range s.eventChan {
		if err := s.processEvent(log); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("category", string(log.Category)),
				zap.String("action", string(log.Action)))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *Service) processEvent(log *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}
