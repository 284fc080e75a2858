package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

const (
	ActionUserRegister       = "user.register"
	ActionUserLogin          = "user.login"
	ActionUserLogout         = "user.logout"
	ActionHouseholdCreate    = "household.create"
	ActionHouseholdDelete    = "household.delete"
	ActionHouseholdMemberAdd = "household.member_add"
	ActionHouseholdLeave     = "household.member_leave"
	ActionListCreate         = "list.create"
	ActionListDelete         = "list.delete"
	ActionItemCreate         = "item.create"
	ActionItemUpdate         = "item.update"
	ActionItemToggle         = "item.toggle"
	ActionItemDelete         = "item.delete"
)

type AuditEntry struct {
	UserID       *uuid.UUID
	HouseholdID  *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
	RequestID    string
}

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	requestID string
}

// WithRequestMeta attaches the client IP and request id that audit rows
// written during this request should carry.
func WithRequestMeta(ctx context.Context, ip, requestID string) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, requestMeta{ip: ip, requestID: requestID})
}

func requestMetaFrom(ctx context.Context) requestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		return meta
	}
	return requestMeta{}
}

// AuditService writes activity rows. LogAsync hands rows to a single writer
// goroutine; when the queue is full the row is dropped with a warning.
type AuditService struct {
	DB *gorm.DB

	queue  chan models.AuditLog
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func NewAuditService(db *gorm.DB, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	s := &AuditService{
		DB:    db,
		queue: make(chan models.AuditLog, queueSize),
		done:  make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func newAuditRow(entry AuditEntry) models.AuditLog {
	return models.AuditLog{
		UserID:       entry.UserID,
		HouseholdID:  entry.HouseholdID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		CreatedAt:    time.Now().UTC(),
	}
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	if s == nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.Warn("audit_log_after_close", map[string]interface{}{
			"action": entry.Action,
		})
		return
	}

	select {
	case s.queue <- newAuditRow(entry):
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

// Log writes entry before returning. Use it where losing the row to a
// full queue or a crash is not acceptable.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if s == nil {
		return nil
	}
	row := newAuditRow(entry)
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

// Close stops accepting entries and waits until queued rows are written.
func (s *AuditService) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) ListForHousehold(ctx context.Context, householdID uuid.UUID, p utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.DB.WithContext(ctx).Model(&models.AuditLog{}).Where("household_id = ?", householdID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	var logs []models.AuditLog
	if err := utils.ApplyPagination(query.Order("created_at DESC").Order("id DESC"), p).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, total, nil
}
