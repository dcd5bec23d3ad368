// Package calllog provides the durable, append-only store for tool call records.
package calllog

import (
	"fmt"

	"github.com/vpsbridge/vpsbridge/internal/model"
	"github.com/vpsbridge/vpsbridge/pkg/types"
	"gorm.io/gorm"
)

// DefaultPageSize is used when the caller does not specify a page size.
const DefaultPageSize = 20

// MaxPageSize caps a single page so one request cannot drag the whole log
// out of the database.
const MaxPageSize = 200

// Service stores and queries tool call records.
// Append is the only mutation; records are never edited or deleted here.
// Concurrent appends are serialized by the database, so the service itself
// needs no locking.
type Service struct {
	db *gorm.DB
}

// NewService creates a call log service backed by the given database.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Append stores a sealed tool call record and returns its assigned id.
func (s *Service) Append(record *model.ToolCall) (uint, error) {
	if err := s.db.Create(record).Error; err != nil {
		return 0, fmt.Errorf("failed to append tool call record: %w", err)
	}
	return record.ID, nil
}

// Page returns one page of records, newest first, along with the total count.
// page is 1-based and clamped to at least 1. perPage <= 0 falls back to the
// default page size.
func (s *Service) Page(page, perPage int) (*types.CallPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	var total int64
	if err := s.db.Model(&model.ToolCall{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count tool call records: %w", err)
	}

	var records []model.ToolCall
	err := s.db.
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tool call records: %w", err)
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages == 0 {
		totalPages = 1
	}

	calls := make([]types.CallRecord, len(records))
	for i := range records {
		calls[i] = toCallRecord(&records[i])
	}

	return &types.CallPage{
		Calls:      calls,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// Get fetches a single record by id.
func (s *Service) Get(id uint) (*types.CallRecord, error) {
	var record model.ToolCall
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get tool call record %d: %w", id, err)
	}
	r := toCallRecord(&record)
	return &r, nil
}

func toCallRecord(m *model.ToolCall) types.CallRecord {
	return types.CallRecord{
		ID:          m.ID,
		TraceID:     m.TraceID,
		Tool:        m.Tool,
		Request:     []byte(m.Request),
		Response:    []byte(m.Response),
		IsError:     m.IsError,
		ErrorKind:   m.ErrorKind,
		ReceivedAt:  m.ReceivedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		CompletedAt: m.CompletedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		DurationMs:  m.DurationMs,
	}
}
