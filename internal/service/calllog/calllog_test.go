package calllog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpsbridge/vpsbridge/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ToolCall{}))
	return NewService(db)
}

func appendRecords(t *testing.T, s *Service, n int) {
	t.Helper()
	now := time.Now()
	for i := 1; i <= n; i++ {
		_, err := s.Append(&model.ToolCall{
			TraceID:     fmt.Sprintf("trace-%03d", i),
			Tool:        "list_regions",
			Request:     []byte("null"),
			Response:    []byte("[]"),
			ReceivedAt:  now,
			CompletedAt: now,
		})
		require.NoError(t, err)
	}
}

func TestAppendAssignsSequentialIDs(t *testing.T) {
	s := setupService(t)

	now := time.Now()
	first, err := s.Append(&model.ToolCall{
		TraceID: "trace-a", Tool: "ping", Request: []byte("null"), Response: []byte("{}"),
		ReceivedAt: now, CompletedAt: now,
	})
	require.NoError(t, err)

	second, err := s.Append(&model.ToolCall{
		TraceID: "trace-b", Tool: "ping", Request: []byte("null"), Response: []byte("{}"),
		ReceivedAt: now, CompletedAt: now,
	})
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestAppendConcurrent(t *testing.T) {
	s := setupService(t)

	const n = 50
	now := time.Now()
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(&model.ToolCall{
				TraceID:     fmt.Sprintf("trace-conc-%03d", i),
				Tool:        "list_regions",
				Request:     []byte("null"),
				Response:    []byte("[]"),
				ReceivedAt:  now,
				CompletedAt: now,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	page, err := s.Page(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(n), page.Total)
}

func TestAppendRejectsDuplicateTraceID(t *testing.T) {
	s := setupService(t)

	now := time.Now()
	record := &model.ToolCall{
		TraceID: "trace-dup", Tool: "ping", Request: []byte("null"), Response: []byte("{}"),
		ReceivedAt: now, CompletedAt: now,
	}
	_, err := s.Append(record)
	require.NoError(t, err)

	_, err = s.Append(&model.ToolCall{
		TraceID: "trace-dup", Tool: "ping", Request: []byte("null"), Response: []byte("{}"),
		ReceivedAt: now, CompletedAt: now,
	})
	assert.Error(t, err)
}

func TestPageNewestFirst(t *testing.T) {
	s := setupService(t)
	appendRecords(t, s, 25)

	page, err := s.Page(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Calls, 10)
	assert.Equal(t, "trace-025", page.Calls[0].TraceID)
	assert.Equal(t, "trace-016", page.Calls[9].TraceID)

	page, err = s.Page(2, 10)
	require.NoError(t, err)
	require.Len(t, page.Calls, 10)
	assert.Equal(t, "trace-015", page.Calls[0].TraceID)
	assert.Equal(t, "trace-006", page.Calls[9].TraceID)

	page, err = s.Page(3, 10)
	require.NoError(t, err)
	require.Len(t, page.Calls, 5)
	assert.Equal(t, "trace-001", page.Calls[4].TraceID)
}

func TestPageClampsArguments(t *testing.T) {
	s := setupService(t)
	appendRecords(t, s, 3)

	// page < 1 falls back to the first page
	page, err := s.Page(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Calls, 3)

	// perPage <= 0 falls back to the default page size
	page, err = s.Page(1, -5)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.PerPage)

	// perPage beyond the cap is clamped
	page, err = s.Page(1, MaxPageSize+100)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PerPage)
}

func TestPageBeyondEndIsEmpty(t *testing.T) {
	s := setupService(t)
	appendRecords(t, s, 3)

	page, err := s.Page(5, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Calls)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPageEmptyLog(t *testing.T) {
	s := setupService(t)

	page, err := s.Page(1, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Calls)
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestGet(t *testing.T) {
	s := setupService(t)

	received := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	id, err := s.Append(&model.ToolCall{
		TraceID:     "trace-get",
		Tool:        "get_instance",
		Request:     []byte(`{"instance_id":"abc"}`),
		Response:    []byte(`{"id":"abc"}`),
		ReceivedAt:  received,
		CompletedAt: received.Add(120 * time.Millisecond),
		DurationMs:  120,
	})
	require.NoError(t, err)

	record, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "trace-get", record.TraceID)
	assert.Equal(t, "get_instance", record.Tool)
	assert.JSONEq(t, `{"instance_id":"abc"}`, string(record.Request))
	assert.Equal(t, "2026-03-14T09:26:53.589Z", record.ReceivedAt)
	assert.Equal(t, int64(120), record.DurationMs)
}

func TestGetMissing(t *testing.T) {
	s := setupService(t)

	_, err := s.Get(42)
	assert.Error(t, err)
}
