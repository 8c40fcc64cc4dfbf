package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("permanent")
	attempts := 0
	err := Retry(3, time.Millisecond, func() error {
		attempts++
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffStopsOnSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(5, time.Millisecond, 10*time.Millisecond, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		total        int64
		wantPage     int
		wantPageSize int
		wantPages    int64
		wantOffset   int
	}{
		{"normal", 2, 10, 25, 2, 10, 3, 10},
		{"zero page clamps to one", 0, 10, 25, 1, 10, 3, 0},
		{"zero page size defaults", 1, 0, 25, 1, 10, 3, 0},
		{"oversized page size clamps", 1, 5000, 25, 1, 1000, 1, 0},
		{"empty total", 1, 10, 0, 1, 10, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.pageSize, tc.total)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantPageSize, p.PageSize)
			assert.Equal(t, tc.total, p.Total)
			assert.Equal(t, tc.wantPages, p.Pages)
			assert.Equal(t, tc.wantOffset, p.Offset())
			assert.Equal(t, tc.wantPageSize, p.Limit())
		})
	}
}
