package postgres

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "streampulse/internal/errors"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "dial tcp 127.0.0.1:5432: connection refused" }
func (fakeNetError) Timeout() bool   { return false }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"undefined table", &pgconn.PgError{Code: "42P01"}, true},
		{"wrapped undefined table", fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"}), true},
		{"network error", fakeNetError{}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"plain error", fmt.Errorf("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnavailable(tt.err))
		})
	}
}

func TestWrapStoreErr(t *testing.T) {
	assert.NoError(t, wrapStoreErr("get stream", nil))

	unavailable := wrapStoreErr("get stream", fakeNetError{})
	require.Error(t, unavailable)
	assert.True(t, apperrors.IsUnavailable(unavailable))

	plain := wrapStoreErr("get stream", fmt.Errorf("constraint violation"))
	require.Error(t, plain)
	assert.False(t, apperrors.IsUnavailable(plain))
	assert.Contains(t, plain.Error(), "get stream")
}

func TestConnect_InvalidURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "://not-a-url")
	assert.Error(t, err)
}
