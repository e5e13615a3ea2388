package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDFromContext(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")

	userID, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-42", userID)
}

func TestUserIDFromContext_Missing(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestUserIDFromContext_EmptyIDNotTreatedAsIdentity(t *testing.T) {
	ctx := WithUserID(context.Background(), "")
	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)
}
