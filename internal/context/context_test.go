package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	ctx = SetRequestID(ctx, "req-1")
	ctx = SetTenantID(ctx, "tenant-1")
	ctx = SetUserID(ctx, "user-1")
	ctx = SetRunID(ctx, "run-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "run-1", GetRunID(ctx))
}

func TestContextValues_MissingAreEmpty(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", GetRequestID(ctx))
	assert.Equal(t, "", GetTenantID(ctx))
	assert.Equal(t, "", GetUserID(ctx))
	assert.Equal(t, "", GetRunID(ctx))
}
