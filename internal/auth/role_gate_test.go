package auth_test

import (
	"testing"

	"inventory/internal/auth"
	"inventory/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	assert.False(t, auth.Authorize(models.RoleUser, models.RoleAdmin))
	assert.True(t, auth.Authorize(models.RoleAdmin, models.RoleAdmin, models.RoleUser))
	assert.True(t, auth.Authorize(models.RoleUser, models.RoleAdmin, models.RoleUser))
	assert.True(t, auth.Authorize(models.RoleAdmin, models.RoleAdmin))

	// An empty requirement set denies everyone.
	assert.False(t, auth.Authorize(models.RoleAdmin))
	assert.False(t, auth.Authorize(models.RoleUser))

	// Matching is exact.
	assert.False(t, auth.Authorize(models.Role("Admin"), models.RoleAdmin))
}
