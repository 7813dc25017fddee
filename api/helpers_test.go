package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/grant"
	"github.com/xraph/grant/condition"
	"github.com/xraph/grant/id"
)

func TestMapErrorPassesThroughUnknown(t *testing.T) {
	assert.NoError(t, mapError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
}

func TestMapErrorTranslatesDomainErrors(t *testing.T) {
	domain := []error{
		grant.ErrRoleNotFound,
		grant.ErrPermissionNotFound,
		grant.ErrSystemRoleImmutable,
		grant.ErrInvalidRole,
		grant.ErrInvalidPermission,
		grant.ErrDuplicateRoleCode,
		grant.ErrConditionNotFound,
	}
	for _, e := range domain {
		wrapped := fmt.Errorf("ctx: %w", e)
		got := mapError(wrapped)
		require.Error(t, got)
		assert.False(t, got == wrapped, "expected %v to be mapped", e)
	}
}

func TestDecodePermissionsDropsClientIdentity(t *testing.T) {
	raw := []map[string]any{{
		"id":         id.NewPermissionID().String(),
		"role":       id.NewRoleID().String(),
		"action":     "plugin::upload.read",
		"subject":    "plugin::upload.file",
		"conditions": []any{"admin::is-creator"},
		"unknown":    true,
	}}

	attrs, err := decodePermissions(raw)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.True(t, attrs[0].ID.IsNil())
	assert.Nil(t, attrs[0].Role)
	assert.Equal(t, "plugin::upload.read", attrs[0].Action)
	require.NotNil(t, attrs[0].Subject)
	assert.Equal(t, "plugin::upload.file", *attrs[0].Subject)
	assert.Equal(t, []string{"admin::is-creator"}, attrs[0].Conditions)
}

func TestDecodePermissionsRejectsBadTypes(t *testing.T) {
	_, err := decodePermissions([]map[string]any{{"action": 42, "conditions": "nope"}})
	assert.Error(t, err)
}

func TestValidateRequest(t *testing.T) {
	assert.Error(t, validateRequest(&CreateRoleRequest{}))
	assert.NoError(t, validateRequest(&CreateRoleRequest{Name: "Editor"}))
	assert.Error(t, validateRequest(&AddConditionRequest{}))
}

func TestFilterConditions(t *testing.T) {
	reg, err := condition.NewRegistry(
		condition.Condition{Name: "is-creator", Category: "default"},
		condition.Condition{Name: "in-office", Category: "location", Plugin: "geo"},
	)
	require.NoError(t, err)

	assert.Len(t, filterConditions(reg, ""), 2)
	loc := filterConditions(reg, "location")
	require.Len(t, loc, 1)
	assert.Equal(t, "plugin::geo.in-office", loc[0].ID())
	assert.Empty(t, filterConditions(nil, ""))
}

func TestDefaultLimit(t *testing.T) {
	assert.Equal(t, 50, defaultLimit(0))
	assert.Equal(t, 10, defaultLimit(10))
	assert.Equal(t, 1000, defaultLimit(5000))
}
