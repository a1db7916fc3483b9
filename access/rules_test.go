package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/access"
)

func TestIsOwnerAllowsMatchingViewer(t *testing.T) {
	t.Parallel()

	ctx := access.WithViewer(context.Background(), &access.SimpleViewer{UserID: "u1"})
	rule := access.IsOwner("user_id")

	err := rule.EvalMutation(ctx, fakeMutation{op: exocore.OpUpdate, fields: map[string]any{"user_id": "u1"}})
	assert.True(t, errors.Is(err, access.Allow))
}

func TestIsOwnerSkipsMismatchedViewer(t *testing.T) {
	t.Parallel()

	ctx := access.WithViewer(context.Background(), &access.SimpleViewer{UserID: "u1"})
	rule := access.IsOwner("user_id")

	err := rule.EvalMutation(ctx, fakeMutation{op: exocore.OpUpdate, fields: map[string]any{"user_id": "someone-else"}})
	assert.True(t, errors.Is(err, access.Skip))
}

func TestIsOwnerSkipsWithoutViewer(t *testing.T) {
	t.Parallel()

	rule := access.IsOwner("user_id")
	err := rule.EvalMutation(context.Background(), fakeMutation{op: exocore.OpUpdate, fields: map[string]any{"user_id": "u1"}})
	assert.True(t, errors.Is(err, access.Skip))
}

func TestTenantRuleDeniesMismatch(t *testing.T) {
	t.Parallel()

	ctx := access.WithViewer(context.Background(), &access.SimpleViewer{UserID: "u1", TenantID: "tenant-a"})
	rule := access.TenantRule("tenant_id")

	err := rule.EvalMutation(ctx, fakeMutation{op: exocore.OpUpdate, fields: map[string]any{"tenant_id": "tenant-b"}})
	assert.True(t, errors.Is(err, access.Deny))
}

func TestTenantRuleAllowsMatch(t *testing.T) {
	t.Parallel()

	ctx := access.WithViewer(context.Background(), &access.SimpleViewer{UserID: "u1", TenantID: "tenant-a"})
	rule := access.TenantRule("tenant_id")

	err := rule.EvalMutation(ctx, fakeMutation{op: exocore.OpUpdate, fields: map[string]any{"tenant_id": "tenant-a"}})
	assert.True(t, errors.Is(err, access.Allow))
}

func TestHasAnyRoleAllowsOnOverlap(t *testing.T) {
	t.Parallel()

	ctx := access.WithViewer(context.Background(), &access.SimpleViewer{UserID: "u1", Roles: []string{"editor"}})
	rule := access.HasAnyRole("admin", "editor")

	err := rule.EvalMutation(ctx, fakeMutation{op: exocore.OpUpdate})
	assert.True(t, errors.Is(err, access.Allow))
}

func TestDenyIfNoViewerDeniesAnonymous(t *testing.T) {
	t.Parallel()

	rule := access.DenyIfNoViewer()
	err := rule.EvalQuery(context.Background(), fakeQuery{op: exocore.OpQuery})
	assert.True(t, errors.Is(err, access.Deny))
}
