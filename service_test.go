package grant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/grant/condition"
	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
	"github.com/xraph/grant/store"
	"github.com/xraph/grant/store/memory"
)

type countingCache struct {
	mu          sync.Mutex
	entries     map[string][]permission.Permission
	hits        int
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string][]permission.Permission)}
}

func (c *countingCache) Get(_ context.Context, tenantID string, roleID id.RoleID) ([]permission.Permission, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[tenantID+"/"+roleID.String()]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *countingCache) Set(_ context.Context, tenantID string, roleID id.RoleID, perms []permission.Permission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenantID+"/"+roleID.String()] = perms
}

func (c *countingCache) InvalidateRole(_ context.Context, tenantID string, roleID id.RoleID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID+"/"+roleID.String())
	c.invalidated++
}

func (c *countingCache) InvalidateTenant(_ context.Context, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]permission.Permission)
}

type recordingPlugin struct {
	updated []string
	cleaned []permission.CleanReport
	deleted int
}

func (r *recordingPlugin) Name() string { return "recorder" }

func (r *recordingPlugin) OnPermissionUpdated(_ context.Context, p *permission.Permission) error {
	r.updated = append(r.updated, p.ID.String())
	return nil
}

func (r *recordingPlugin) OnPermissionsDeleted(_ context.Context, ids []id.PermissionID) error {
	r.deleted += len(ids)
	return nil
}

func (r *recordingPlugin) OnPermissionsCleaned(_ context.Context, report permission.CleanReport) error {
	r.cleaned = append(r.cleaned, report)
	return nil
}

// gatedStore pauses the first ListPermissions call after arm, once the
// store has been read, until release is closed. It honors ctx after the
// pause the way a database driver would.
type gatedStore struct {
	*memory.Store
	armed     atomic.Bool
	entered   chan struct{}
	release   chan struct{}
	createErr error
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		Store:   memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) ListPermissions(ctx context.Context, f *permission.ListFilter) ([]*permission.Permission, error) {
	perms, err := g.Store.ListPermissions(ctx, f)
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
	}
	return perms, err
}

func (g *gatedStore) CreatePermissions(ctx context.Context, perms []*permission.Permission) error {
	if g.createErr != nil {
		return g.createErr
	}
	return g.Store.CreatePermissions(ctx, perms)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	return newServiceWithStore(t, s, opts...), s
}

func newServiceWithStore(t *testing.T, s store.Store, opts ...Option) *Service {
	t.Helper()
	conds, err := condition.NewRegistry(
		condition.Condition{Name: "is-creator"},
		condition.Condition{Name: "has-same-role-as-creator"},
	)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := NewService(append([]Option{WithStore(s), WithConditions(conds)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func tenantCtx(tenant string) context.Context {
	return WithTenant(context.Background(), "app1", tenant)
}

func mustRole(t *testing.T, svc *Service, ctx context.Context, name string) *role.Role {
	t.Helper()
	r := &role.Role{Name: name}
	if err := svc.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	return r
}

func strPtr(s string) *string { return &s }

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestCreateRole(t *testing.T) {
	ctx := tenantCtx("t1")
	svc, _ := newTestService(t)

	r := mustRole(t, svc, ctx, "Content Editor")
	if r.ID.IsNil() {
		t.Fatal("expected an ID to be assigned")
	}
	if r.Code != "content-editor" {
		t.Fatalf("expected derived code content-editor, got %q", r.Code)
	}
	if r.TenantID != "t1" || r.AppID != "app1" {
		t.Fatalf("expected tenant t1/app1, got %s/%s", r.TenantID, r.AppID)
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	err := svc.CreateRole(ctx, &role.Role{Name: "Other", Code: "content-editor"})
	if !errors.Is(err, ErrDuplicateRoleCode) {
		t.Fatalf("expected ErrDuplicateRoleCode, got %v", err)
	}

	// Codes are unique per tenant only.
	if err := svc.CreateRole(tenantCtx("t2"), &role.Role{Name: "Content Editor"}); err != nil {
		t.Fatalf("same code in another tenant: %v", err)
	}

	if err := svc.CreateRole(ctx, &role.Role{Name: "  "}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	// A name without ASCII letters or digits needs an explicit code.
	if err := svc.CreateRole(ctx, &role.Role{Name: "Éé"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for empty derived code, got %v", err)
	}
	if err := svc.CreateRole(ctx, &role.Role{Name: "Éé", Code: "ee"}); err != nil {
		t.Fatalf("explicit code: %v", err)
	}
}

func TestGetRole_TenantIsolation(t *testing.T) {
	svc, _ := newTestService(t)
	r := mustRole(t, svc, tenantCtx("t1"), "Editor")

	if _, err := svc.GetRole(tenantCtx("t2"), r.ID); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound from another tenant, got %v", err)
	}
	if _, err := svc.GetRole(tenantCtx("t1"), id.NewRoleID()); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	got, err := svc.GetRole(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("unscoped get: %v", err)
	}
	if got.Name != "Editor" {
		t.Fatalf("expected Editor, got %q", got.Name)
	}

	roles, err := svc.ListRoles(tenantCtx("t2"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected no roles in t2, got %d", len(roles))
	}
}

func TestUpdateRole(t *testing.T) {
	ctx := tenantCtx("t1")
	svc, _ := newTestService(t)
	r := mustRole(t, svc, ctx, "Editor")
	mustRole(t, svc, ctx, "Author")

	upd := &role.Role{ID: r.ID, Name: "Senior Editor", Description: "edits everything"}
	if err := svc.UpdateRole(ctx, upd); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Senior Editor" || got.Code != "editor" {
		t.Fatalf("unexpected role after update: %+v", got)
	}
	if got.TenantID != "t1" || !got.CreatedAt.Equal(r.CreatedAt) {
		t.Fatal("expected tenant and creation time to be preserved")
	}

	upd.Code = "author"
	if err := svc.UpdateRole(ctx, upd); !errors.Is(err, ErrDuplicateRoleCode) {
		t.Fatalf("expected ErrDuplicateRoleCode, got %v", err)
	}
}

func TestSystemRoleImmutable(t *testing.T) {
	ctx := tenantCtx("t1")
	svc, _ := newTestService(t)
	r := &role.Role{Name: "Super Admin", IsSystem: true}
	if err := svc.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateRole(ctx, &role.Role{ID: r.ID, Name: "x"}); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("update: expected ErrSystemRoleImmutable, got %v", err)
	}
	if err := svc.DeleteRole(ctx, r.ID); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("delete: expected ErrSystemRoleImmutable, got %v", err)
	}
	_, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}})
	if !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("create permissions: expected ErrSystemRoleImmutable, got %v", err)
	}
}

func TestCreatePermissions(t *testing.T) {
	ctx := tenantCtx("t1")
	svc, s := newTestService(t)
	r := mustRole(t, svc, ctx, "Editor")

	got, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{
		{Action: "plugin::content-manager.explorer.read", Subject: strPtr("api::article.article"), Conditions: []string{"admin::is-creator", "admin::unknown"}},
		{Action: "plugin::upload.read"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(got))
	}
	if got[0].ID.IsNil() || got[0].ID.Prefix() != id.PrefixPermission {
		t.Fatalf("expected a permission ID, got %q", got[0].ID)
	}
	if len(got[0].Conditions) != 1 || got[0].Conditions[0] != "admin::is-creator" {
		t.Fatalf("expected unknown condition to be pruned, got %v", got[0].Conditions)
	}
	if got[1].Conditions == nil || got[1].ActionParameters == nil || got[1].Properties == nil {
		t.Fatal("expected defaults to be filled")
	}

	stored, err := s.GetPermission(ctx, got[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Role == nil || stored.Role.String() != r.ID.String() {
		t.Fatal("expected stored permission to be bound to the role")
	}

	_, err = svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: ""}})
	if !errors.Is(err, ErrInvalidPermission) {
		t.Fatalf("expected ErrInvalidPermission, got %v", err)
	}
}

func TestCreatePermissions_NoPruning(t *testing.T) {
	ctx := tenantCtx("t1")
	off := false
	svc, _ := newTestService(t, WithConfig(Config{PruneConditionsOnWrite: &off}))
	r := mustRole(t, svc, ctx, "Editor")

	got, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{
		{Action: "read", Conditions: []string{"admin::unknown"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got[0].Conditions) != 1 {
		t.Fatalf("expected conditions to be kept, got %v", got[0].Conditions)
	}
}

func TestAssignPermissions_KeepsUnchanged(t *testing.T) {
	ctx := tenantCtx("t1")
	svc, _ := newTestService(t)
	r := mustRole(t, svc, ctx, "Editor")

	first, err := svc.AssignPermissions(ctx, r.ID, []permission.Attributes{
		{Action: "read", Properties: permission.Properties{"fields": []string{"title"}}},
		{Action: "update"},
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := svc.AssignPermissions(ctx, r.ID, []permission.Attributes{
		{Action: "read", Properties: permission.Properties{"fields": []string{"title"}}},
		{Action: "delete"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if second[0].ID.String() != first[0].ID.String() {
		t.Fatal("expected unchanged permission to keep its ID")
	}
	if second[1].Action != "delete" || second[1].ID.String() == first[1].ID.String() {
		t.Fatal("expected a new permission for delete")
	}

	all, err := svc.RolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 permissions after assign, got %d", len(all))
	}
	for _, p := range all {
		if p.Action == "update" {
			t.Fatal("expected update permission to be removed")
		}
	}
}

func TestRolePermissions_Cache(t *testing.T) {
	ctx := tenantCtx("t1")
	c := newCountingCache()
	svc, _ := newTestService(t, WithCache(c))
	r := mustRole(t, svc, ctx, "Editor")

	if _, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}}); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		perms, err := svc.RolePermissions(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(perms) != 1 {
			t.Fatalf("expected 1 permission, got %d", len(perms))
		}
	}
	if c.hits != 2 {
		t.Fatalf("expected 2 cache hits, got %d", c.hits)
	}

	if _, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "update"}}); err != nil {
		t.Fatal(err)
	}
	perms, err := svc.RolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected cache to be invalidated, got %d permissions", len(perms))
	}
}

func TestRolePermissions_WriteDuringLoadIsNotCached(t *testing.T) {
	ctx := tenantCtx("t1")
	g := newGatedStore()
	svc := newServiceWithStore(t, g, WithCache(newCountingCache()))
	r := mustRole(t, svc, ctx, "Editor")

	g.armed.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := svc.RolePermissions(ctx, r.ID)
		done <- err
	}()

	// The load has read an empty role; grant a permission before it returns.
	<-g.entered
	if _, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}}); err != nil {
		t.Fatal(err)
	}
	close(g.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	perms, err := svc.RolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 1 {
		t.Fatalf("expected the new permission, got %d permissions", len(perms))
	}
}

func TestRolePermissions_CancelledCallerDoesNotFailOthers(t *testing.T) {
	ctx := tenantCtx("t1")
	g := newGatedStore()
	svc := newServiceWithStore(t, g)
	r := mustRole(t, svc, ctx, "Editor")
	if _, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}}); err != nil {
		t.Fatal(err)
	}

	g.armed.Store(true)
	ctxA, cancelA := context.WithCancel(ctx)
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := svc.RolePermissions(ctxA, r.ID)
		errA <- err
	}()
	<-g.entered

	type result struct {
		perms []permission.Sanitized
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		perms, err := svc.RolePermissions(ctx, r.ID)
		resB <- result{perms, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the load

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to see context.Canceled, got %v", err)
	}
	close(g.release)

	b := <-resB
	if b.err != nil {
		t.Fatalf("expected the other caller to succeed, got %v", b.err)
	}
	if len(b.perms) != 1 {
		t.Fatalf("expected 1 permission, got %d", len(b.perms))
	}
}

func TestAssignPermissions_CreateFailureKeepsGrants(t *testing.T) {
	ctx := tenantCtx("t1")
	g := newGatedStore()
	svc := newServiceWithStore(t, g)
	r := mustRole(t, svc, ctx, "Editor")

	if _, err := svc.AssignPermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}, {Action: "update"}}); err != nil {
		t.Fatal(err)
	}

	g.createErr = errors.New("disk full")
	_, err := svc.AssignPermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}, {Action: "delete"}})
	if err == nil {
		t.Fatal("expected the failed create to be reported")
	}

	perms, err := svc.RolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected the previous grants to survive, got %d permissions", len(perms))
	}
	for _, p := range perms {
		if p.Action == "delete" {
			t.Fatal("unexpected permission from the failed assign")
		}
	}
}

func TestFindPermissions_TenantScope(t *testing.T) {
	svc, _ := newTestService(t)
	r1 := mustRole(t, svc, tenantCtx("t1"), "Editor")
	r2 := mustRole(t, svc, tenantCtx("t2"), "Editor")

	if _, err := svc.CreatePermissions(tenantCtx("t1"), r1.ID, []permission.Attributes{{Action: "plugin::a.read"}, {Action: "plugin::a.update"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePermissions(tenantCtx("t2"), r2.ID, []permission.Attributes{{Action: "plugin::a.read"}}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.FindPermissions(tenantCtx("t1"), &permission.ListFilter{Action: "plugin::a.*"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 permissions in t1, got %d", len(got))
	}

	n, err := svc.CountPermissions(context.Background(), &permission.ListFilter{Action: "plugin::a.read"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 permissions unscoped, got %d", n)
	}

	_, err = svc.FindPermissions(tenantCtx("t1"), &permission.ListFilter{RoleID: r2.ID.Ptr()})
	if !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound for foreign role, got %v", err)
	}
}

func TestDeleteRole_RemovesPermissions(t *testing.T) {
	ctx := tenantCtx("t1")
	svc, s := newTestService(t)
	r := mustRole(t, svc, ctx, "Editor")
	perms, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPermission(ctx, perms[0].ID); err == nil {
		t.Fatal("expected permission to be deleted with its role")
	}
	if _, err := svc.GetRole(ctx, r.ID); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestDeletePermissions(t *testing.T) {
	ctx := tenantCtx("t1")
	rec := &recordingPlugin{}
	svc, _ := newTestService(t, WithPlugin(rec))
	r := mustRole(t, svc, ctx, "Editor")
	perms, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}, {Action: "update"}})
	if err != nil {
		t.Fatal(err)
	}

	// Other tenants cannot see the permission, so it is skipped.
	if err := svc.DeletePermissions(tenantCtx("t2"), perms[0].ID); err != nil {
		t.Fatal(err)
	}
	if rec.deleted != 0 {
		t.Fatalf("expected nothing deleted from another tenant, got %d", rec.deleted)
	}

	if err := svc.DeletePermissions(ctx, perms[0].ID, id.NewPermissionID()); err != nil {
		t.Fatal(err)
	}
	left, err := svc.RolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].Action != "update" {
		t.Fatalf("unexpected permissions after delete: %+v", left)
	}
	if rec.deleted != 1 {
		t.Fatalf("expected 1 deletion hook, got %d", rec.deleted)
	}
}

func TestAddRemoveCondition(t *testing.T) {
	ctx := tenantCtx("t1")
	rec := &recordingPlugin{}
	svc, s := newTestService(t, WithPlugin(rec))
	r := mustRole(t, svc, ctx, "Editor")
	perms, err := svc.CreatePermissions(ctx, r.ID, []permission.Attributes{{Action: "read"}})
	if err != nil {
		t.Fatal(err)
	}
	pid := perms[0].ID

	if _, err := svc.AddCondition(ctx, pid, "admin::nope"); !errors.Is(err, ErrConditionNotFound) {
		t.Fatalf("expected ErrConditionNotFound, got %v", err)
	}

	got, err := svc.AddCondition(ctx, pid, "admin::is-creator")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Conditions) != 1 {
		t.Fatalf("expected 1 condition, got %v", got.Conditions)
	}
	stored, _ := s.GetPermission(ctx, pid)
	if !stored.HasCondition("admin::is-creator") {
		t.Fatal("expected condition to be persisted")
	}

	// Adding again changes nothing and fires no hook.
	if _, err := svc.AddCondition(ctx, pid, "admin::is-creator"); err != nil {
		t.Fatal(err)
	}
	if len(rec.updated) != 1 {
		t.Fatalf("expected 1 update hook, got %d", len(rec.updated))
	}

	got, err = svc.RemoveCondition(ctx, pid, "admin::is-creator")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Conditions) != 0 {
		t.Fatalf("expected no conditions, got %v", got.Conditions)
	}

	if _, err := svc.RemoveCondition(ctx, id.NewPermissionID(), "x"); !errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestCleanPermissions(t *testing.T) {
	ctx := context.Background()
	rec := &recordingPlugin{}
	c := newCountingCache()
	actions := condition.NewKeySet("read", "update")
	svc, s := newTestService(t,
		WithActions(actions),
		WithCache(c),
		WithPlugin(rec),
		WithConfig(Config{CleanupBatchSize: 2}),
	)
	r := mustRole(t, svc, tenantCtx("t1"), "Editor")

	// Written straight to the store so unknown conditions survive.
	rid := r.ID
	seed := []permission.Attributes{
		{Action: "read", Conditions: []string{"admin::is-creator", "admin::gone"}},
		{Action: "removed-action"},
		{Action: "update"},
		{Action: "removed-action"},
		{Action: "read", Conditions: []string{"admin::is-creator"}},
	}
	for _, a := range seed {
		p := permission.Create(a)
		p.ID = id.NewPermissionID()
		p.Role = &rid
		if err := s.CreatePermissions(ctx, []*permission.Permission{&p}); err != nil {
			t.Fatal(err)
		}
	}

	report, err := svc.CleanPermissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Scanned != 5 || report.Deleted != 2 || report.Updated != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if c.invalidated == 0 {
		t.Fatal("expected the role cache to be invalidated")
	}
	if len(rec.cleaned) != 1 {
		t.Fatalf("expected 1 cleaned hook, got %d", len(rec.cleaned))
	}

	left, err := svc.RolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 3 {
		t.Fatalf("expected 3 permissions left, got %d", len(left))
	}
	for _, p := range left {
		for _, cond := range p.Conditions {
			if cond == "admin::gone" {
				t.Fatal("expected unknown condition to be stripped")
			}
		}
	}

	again, err := svc.CleanPermissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Changed() {
		t.Fatalf("expected second pass to change nothing, got %+v", again)
	}
	if len(rec.cleaned) != 1 {
		t.Fatal("expected no hook for an unchanged pass")
	}
}

func TestCodeFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Editor", "editor"},
		{"Content Editor", "content-editor"},
		{"  Super -- Admin!! ", "super-admin"},
		{"Rédacteur 2", "r-dacteur-2"},
		{"", ""},
		{"Éé", ""},
	}
	for _, tt := range tests {
		if got := CodeFromName(tt.name); got != tt.want {
			t.Errorf("CodeFromName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
