// Package sqlite provides a SQLite implementation of the grant composite
// store using grove ORM. JSON columns are stored as TEXT.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
	"github.com/xraph/grant/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite grant store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("grant/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("grant/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// clause is a single WHERE fragment with its arguments.
type clause struct {
	expr string
	args []any
}

func roleClauses(f *role.ListFilter) []clause {
	if f == nil {
		return nil
	}
	var cs []clause
	if f.TenantID != "" {
		cs = append(cs, clause{"tenant_id = ?", []any{f.TenantID}})
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		cs = append(cs, clause{"(LOWER(name) LIKE LOWER(?) OR LOWER(code) LIKE LOWER(?))", []any{like, like}})
	}
	return cs
}

func permissionClauses(f *permission.ListFilter) []clause {
	if f == nil {
		return nil
	}
	var cs []clause
	if f.RoleID != nil {
		cs = append(cs, clause{"role_id = ?", []any{f.RoleID.String()}})
	}
	if f.RoleIDs != nil {
		// "" keeps the IN list non-empty.
		cs = append(cs, clause{"role_id IN (?)", []any{append(idStrings(f.RoleIDs), "")}})
	}
	if f.Action != "" && f.Action != "*" {
		if prefix, ok := permission.ActionPrefix(f.Action); ok {
			cs = append(cs, clause{`action LIKE ? ESCAPE '\'`, []any{store.LikePrefix(prefix)}})
		} else {
			cs = append(cs, clause{"action = ?", []any{f.Action}})
		}
	}
	if f.Subject != nil {
		cs = append(cs, clause{"subject = ?", []any{*f.Subject}})
	}
	return cs
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("grant: create role: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("grant: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("grant: get role: %w", err)
	}
	return roleFromModel(m)
}

func (s *Store) GetRoleByCode(ctx context.Context, tenantID, code string) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role code %q: %w", code, store.ErrNotFound)
		}
		return nil, fmt.Errorf("grant: get role by code: %w", err)
	}
	return roleFromModel(m)
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("grant: update role: %w", err)
	}
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("grant: update role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("grant: delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	for _, c := range roleClauses(filter) {
		q = q.Where(c.expr, c.args...)
	}
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("grant: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		r, err := roleFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("grant: list roles: %w", err)
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*roleModel)(nil))
	for _, c := range roleClauses(filter) {
		q = q.Where(c.expr, c.args...)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("grant: count roles: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermissions(ctx context.Context, perms []*permission.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]permissionModel, len(perms))
	for i, p := range perms {
		if p.ID.IsNil() {
			return fmt.Errorf("grant: permission %q has no id", p.Action)
		}
		m, err := permissionToModel(p, now)
		if err != nil {
			return fmt.Errorf("grant: create permissions: %w", err)
		}
		models[i] = *m
	}

	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("grant: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err = tx.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("grant: create permissions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("grant: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	m, err := s.getPermissionModel(ctx, permID)
	if err != nil {
		return nil, err
	}
	return permissionFromModel(m)
}

func (s *Store) getPermissionModel(ctx context.Context, permID id.PermissionID) (*permissionModel, error) {
	m := new(permissionModel)
	err := s.sdb.NewSelect(m).Where("id = ?", permID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("grant: get permission: %w", err)
	}
	return m, nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	existing, err := s.getPermissionModel(ctx, p.ID)
	if err != nil {
		return err
	}
	m, err := permissionToModel(p, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("grant: update permission: %w", err)
	}
	m.CreatedAt = existing.CreatedAt
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("grant: update permission: %w", err)
	}
	return nil
}

func (s *Store) DeletePermissions(ctx context.Context, permIDs []id.PermissionID) error {
	if len(permIDs) == 0 {
		return nil
	}
	_, err := s.sdb.NewDelete((*permissionModel)(nil)).
		Where("id IN (?)", idStrings(permIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("grant: delete permissions: %w", err)
	}
	return nil
}

func (s *Store) DeletePermissionsByRole(ctx context.Context, roleIDs []id.RoleID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := s.sdb.NewDelete((*permissionModel)(nil)).
		Where("role_id IN (?)", idStrings(roleIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("grant: delete permissions by role: %w", err)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	for _, c := range permissionClauses(filter) {
		q = q.Where(c.expr, c.args...)
	}
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("grant: list permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		p, err := permissionFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("grant: list permissions: %w", err)
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*permissionModel)(nil))
	for _, c := range permissionClauses(filter) {
		q = q.Where(c.expr, c.args...)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("grant: count permissions: %w", err)
	}
	return count, nil
}

func idStrings(ids []id.ID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}
