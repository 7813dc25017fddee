package grant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/store"
)

// CleanPermissions walks every stored permission in batches. Permissions
// whose action is not known to the action provider are deleted; unknown
// conditions are stripped from the rest. It is a maintenance operation and
// ignores the tenant scope.
func (s *Service) CleanPermissions(ctx context.Context) (permission.CleanReport, error) {
	var report permission.CleanReport
	touched := make(map[string]id.RoleID)
	batch := s.config.batchSize()

	for offset := 0; ; {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		page, err := s.store.ListPermissions(ctx, &permission.ListFilter{Limit: batch, Offset: offset})
		if err != nil {
			return report, fmt.Errorf("grant: clean list: %w", err)
		}
		report.Scanned += len(page)

		var stale []id.PermissionID
		for _, p := range page {
			if s.actions != nil && !s.actions.Has(p.Action) {
				stale = append(stale, p.ID)
				markRole(touched, p)
				continue
			}
			next := permission.SanitizeConditions(s.conditions, *p)
			if slices.Equal(p.Conditions, next.Conditions) {
				continue
			}
			if err := s.store.UpdatePermission(ctx, &next); err != nil {
				return report, fmt.Errorf("grant: clean update %s: %w", p.ID, err)
			}
			report.Updated++
			markRole(touched, p)
		}
		if len(stale) > 0 {
			if err := s.store.DeletePermissions(ctx, stale); err != nil {
				return report, fmt.Errorf("grant: clean delete: %w", err)
			}
			report.Deleted += len(stale)
			if s.plugins != nil {
				s.plugins.EmitPermissionsDeleted(ctx, stale)
			}
		}

		if len(page) < batch {
			break
		}
		// Deleted rows shift the following ones back into this window.
		offset += len(page) - len(stale)
	}

	for _, roleID := range touched {
		s.invalidateStoredRole(ctx, roleID)
	}
	s.logger.Info("permissions cleaned",
		slog.Int("scanned", report.Scanned),
		slog.Int("deleted", report.Deleted),
		slog.Int("updated", report.Updated),
	)
	if report.Changed() && s.plugins != nil {
		s.plugins.EmitPermissionsCleaned(ctx, report)
	}
	return report, nil
}

// invalidateStoredRole drops the cache entry of a role whose tenant is not
// known to the caller.
func (s *Service) invalidateStoredRole(ctx context.Context, roleID id.RoleID) {
	s.expire(roleID)
	if s.cache == nil {
		return
	}
	r, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("cache invalidation lookup failed",
				slog.String("role_id", roleID.String()),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	s.cache.InvalidateRole(ctx, r.TenantID, r.ID)
}

func markRole(touched map[string]id.RoleID, p *permission.Permission) {
	if p.Role != nil {
		touched[p.Role.String()] = *p.Role
	}
}
