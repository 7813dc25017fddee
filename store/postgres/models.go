package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/grant/id"
	"github.com/xraph/grant/permission"
	"github.com/xraph/grant/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:grant_roles"`
	ID              string         `grove:"id,pk"`
	TenantID        string         `grove:"tenant_id,notnull"`
	AppID           string         `grove:"app_id,notnull"`
	Name            string         `grove:"name,notnull"`
	Code            string         `grove:"code,notnull"`
	Description     string         `grove:"description"`
	IsSystem        bool           `grove:"is_system,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		AppID:       r.AppID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		AppID:       m.AppID,
		Name:        m.Name,
		Code:        m.Code,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel  `grove:"table:grant_permissions"`
	ID               string         `grove:"id,pk"`
	RoleID           *string        `grove:"role_id"`
	Action           string         `grove:"action,notnull"`
	ActionParameters map[string]any `grove:"action_parameters,type:jsonb"`
	Subject          *string        `grove:"subject"`
	Properties       map[string]any `grove:"properties,type:jsonb"`
	Conditions       []string       `grove:"conditions,type:jsonb"`
	CreatedAt        time.Time      `grove:"created_at,notnull"`
	UpdatedAt        time.Time      `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission, now time.Time) *permissionModel {
	m := &permissionModel{
		ID:               p.ID.String(),
		Action:           p.Action,
		ActionParameters: p.ActionParameters,
		Subject:          p.Subject,
		Properties:       map[string]any(p.Properties),
		Conditions:       p.Conditions,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if m.ActionParameters == nil {
		m.ActionParameters = map[string]any{}
	}
	if m.Properties == nil {
		m.Properties = map[string]any{}
	}
	if m.Conditions == nil {
		m.Conditions = []string{}
	}
	if p.Role != nil {
		s := p.Role.String()
		m.RoleID = &s
	}
	return m
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	p := permission.Create(permission.Attributes{
		ID:               pid,
		Action:           m.Action,
		ActionParameters: m.ActionParameters,
		Subject:          m.Subject,
		Properties:       permission.Properties(m.Properties),
	})
	// Stored conditions are kept as-is, duplicates included.
	p.Conditions = append([]string{}, m.Conditions...)
	if m.RoleID != nil {
		rid, err := id.ParseRoleID(*m.RoleID)
		if err == nil {
			p.Role = &rid
		}
	}
	return &p
}
