package sqlite

import (
	"encoding/json"
	"fmt"
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
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	AppID           string    `grove:"app_id,notnull"`
	Name            string    `grove:"name,notnull"`
	Code            string    `grove:"code,notnull"`
	Description     string    `grove:"description"`
	IsSystem        bool      `grove:"is_system,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) (*roleModel, error) {
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal role metadata: %w", err)
	}
	return &roleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		AppID:       r.AppID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Metadata:    string(metadata),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func roleFromModel(m *roleModel) (*role.Role, error) {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal role metadata: %w", err)
		}
	}
	return &role.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		AppID:       m.AppID,
		Name:        m.Name,
		Code:        m.Code,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Metadata:    metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel  `grove:"table:grant_permissions"`
	ID               string    `grove:"id,pk"`
	RoleID           *string   `grove:"role_id"`
	Action           string    `grove:"action,notnull"`
	ActionParameters string    `grove:"action_parameters"` // JSON text
	Subject          *string   `grove:"subject"`
	Properties       string    `grove:"properties"` // JSON text
	Conditions       string    `grove:"conditions"` // JSON text
	CreatedAt        time.Time `grove:"created_at,notnull"`
	UpdatedAt        time.Time `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission, now time.Time) (*permissionModel, error) {
	params := p.ActionParameters
	if params == nil {
		params = map[string]any{}
	}
	props := p.Properties
	if props == nil {
		props = permission.Properties{}
	}
	conds := p.Conditions
	if conds == nil {
		conds = []string{}
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal action parameters: %w", err)
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	condsJSON, err := json.Marshal(conds)
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}

	m := &permissionModel{
		ID:               p.ID.String(),
		Action:           p.Action,
		ActionParameters: string(paramsJSON),
		Subject:          p.Subject,
		Properties:       string(propsJSON),
		Conditions:       string(condsJSON),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if p.Role != nil {
		s := p.Role.String()
		m.RoleID = &s
	}
	return m, nil
}

func permissionFromModel(m *permissionModel) (*permission.Permission, error) {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	attrs := permission.Attributes{
		ID:      pid,
		Action:  m.Action,
		Subject: m.Subject,
	}
	if m.ActionParameters != "" {
		if err := json.Unmarshal([]byte(m.ActionParameters), &attrs.ActionParameters); err != nil {
			return nil, fmt.Errorf("unmarshal action parameters: %w", err)
		}
	}
	if m.Properties != "" {
		if err := json.Unmarshal([]byte(m.Properties), &attrs.Properties); err != nil {
			return nil, fmt.Errorf("unmarshal properties: %w", err)
		}
	}
	var conds []string
	if m.Conditions != "" {
		if err := json.Unmarshal([]byte(m.Conditions), &conds); err != nil {
			return nil, fmt.Errorf("unmarshal conditions: %w", err)
		}
	}

	p := permission.Create(attrs)
	// Stored conditions are kept as-is, duplicates included.
	p.Conditions = append([]string{}, conds...)
	if m.RoleID != nil {
		rid, err := id.ParseRoleID(*m.RoleID)
		if err == nil {
			p.Role = &rid
		}
	}
	return &p, nil
}
