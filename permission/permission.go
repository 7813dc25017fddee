// Package permission defines the Permission entity, the pure functions that
// construct and reshape it, and its store interface.
//
// Every function in this package is non-destructive: it returns a new
// Permission and never modifies its input, nested maps and the conditions
// slice included.
package permission

import (
	"github.com/xraph/grant/id"
)

// Permission is a single authorization grant: an action, optionally bound to
// a subject (resource type), qualified by properties and conditions.
type Permission struct {
	ID               id.PermissionID `json:"id"`
	Action           string          `json:"action"`
	ActionParameters map[string]any  `json:"action_parameters"`
	Subject          *string         `json:"subject"`
	Properties       Properties      `json:"properties"`
	Conditions       []string        `json:"conditions"`
	Role             *id.RoleID      `json:"role,omitempty"`
}

// Attributes is the partial payload accepted by Create. Only Action is
// required; every other field falls back to its default.
type Attributes struct {
	ID               id.PermissionID `json:"id"`
	Action           string          `json:"action" validate:"required"`
	ActionParameters map[string]any  `json:"action_parameters,omitempty"`
	Subject          *string         `json:"subject,omitempty" validate:"omitempty,min=1"`
	Properties       Properties      `json:"properties,omitempty"`
	Conditions       []string        `json:"conditions,omitempty" validate:"omitempty,dive,required"`
	Role             *id.RoleID      `json:"role,omitempty"`
}

// Sanitized is the view of a Permission that is safe to hand to clients:
// the role linkage is dropped.
type Sanitized struct {
	ID               id.PermissionID `json:"id"`
	Action           string          `json:"action"`
	ActionParameters map[string]any  `json:"action_parameters"`
	Subject          *string         `json:"subject"`
	Properties       Properties      `json:"properties"`
	Conditions       []string        `json:"conditions"`
}

// Fields lists the canonical permission fields, in order, by JSON name.
var Fields = []string{
	"id",
	"action",
	"action_parameters",
	"subject",
	"properties",
	"conditions",
	"role",
}

// SanitizedFields lists the fields kept by SanitizeFields.
var SanitizedFields = []string{
	"id",
	"action",
	"action_parameters",
	"subject",
	"properties",
	"conditions",
}

// Provider reports whether a key (a condition or action identifier) is
// currently registered.
type Provider interface {
	Has(key string) bool
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(key string) bool

// Has calls f(key).
func (f ProviderFunc) Has(key string) bool { return f(key) }

// Transform is a permission-to-permission function, the partially applied
// form of the two-argument helpers below.
type Transform func(Permission) Permission

// Create builds a Permission from attrs, filling the defaults
// (empty action parameters, empty properties, no conditions, nil subject).
// Supplied values win over defaults. Duplicate conditions are collapsed.
func Create(attrs Attributes) Permission {
	p := Permission{
		ID:               attrs.ID,
		Action:           attrs.Action,
		ActionParameters: map[string]any{},
		Properties:       Properties{},
		Conditions:       []string{},
	}
	if attrs.ActionParameters != nil {
		p.ActionParameters = cloneMap(attrs.ActionParameters)
	}
	if attrs.Subject != nil {
		s := *attrs.Subject
		p.Subject = &s
	}
	if attrs.Properties != nil {
		p.Properties = attrs.Properties.Clone()
	}
	if attrs.Conditions != nil {
		p.Conditions = uniq(attrs.Conditions)
	}
	if attrs.Role != nil {
		p.Role = attrs.Role.Ptr()
	}
	return p
}

// CreateMany applies Create to each element, preserving order.
func CreateMany(attrs []Attributes) []Permission {
	out := make([]Permission, len(attrs))
	for i := range attrs {
		out[i] = Create(attrs[i])
	}
	return out
}

// Clone returns a deep copy of p.
func (p Permission) Clone() Permission {
	out := p
	out.ActionParameters = cloneMap(p.ActionParameters)
	out.Properties = p.Properties.Clone()
	if p.Conditions != nil {
		out.Conditions = append(make([]string, 0, len(p.Conditions)), p.Conditions...)
	}
	if p.Subject != nil {
		s := *p.Subject
		out.Subject = &s
	}
	if p.Role != nil {
		out.Role = p.Role.Ptr()
	}
	return out
}

// HasCondition reports whether condition is in p.Conditions.
func (p Permission) HasCondition(condition string) bool {
	for _, c := range p.Conditions {
		if c == condition {
			return true
		}
	}
	return false
}

// AddCondition returns a copy of p with condition added to its condition
// set. A nil condition list is replaced by a single-element list.
func AddCondition(condition string, p Permission) Permission {
	out := p.Clone()
	if p.Conditions == nil {
		out.Conditions = []string{condition}
		return out
	}
	out.Conditions = uniq(append(out.Conditions, condition))
	return out
}

// AddConditionFunc is the partially applied form of AddCondition.
func AddConditionFunc(condition string) Transform {
	return func(p Permission) Permission { return AddCondition(condition, p) }
}

// RemoveCondition returns a copy of p without any occurrence of condition.
// The remaining conditions keep their relative order.
func RemoveCondition(condition string, p Permission) Permission {
	out := p.Clone()
	kept := make([]string, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		if c != condition {
			kept = append(kept, c)
		}
	}
	out.Conditions = kept
	return out
}

// RemoveConditionFunc is the partially applied form of RemoveCondition.
func RemoveConditionFunc(condition string) Transform {
	return func(p Permission) Permission { return RemoveCondition(condition, p) }
}

// GetProperty reads a dotted path under p.Properties.
func GetProperty(path string, p Permission) (any, bool) {
	return p.Properties.Get(path)
}

// GetPropertyFunc is the partially applied form of GetProperty.
func GetPropertyFunc(path string) func(Permission) (any, bool) {
	return func(p Permission) (any, bool) { return GetProperty(path, p) }
}

// SetProperty returns a copy of p with the dotted path under Properties set
// to value, creating intermediate maps as needed.
func SetProperty(path string, value any, p Permission) Permission {
	out := p.Clone()
	out.Properties = p.Properties.Set(path, value)
	return out
}

// DeleteProperty returns a copy of p with the dotted path removed from
// Properties.
func DeleteProperty(path string, p Permission) Permission {
	out := p.Clone()
	out.Properties = p.Properties.Delete(path)
	return out
}

// SanitizeConditions drops every condition the provider no longer knows.
// A nil condition list, or a nil provider, leaves p unchanged.
func SanitizeConditions(provider Provider, p Permission) Permission {
	if p.Conditions == nil || provider == nil {
		return p.Clone()
	}
	out := p
	for _, c := range p.Conditions {
		if !provider.Has(c) {
			out = RemoveCondition(c, out)
		}
	}
	out = out.Clone()
	out.Conditions = uniq(out.Conditions)
	return out
}

// SanitizeConditionsFunc is the partially applied form of SanitizeConditions.
func SanitizeConditionsFunc(provider Provider) Transform {
	return func(p Permission) Permission { return SanitizeConditions(provider, p) }
}

// SanitizeFields projects p onto SanitizedFields, dropping the role.
func SanitizeFields(p Permission) Sanitized {
	c := p.Clone()
	return Sanitized{
		ID:               c.ID,
		Action:           c.Action,
		ActionParameters: c.ActionParameters,
		Subject:          c.Subject,
		Properties:       c.Properties,
		Conditions:       c.Conditions,
	}
}

// SanitizeAll applies SanitizeFields to each element.
func SanitizeAll(ps []Permission) []Sanitized {
	out := make([]Sanitized, len(ps))
	for i := range ps {
		out[i] = SanitizeFields(ps[i])
	}
	return out
}

// Map applies t to each element, preserving order.
func Map(ps []Permission, t Transform) []Permission {
	out := make([]Permission, len(ps))
	for i := range ps {
		out[i] = t(ps[i])
	}
	return out
}

// uniq returns a new slice with first occurrences kept, in order.
func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
