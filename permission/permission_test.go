package permission

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/grant/id"
)

func strPtr(s string) *string { return &s }

func TestCreateDefaults(t *testing.T) {
	p := Create(Attributes{Action: "read"})

	assert.Equal(t, "read", p.Action)
	assert.Equal(t, map[string]any{}, p.ActionParameters)
	assert.Equal(t, Properties{}, p.Properties)
	assert.Equal(t, []string{}, p.Conditions)
	assert.Nil(t, p.Subject)
	assert.Nil(t, p.Role)
	assert.True(t, p.ID.IsNil())
}

func TestCreateSuppliedValuesWin(t *testing.T) {
	roleID := id.NewRoleID()
	permID := id.NewPermissionID()
	attrs := Attributes{
		ID:               permID,
		Action:           "plugin::content-manager.explorer.read",
		ActionParameters: map[string]any{"mode": "draft"},
		Subject:          strPtr("api::article.article"),
		Properties:       Properties{"fields": []string{"title", "body"}},
		Conditions:       []string{"admin::is-creator", "admin::is-creator", "admin::has-same-role"},
		Role:             &roleID,
	}

	p := Create(attrs)

	assert.Equal(t, permID.String(), p.ID.String())
	assert.Equal(t, "draft", p.ActionParameters["mode"])
	require.NotNil(t, p.Subject)
	assert.Equal(t, "api::article.article", *p.Subject)
	assert.Equal(t, []string{"title", "body"}, p.Properties.Fields())
	assert.Equal(t, []string{"admin::is-creator", "admin::has-same-role"}, p.Conditions)
	require.NotNil(t, p.Role)
	assert.Equal(t, roleID.String(), p.Role.String())

	// The result must not alias the payload.
	attrs.ActionParameters["mode"] = "published"
	*attrs.Subject = "changed"
	attrs.Properties["fields"].([]string)[0] = "changed"
	assert.Equal(t, "draft", p.ActionParameters["mode"])
	assert.Equal(t, "api::article.article", *p.Subject)
	assert.Equal(t, "title", p.Properties.Fields()[0])
}

func TestCreateMany(t *testing.T) {
	a := Attributes{Action: "read"}
	b := Attributes{Action: "update", Conditions: []string{"isOwner"}}

	got := CreateMany([]Attributes{a, b})

	require.Len(t, got, 2)
	assert.Equal(t, Create(a), got[0])
	assert.Equal(t, Create(b), got[1])
	assert.Empty(t, CreateMany(nil))
}

func TestAddCondition(t *testing.T) {
	p := Create(Attributes{Action: "read", Conditions: []string{"isAdmin"}})

	got := AddCondition("isOwner", p)
	assert.Equal(t, []string{"isAdmin", "isOwner"}, got.Conditions)
	assert.Equal(t, []string{"isAdmin"}, p.Conditions, "input must not change")

	twice := AddCondition("isOwner", got)
	assert.Equal(t, []string{"isAdmin", "isOwner"}, twice.Conditions)
}

func TestAddConditionNilList(t *testing.T) {
	p := Permission{Action: "read"}

	got := AddCondition("isOwner", p)

	assert.Equal(t, []string{"isOwner"}, got.Conditions)
	assert.Nil(t, p.Conditions)
}

func TestAddConditionFunc(t *testing.T) {
	add := AddConditionFunc("isOwner")
	perms := Map(CreateMany([]Attributes{{Action: "a"}, {Action: "b", Conditions: []string{"isOwner"}}}), add)

	for _, p := range perms {
		assert.Equal(t, []string{"isOwner"}, p.Conditions)
	}
}

func TestRemoveCondition(t *testing.T) {
	p := Create(Attributes{Action: "read", Conditions: []string{"a", "b", "c"}})
	p.Conditions = append(p.Conditions, "b") // duplicates may exist in stored data

	got := RemoveCondition("b", p)

	assert.Equal(t, []string{"a", "c"}, got.Conditions)
	assert.Equal(t, []string{"a", "b", "c", "b"}, p.Conditions)

	missing := RemoveCondition("zzz", got)
	assert.Equal(t, []string{"a", "c"}, missing.Conditions)

	fromNil := RemoveCondition("a", Permission{Action: "read"})
	assert.NotNil(t, fromNil.Conditions)
	assert.Empty(t, fromNil.Conditions)

	assert.Equal(t, got, RemoveConditionFunc("b")(p))
}

func TestSanitizeConditions(t *testing.T) {
	provider := ProviderFunc(func(c string) bool { return c == "isAdmin" })
	p := Create(Attributes{Action: "x", Conditions: []string{"isAdmin", "stale"}})

	got := SanitizeConditions(provider, p)

	assert.Equal(t, []string{"isAdmin"}, got.Conditions)
	assert.Equal(t, []string{"isAdmin", "stale"}, p.Conditions)
}

func TestSanitizeConditionsSubsetAndOrder(t *testing.T) {
	known := map[string]bool{"a": true, "c": true, "e": true}
	provider := ProviderFunc(func(c string) bool { return known[c] })
	p := Permission{Action: "x", Conditions: []string{"e", "b", "a", "d", "c", "a"}}

	got := SanitizeConditions(provider, p)

	assert.Equal(t, []string{"e", "a", "c"}, got.Conditions)
	for _, c := range got.Conditions {
		assert.True(t, provider.Has(c))
		assert.True(t, p.HasCondition(c))
	}
}

func TestSanitizeConditionsNoop(t *testing.T) {
	provider := ProviderFunc(func(string) bool { return false })

	nilConds := Permission{Action: "x"}
	assert.Nil(t, SanitizeConditions(provider, nilConds).Conditions)

	p := Create(Attributes{Action: "x", Conditions: []string{"a"}})
	assert.Equal(t, p, SanitizeConditions(nil, p))

	assert.Empty(t, SanitizeConditionsFunc(provider)(p).Conditions)
}

func TestPropertyHelpers(t *testing.T) {
	p := Create(Attributes{Action: "read", Properties: Properties{"fields": []any{"title"}}})

	v, ok := GetProperty("fields", p)
	require.True(t, ok)
	assert.Equal(t, []any{"title"}, v)

	_, ok = GetPropertyFunc("locales")(p)
	assert.False(t, ok)

	withLocales := SetProperty("locales", []string{"en", "fr"}, p)
	assert.Equal(t, []string{"en", "fr"}, withLocales.Properties.Locales())
	_, ok = GetProperty("locales", p)
	assert.False(t, ok, "input must not change")

	nested := SetProperty("a.b.c", 1, p)
	v, ok = GetProperty("a.b.c", nested)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	trimmed := DeleteProperty("a.b", nested)
	_, ok = GetProperty("a.b.c", trimmed)
	assert.False(t, ok)
	v, ok = GetProperty("a", trimmed)
	require.True(t, ok)
	assert.Equal(t, map[string]any{}, v)
	_, ok = GetProperty("a.b.c", nested)
	assert.True(t, ok, "input must not change")

	assert.Equal(t, p, DeleteProperty("does.not.exist", p))
}

func TestSanitizeFields(t *testing.T) {
	roleID := id.NewRoleID()
	p := Create(Attributes{
		ID:         id.NewPermissionID(),
		Action:     "read",
		Subject:    strPtr("api::article.article"),
		Conditions: []string{"isOwner"},
		Role:       &roleID,
	})

	s := SanitizeFields(p)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := append([]string(nil), SanitizedFields...)
	sort.Strings(want)
	assert.Equal(t, want, keys)
	assert.NotContains(t, fields, "role")
	assert.Equal(t, p.ID.String(), fields["id"])
}

func TestSanitizeFieldsWithoutRole(t *testing.T) {
	s := SanitizeAll([]Permission{Create(Attributes{Action: "read"})})
	require.Len(t, s, 1)

	data, err := json.Marshal(s[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"role"`)
	assert.Contains(t, string(data), `"subject":null`)
}

func TestPermissionJSONFieldsMatchFields(t *testing.T) {
	roleID := id.NewRoleID()
	p := Create(Attributes{Action: "read", Role: &roleID})

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Len(t, fields, len(Fields))
	for _, f := range Fields {
		assert.Contains(t, fields, f)
	}
}
