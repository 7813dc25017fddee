package permission

import "testing"

func TestMatchAction(t *testing.T) {
	tests := []struct {
		pattern string
		action  string
		want    bool
	}{
		{"*", "anything", true},
		{"", "anything", true},
		{"read", "read", true},
		{"read", "readAll", false},
		{"plugin::content-manager.*", "plugin::content-manager.explorer.read", true},
		{"plugin::content-manager.*", "plugin::upload.read", false},
		{"plugin::*", "admin::users.read", false},
	}

	for _, tt := range tests {
		if got := MatchAction(tt.pattern, tt.action); got != tt.want {
			t.Errorf("MatchAction(%q, %q) = %v, want %v", tt.pattern, tt.action, got, tt.want)
		}
	}
}

func TestActionPrefix(t *testing.T) {
	if p, ok := ActionPrefix("plugin::*"); !ok || p != "plugin::" {
		t.Errorf("ActionPrefix(plugin::*) = %q, %v", p, ok)
	}
	if _, ok := ActionPrefix("read"); ok {
		t.Error("expected exact action to have no prefix")
	}
}

func TestListFilterMatches(t *testing.T) {
	p := Create(Attributes{Action: "plugin::upload.read", Subject: strPtr("plugin::upload.file")})

	if !(*ListFilter)(nil).Matches(&p) {
		t.Error("nil filter should match")
	}
	if !(&ListFilter{Action: "plugin::upload.*"}).Matches(&p) {
		t.Error("prefix filter should match")
	}
	other := "api::article.article"
	if (&ListFilter{Subject: &other}).Matches(&p) {
		t.Error("subject filter should not match")
	}
}
