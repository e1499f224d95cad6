package resolve_test

import (
	"testing"

	"github.com/wspcli/wsp/internal/config"
	"github.com/wspcli/wsp/internal/resolve"
)

func testConfig() *config.GlobalConfig {
	return &config.GlobalConfig{
		Repos: map[string]config.RegisteredRepo{
			"github.com/acme/widgets": {Identity: "github.com/acme/widgets"},
			"github.com/other/widgets": {Identity: "github.com/other/widgets"},
		},
		Groups: map[string]config.Group{
			"backend": {Name: "backend", Identities: []string{"github.com/acme/widgets"}},
		},
	}
}

func TestResolverResolve(t *testing.T) {
	r := resolve.New(testConfig())

	id, err := r.Resolve("acme/widgets")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if id.Canonical() != "github.com/acme/widgets" {
		t.Errorf("Resolve() = %v, want github.com/acme/widgets", id.Canonical())
	}

	if _, err := r.Resolve("widgets"); err == nil {
		t.Fatalf("expected ambiguous error for bare 'widgets'")
	}
}

func TestResolverShortnames(t *testing.T) {
	r := resolve.New(testConfig())

	names, err := r.Shortnames()
	if err != nil {
		t.Fatalf("Shortnames: %v", err)
	}

	if len(names) != 2 {
		t.Errorf("Shortnames() returned %d entries, want 2", len(names))
	}
}

func TestResolverResolveGroup(t *testing.T) {
	r := resolve.New(testConfig())

	ids, err := r.ResolveGroup("backend")
	if err != nil {
		t.Fatalf("ResolveGroup: %v", err)
	}

	if len(ids) != 1 || ids[0].Canonical() != "github.com/acme/widgets" {
		t.Errorf("ResolveGroup() = %+v", ids)
	}

	if _, err := r.ResolveGroup("nonexistent"); err == nil {
		t.Fatalf("expected not-found error for unknown group")
	}
}
