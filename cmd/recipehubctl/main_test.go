package main

import (
	"bytes"
	"testing"

	"github.com/geocoder89/recipehub/internal/config"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{{"migrate"}, {"migrate", "status"}, {"seed-admin"}, {"prune-sessions"}} {
		found, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("Find(%v): %v", path, err)
		}
		if found.Name() != path[len(path)-1] {
			t.Fatalf("Find(%v) = %s", path, found.Name())
		}
	}

	seed, _, _ := root.Find([]string{"seed-admin"})
	for _, flag := range []string{"email", "password", "name"} {
		if seed.Flags().Lookup(flag) == nil {
			t.Fatalf("seed-admin missing --%s", flag)
		}
	}
}

func TestApplyAdminOverrides(t *testing.T) {
	cfg := config.Config{AdminEmail: "env@example.com", AdminPassword: "envpw", AdminName: "Env"}

	applyAdminOverrides(&cfg, "flag@example.com", "", "")

	if cfg.AdminEmail != "flag@example.com" {
		t.Fatalf("email = %q", cfg.AdminEmail)
	}
	if cfg.AdminPassword != "envpw" || cfg.AdminName != "Env" {
		t.Fatalf("unset flags overrode config: %+v", cfg)
	}
}

func TestPrintPruned(t *testing.T) {
	var buf bytes.Buffer
	if err := printPruned(&buf, 3); err != nil {
		t.Fatalf("printPruned: %v", err)
	}
	if buf.String() != "pruned 3 expired sessions\n" {
		t.Fatalf("output = %q", buf.String())
	}
}
