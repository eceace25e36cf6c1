package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeProject(t, `
name: movielens
description: movie rating analysis
database: ./movielens.db
outcome: movies_gross
server_addr: ":8080"
export: ./schema.json
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Name != "movielens" || p.Database != "./movielens.db" {
		t.Errorf("Project = %+v", p)
	}
	if p.Outcome != "movies_gross" || p.ServerAddr != ":8080" {
		t.Errorf("Project = %+v", p)
	}
}

func TestLoadRulesOnly(t *testing.T) {
	p, err := Load(writeProject(t, "name: seeded\nrules: ./facts.pl\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Rules != "./facts.pl" {
		t.Errorf("Rules = %q", p.Rules)
	}
}

func TestLoadRequiresSource(t *testing.T) {
	_, err := Load(writeProject(t, "name: empty\n"))
	if err == nil || !strings.Contains(err.Error(), "neither a database nor a rules file") {
		t.Errorf("Load() error = %v, want source requirement", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeProject(t, "name: [unclosed\n")); err == nil {
		t.Error("Load() expected error for malformed yaml")
	}
}
