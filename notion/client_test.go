package notion

import (
	"strings"
	"testing"
)

func TestNewClientMissingToken(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_DATABASE_ID", "")

	_, err := NewClient(Env{})
	if err == nil {
		t.Fatal("NewClient should fail fast without a token")
	}
	if !strings.Contains(err.Error(), "NOTION_TOKEN") {
		t.Errorf("error = %v, want mention of NOTION_TOKEN", err)
	}
}

func TestNewClientMissingDatabaseID(t *testing.T) {
	t.Setenv("NOTION_DATABASE_ID", "")

	_, err := NewClient(Env{Token: "secret"})
	if err == nil {
		t.Fatal("NewClient should fail fast without a database ID")
	}
	if !strings.Contains(err.Error(), "NOTION_DATABASE_ID") {
		t.Errorf("error = %v, want mention of NOTION_DATABASE_ID", err)
	}
}

func TestNewClientEnvFallback(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "from-process-env")
	t.Setenv("NOTION_DATABASE_ID", "db-from-env")

	c, err := NewClient(Env{})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.databaseID != "db-from-env" {
		t.Errorf("databaseID = %q", c.databaseID)
	}
}

func TestNewClientInjectedEnvWins(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "from-process-env")
	t.Setenv("NOTION_DATABASE_ID", "db-from-env")

	c, err := NewClient(Env{Token: "injected", DatabaseID: "db-injected"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.databaseID != "db-injected" {
		t.Errorf("databaseID = %q, want injected value preferred", c.databaseID)
	}
}
