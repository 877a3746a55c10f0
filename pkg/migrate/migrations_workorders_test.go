package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProductionMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_production_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no production migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE work_order_status AS ENUM ('pending', 'running', 'completed', 'cancelled')",
		"CREATE TABLE IF NOT EXISTS work_orders",
		"CHECK (target_qty > 0)",
		"CHECK (produced_qty >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_mold_movements_active",
		"FOREIGN KEY (work_order_id) REFERENCES work_orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS work_orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationDefinesUniqueEventIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_users_notifications_outbox.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no outbox migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"payload jsonb NOT NULL",
		"ix_outbox_events_unpublished",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate",
		"CREATE TABLE IF NOT EXISTS notifications",
		"CREATE TABLE IF NOT EXISTS users",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
