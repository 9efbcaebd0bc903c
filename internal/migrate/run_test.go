package migrate

import (
	"strings"
	"testing"
)

func TestMigrationFiles_SortedAndEmbedded(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) < 2 {
		t.Fatalf("expected at least two migrations, got %v", files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Fatalf("migrations not sorted: %v", files)
		}
	}
	for _, f := range files {
		body, readErr := migrationsFS.ReadFile("migrations/" + f)
		if readErr != nil {
			t.Fatalf("read %s: %v", f, readErr)
		}
		if !strings.Contains(string(body), "IF NOT EXISTS") {
			t.Errorf("migration %s should be idempotent", f)
		}
	}
}

func TestManagedTables_CoverSchema(t *testing.T) {
	var all strings.Builder
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	for _, f := range files {
		body, _ := migrationsFS.ReadFile("migrations/" + f)
		all.Write(body)
	}
	for _, table := range managedTables {
		if table == "schema_migrations" {
			continue
		}
		if !strings.Contains(all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("table %s is reset but never created", table)
		}
	}
}
