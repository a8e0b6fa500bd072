package postgres

import (
	"strings"
	"testing"
)

func TestMigrationNamesAreOrderedSQLFiles(t *testing.T) {
	t.Parallel()

	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames() error = %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for i, name := range names {
		if !strings.HasSuffix(name, ".sql") {
			t.Fatalf("unexpected migration %q", name)
		}
		if i > 0 && names[i-1] >= name {
			t.Fatalf("migrations not sorted: %q before %q", names[i-1], name)
		}
	}
}

func TestInitialMigrationCreatesEveryTable(t *testing.T) {
	t.Parallel()

	raw, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(raw)
	tables := []string{
		downloadTokenModel{}.TableName(),
		leadModel{}.TableName(),
		rfqModel{}.TableName(),
		manufacturerModel{}.TableName(),
		documentModel{}.TableName(),
		contentBlockModel{}.TableName(),
		adminUserModel{}.TableName(),
		adminSessionModel{}.TableName(),
		outboxModel{}.TableName(),
		idempotencyModel{}.TableName(),
	}
	for _, table := range tables {
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("migration does not create %s", table)
		}
	}
	if !strings.Contains(sql, "secret_hash       CHAR(64) NOT NULL UNIQUE") {
		t.Fatal("secret_hash must be unique")
	}
}
