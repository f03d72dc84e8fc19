package database

import (
	"testing"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
)

func TestTablePrefixUsesNamespace(t *testing.T) {
	if prefix := TablePrefix("lunchbot"); prefix != "app_lunchbot_" {
		t.Fatalf("unexpected prefix: %q", prefix)
	}
	if prefix := TablePrefix(""); prefix != "app___" {
		t.Fatalf("unexpected default prefix: %q", prefix)
	}
}

func TestOpenSQLiteMigratesNamespacedTables(t *testing.T) {
	db, err := OpenSQLite("file::memory:", "testns", nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if !db.Migrator().HasTable("app_testns_places") {
		t.Fatal("expected namespaced places table")
	}
	if !db.Migrator().HasTable("app_testns_proposals") {
		t.Fatal("expected namespaced proposals table")
	}
	if !db.Migrator().HasTable("app_testns_identities") {
		t.Fatal("expected namespaced identities table")
	}

	if err := db.Create(&lunch.Place{ID: "place-1", Name: "Pizza Place"}).Error; err != nil {
		t.Fatalf("failed to insert place: %v", err)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("", "testns", nil); err == nil {
		t.Fatal("expected error for empty database path")
	}
}
