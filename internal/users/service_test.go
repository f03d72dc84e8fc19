package users

import (
	"context"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache DSN keeps every pooled connection on one database.
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Identity{}); err != nil {
		t.Fatalf("failed to migrate identity schema: %v", err)
	}
	return db
}

func TestFindBySlackIDReturnsNilWhenAbsent(t *testing.T) {
	service, err := NewService(ServiceConfig{Database: openTestDatabase(t)})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	identity, err := service.FindBySlackID(context.Background(), "U12345")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected nil identity for unknown slack id, got %+v", identity)
	}
}

func TestCreateThenFindReturnsSameIdentity(t *testing.T) {
	service, err := NewService(ServiceConfig{Database: openTestDatabase(t)})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	created, err := service.Create(context.Background(), "U12345")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" || created.Secret == "" {
		t.Fatalf("expected generated id and credential, got %+v", created)
	}

	found, err := service.FindBySlackID(context.Background(), "U12345")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected identity %q, got %+v", created.ID, found)
	}
}

func TestCreateRejectsDuplicateSlackID(t *testing.T) {
	service, err := NewService(ServiceConfig{Database: openTestDatabase(t)})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if _, err := service.Create(context.Background(), "U12345"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := service.Create(context.Background(), "U12345"); err == nil {
		t.Fatal("expected unique index violation for duplicate slack id")
	}
}

func TestFindBySlackIDRejectsEmptyID(t *testing.T) {
	service, err := NewService(ServiceConfig{Database: openTestDatabase(t)})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if _, err := service.FindBySlackID(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank slack id")
	}
}
