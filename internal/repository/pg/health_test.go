package pg

import (
	"context"
	"os"
	"testing"
)

// Runs against a real server when API_TEST_DATABASE_URL is set.
func TestHealthRepository(t *testing.T) {
	url := os.Getenv("API_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("API_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	repo := NewHealthRepository(db)
	if err := repo.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	details, err := repo.Describe(ctx)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if details["server_version"] == "" {
		t.Fatalf("expected server version, got %v", details)
	}
}

func TestNewDBRejectsBadURL(t *testing.T) {
	if _, err := NewDB(context.Background(), "postgres://%zz"); err == nil {
		t.Fatal("expected parse error")
	}
}
