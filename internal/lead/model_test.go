package lead

import (
	"context"
	"testing"
)

func TestInfoMerge(t *testing.T) {
	base := Info{Name: "John Smith", Email: "john@acme.com"}

	merged := base.Merge(Info{Phone: "5551234567"})
	if merged.Name != "John Smith" {
		t.Errorf("Name dropped during merge: %q", merged.Name)
	}
	if merged.Email != "john@acme.com" {
		t.Errorf("Email dropped during merge: %q", merged.Email)
	}
	if merged.Phone != "5551234567" {
		t.Errorf("Phone = %q, want 5551234567", merged.Phone)
	}
}

func TestInfoMergeOverlaysNewerValues(t *testing.T) {
	base := Info{Email: "old@acme.com"}
	merged := base.Merge(Info{Email: "new@acme.com"})
	if merged.Email != "new@acme.com" {
		t.Errorf("Email = %q, want new@acme.com", merged.Email)
	}
}

func TestInfoMergeEmptyNeverDrops(t *testing.T) {
	base := Info{Name: "Jane", Company: "Acme", PainPoint: "manual reporting"}
	merged := base.Merge(Info{})
	if merged != base {
		t.Errorf("merge with zero Info changed fields: %+v", merged)
	}
}

func TestInMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	rec, err := repo.Create(ctx, "sess-1", Info{Name: "John Smith", Email: "john@acme.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Create returned empty ID")
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Info.Name != "John Smith" {
		t.Errorf("Name = %q", got.Info.Name)
	}

	bySess, err := repo.GetBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if bySess.ID != rec.ID {
		t.Errorf("GetBySession returned different record: %s vs %s", bySess.ID, rec.ID)
	}
}

func TestInMemoryRepositoryReQualifyUpdates(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, _ := repo.Create(ctx, "sess-1", Info{Name: "John"})
	second, err := repo.Create(ctx, "sess-1", Info{Phone: "5551234567"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-qualification created a new record: %s vs %s", second.ID, first.ID)
	}
	if second.Info.Name != "John" || second.Info.Phone != "5551234567" {
		t.Errorf("merged info wrong: %+v", second.Info)
	}
}

func TestInMemoryRepositoryNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetBySession(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
