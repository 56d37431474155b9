package societies

import (
	"context"
	"errors"
	"testing"

	"shelter-partner/internal/adapters/storage/memory"
	"shelter-partner/internal/ports/docstore"
)

type brokenStore struct {
	docstore.Store
}

var errUnavailable = errors.New("unavailable")

func (brokenStore) GetDocument(ctx context.Context, path string) (docstore.Document, error) {
	return docstore.Document{}, errUnavailable
}

func TestFetchSocietyID_Found(t *testing.T) {
	store := memory.NewDocStore()
	_ = store.SetDocument(context.Background(), "Users/u-1", map[string]any{"societyID": "soc-1"})
	svc := NewService(store, nil)

	sid, err := svc.FetchSocietyID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("FetchSocietyID error: %v", err)
	}
	if sid != "soc-1" {
		t.Fatalf("expected soc-1, got %q", sid)
	}
}

func TestFetchSocietyID_NotFound(t *testing.T) {
	store := memory.NewDocStore()
	_ = store.SetDocument(context.Background(), "Users/u-empty", map[string]any{"societyID": ""})
	_ = store.SetDocument(context.Background(), "Users/u-num", map[string]any{"societyID": 42})
	_ = store.SetDocument(context.Background(), "Users/u-none", map[string]any{"name": "x"})
	svc := NewService(store, nil)

	for _, uid := range []string{"missing", "u-empty", "u-num", "u-none", ""} {
		_, err := svc.FetchSocietyID(context.Background(), uid)
		if !errors.Is(err, ErrLookupNotFound) {
			t.Fatalf("uid=%q expected ErrLookupNotFound, got %v", uid, err)
		}
		var le *LookupError
		if !errors.As(err, &le) {
			t.Fatalf("uid=%q expected *LookupError, got %T", uid, err)
		}
		if err.Error() != "SocietyID not found." {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestFetchSocietyID_StoreError(t *testing.T) {
	svc := NewService(brokenStore{}, nil)

	_, err := svc.FetchSocietyID(context.Background(), "u-1")
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if errors.Is(err, ErrLookupNotFound) {
		t.Fatalf("store failure must not look like not found")
	}
}

func TestAssignSociety_CreatesAndUpdates(t *testing.T) {
	store := memory.NewDocStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := svc.AssignSociety(ctx, "u-1", "soc-1"); err != nil {
		t.Fatalf("AssignSociety error: %v", err)
	}
	if err := svc.AssignSociety(ctx, "u-1", "soc-2"); err != nil {
		t.Fatalf("AssignSociety (update) error: %v", err)
	}

	sid, err := svc.FetchSocietyID(ctx, "u-1")
	if err != nil || sid != "soc-2" {
		t.Fatalf("expected soc-2, got %q err=%v", sid, err)
	}

	if err := svc.AssignSociety(ctx, "u-1", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.AssignSociety(ctx, "u-1", "a/b"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for slash, got %v", err)
	}
}
