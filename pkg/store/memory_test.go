package store

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/vizdeck/pkg/errors"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := &Document{Title: "dashboard", Body: []byte("blocks: []\n")}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("Put should assign an ID")
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("Put should assign timestamps")
	}

	got, err := s.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "dashboard" || string(got.Body) != "blocks: []\n" {
		t.Errorf("got %+v", got)
	}

	// Returned documents are copies.
	got.Body[0] = 'X'
	again, _ := s.Get(ctx, doc.ID)
	if again.Body[0] == 'X' {
		t.Error("Get must return an isolated copy")
	}
}

func TestMemoryStoreUpdatePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := &Document{Title: "v1"}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}
	created := doc.CreatedAt

	time.Sleep(5 * time.Millisecond)
	update := &Document{ID: doc.ID, Title: "v2"}
	if err := s.Put(ctx, update); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "v2" {
		t.Errorf("Title = %q, want v2", got.Title)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed: %v → %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.After(created) {
		t.Error("UpdatedAt should advance on update")
	}
}

func TestMemoryStoreListOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, title := range []string{"first", "second", "third"} {
		if err := s.Put(ctx, &Document{Title: title}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("len = %d, want 3", len(docs))
	}
	if docs[0].Title != "third" || docs[2].Title != "first" {
		t.Errorf("order = %q, %q, %q", docs[0].Title, docs[1].Title, docs[2].Title)
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("Get err = %v, want DOCUMENT_NOT_FOUND", err)
	}
	if err := s.Delete(ctx, "nope"); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("Delete err = %v, want DOCUMENT_NOT_FOUND", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := &Document{Title: "gone"}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, doc.ID); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("err = %v, want DOCUMENT_NOT_FOUND", err)
	}
}
