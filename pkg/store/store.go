// Package store provides the document library backing serve mode.
//
// Two backends implement the same contract: an in-memory store for
// single-process use and a MongoDB store for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is one stored visualization document.
type Document struct {
	// ID uniquely identifies the document. Assigned on first Put when
	// empty.
	ID string `bson:"_id" json:"id"`

	// Title is the display title.
	Title string `bson:"title" json:"title"`

	// Body is the raw YAML or JSON document source.
	Body []byte `bson:"body" json:"body"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Store is the document library contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Put inserts or replaces a document, assigning an ID and
	// timestamps as needed.
	Put(ctx context.Context, doc *Document) error

	// Get retrieves a document by ID. Missing documents fail with
	// DOCUMENT_NOT_FOUND.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns all documents, most recently updated first.
	List(ctx context.Context) ([]*Document, error)

	// Delete removes a document by ID. Deleting a missing document
	// fails with DOCUMENT_NOT_FOUND.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// stamp fills in the document's ID and timestamps for a Put.
func stamp(doc *Document, existing *Document) {
	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if existing != nil {
		doc.CreatedAt = existing.CreatedAt
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
}
