// Package gallery tracks generated posters for the HTTP service.
//
// Two backends exist: DirStore, which treats the output directory
// itself as the source of truth, and MongoStore, which keeps richer
// metadata in a collection for multi-instance deployments.
package gallery

import (
	"context"
	"time"
)

// Poster is one gallery entry. DirStore entries carry only what the
// filesystem knows; Mongo entries keep the full generation metadata.
type Poster struct {
	Filename string    `json:"filename" bson:"filename"`
	City     string    `json:"city,omitempty" bson:"city,omitempty"`
	Country  string    `json:"country,omitempty" bson:"country,omitempty"`
	Theme    string    `json:"theme,omitempty" bson:"theme,omitempty"`
	Size     int64     `json:"size_bytes" bson:"size_bytes"`
	Created  time.Time `json:"created_at" bson:"created_at"`
}

// Store lists and records posters, newest first.
type Store interface {
	Add(ctx context.Context, p Poster) error
	List(ctx context.Context) ([]Poster, error)
	Close(ctx context.Context) error
}
