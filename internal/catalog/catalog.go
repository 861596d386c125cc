// Package catalog defines the boundary to the external game catalog.
//
// The rest of the application only sees Entry and Gateway; the provider's
// wire format stays inside the implementation package (see catalog/rawg).
package catalog

import "context"

// PageSize caps the number of entries a search returns.
const PageSize = 12

// Entry is the subset of a catalog title this application consumes.
type Entry struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	BackgroundImage *string `json:"background_image"`
	Released        *string `json:"released"`
}

// Gateway looks titles up in the external catalog.
//
// Implementations fail with apperror.ErrCatalogUnavailable on any transport,
// status or decoding problem, and never return a partial result.
// FetchByID fails with apperror.ErrCatalogNotFound for unknown ids.
type Gateway interface {
	Search(ctx context.Context, query string) ([]Entry, error)
	FetchByID(ctx context.Context, externalID int64) (*Entry, error)
}
