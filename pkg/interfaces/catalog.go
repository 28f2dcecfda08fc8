package interfaces

import "context"

// SpecInfo describes one API specification listed for a product
type SpecInfo struct {
	// Attributes carries the catalog's metadata for the spec (title, version, ...)
	Attributes map[string]interface{}

	// SpecLocation is the path used to fetch the raw document
	SpecLocation string
}

// Catalog lists products and serves raw API specification documents
type Catalog interface {
	// ListProducts lists the product names available in the catalog
	ListProducts(ctx context.Context) ([]string, error)

	// ListSpecs lists the specifications published for a product
	ListSpecs(ctx context.Context, product string) ([]SpecInfo, error)

	// GetSpecContent fetches the raw text of one specification
	GetSpecContent(ctx context.Context, product, specPath string) (string, error)
}

// SpecCache serves raw specification documents, caching them for a bounded time
type SpecCache interface {
	// Get returns the raw text for (product, specPath), fetching it from the
	// catalog when no fresh cached copy exists
	Get(ctx context.Context, product, specPath string) (string, error)
}

// TokenSource supplies bearer tokens for authenticated backend calls
type TokenSource interface {
	// Token returns a valid bearer token, acquiring or refreshing one if needed
	Token(ctx context.Context) (string, error)

	// Invalidate discards the stored token so the next call forces a fresh exchange
	Invalidate()
}
