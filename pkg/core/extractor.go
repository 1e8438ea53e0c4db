package core

import "context"

// Fields are the values captured from the document being edited.
type Fields struct {
	CustomerName   string
	PackageTitle   string
	Snapshot       string
	PackageDetails Details
	HotelDetails   Details
}

// Extractor reads the current field values out of a document.
// Implementations live outside the core (see pkg/adapters/html).
type Extractor interface {
	ExtractCurrentFields(ctx context.Context) (Fields, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context) (Fields, error)

func (f ExtractorFunc) ExtractCurrentFields(ctx context.Context) (Fields, error) {
	return f(ctx)
}
