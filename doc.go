// Package itt is the composition root of the itinerary record store.
//
// A travel agent builds an itinerary page; itt extracts the customer name,
// package title and package and hotel details from it and keeps one record
// per (customer, package) pair. All records live as a JSON array in a single
// slot of a key-value provider: a directory of JSON files (optionally
// versioned with git), MongoDB, PostgreSQL or memory.
//
// The core (pkg/core) only knows the KV port. Providers that support
// compare-and-set or locking are used to make read-modify-write cycles safe
// across processes.
//
// Usage:
//
//	inst, err := itt.New(ctx, "./data", itt.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer inst.Close()
//
//	id, err := inst.Store.Upsert(ctx, itt.UpsertInput{
//		CustomerName: "Alice",
//		PackageTitle: "Dubai 5N",
//	})
package itt
