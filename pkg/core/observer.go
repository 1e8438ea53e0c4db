package core

import "time"

// Operation names reported to an Observer.
const (
	OpList    = "list"
	OpGet     = "get"
	OpFind    = "find"
	OpUpsert  = "upsert"
	OpRename  = "rename"
	OpReplace = "replace"
	OpDelete  = "delete"
)

// Observer receives store telemetry. See pkg/metrics for the Prometheus implementation.
type Observer interface {
	// OperationDone is called once per public operation.
	OperationDone(op string, err error, elapsed time.Duration)
	// SlotCorrupted is called when stored data could not be decoded and was treated as empty.
	SlotCorrupted(key string)
	// WriteConflict is called each time a compare-and-set attempt loses a race.
	WriteConflict(key string)
}

type nopObserver struct{}

func (nopObserver) OperationDone(string, error, time.Duration) {}
func (nopObserver) SlotCorrupted(string)                       {}
func (nopObserver) WriteConflict(string)                       {}
