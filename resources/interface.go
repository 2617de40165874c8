package resources

import "context"

// Collector discovers virtual machines and returns them as normalized records
type Collector interface {
	// Collect lists and enriches every VM visible to the collector.
	// A listing failure is returned as an error, never as an empty Inventory.
	Collect(ctx context.Context) (Inventory, error)
}
