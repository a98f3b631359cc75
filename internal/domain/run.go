package domain

// RunRecord is the metadata of one pipeline run.
// Corresponds to the experiment_runs table.
type RunRecord struct {
	RunID       string // deterministic from data version and parameters
	DataVersion string // hash of the loaded orders
	Seed        uint64
	Orders      int    // orders loaded
	SampleSize  int    // orders assigned to a group
	Decision    string // decision gate verdict
	Strategy    string // preferred rollout strategy
	CreatedAt   int64  // unix ms
}
