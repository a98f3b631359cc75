package idhash

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// runNamespace scopes run ids so they never collide with other SHA1 UUIDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("free-shipping-lab/run"))

// RunParams are the inputs that change the outcome of a run.
type RunParams struct {
	Seed               uint64
	SampleSize         int
	Alpha              float64
	Power              float64
	Threshold          float64
	ResponseRate       float64
	MinAdd             float64
	MaxAdd             float64
	SmallMax           float64
	MediumMax          float64
	ImplementationCost float64
	Bootstrap          int
}

// ComputeRunID computes a deterministic run_id as a name-based UUID (v5).
// Formula: UUIDv5(namespace, data_version|seed|sample|alpha|power|threshold|rate|min|max|small|medium|cost|bootstrap)
// Same data and parameters always map to the same run.
func ComputeRunID(dataVersion string, p RunParams) string {
	data := fmt.Sprintf("%s|%d|%d|%s|%s|%s|%s|%s|%s|%s|%s|%s|%d",
		dataVersion,
		p.Seed,
		p.SampleSize,
		formatFloat(p.Alpha),
		formatFloat(p.Power),
		formatFloat(p.Threshold),
		formatFloat(p.ResponseRate),
		formatFloat(p.MinAdd),
		formatFloat(p.MaxAdd),
		formatFloat(p.SmallMax),
		formatFloat(p.MediumMax),
		formatFloat(p.ImplementationCost),
		p.Bootstrap,
	)
	return uuid.NewSHA1(runNamespace, []byte(data)).String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
