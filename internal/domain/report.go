package domain

type Bucket string

const (
	BucketCompleted Bucket = "COMPLETED"
	BucketCurrent   Bucket = "CURRENT"
	BucketDropped   Bucket = "DROPPED"
	BucketPlanning  Bucket = "PLANNING"
	BucketNotOnList Bucket = "NOT ON LIST"
)

// BucketOrder is the fixed display order of report buckets.
var BucketOrder = []Bucket{
	BucketCompleted,
	BucketCurrent,
	BucketDropped,
	BucketPlanning,
	BucketNotOnList,
}

type BucketLines struct {
	Bucket Bucket
	Lines  []string
}

// AggregateReport is the roster-wide view of one media. Buckets are ordered
// by BucketOrder and never empty. The average is only meaningful when
// Contributors is positive.
type AggregateReport struct {
	Media        MediaRef
	Average      float64
	Contributors int
	Buckets      []BucketLines
}

func (r AggregateReport) HasAverage() bool {
	return r.Contributors > 0
}

// AverageInt truncates the average for display.
func (r AggregateReport) AverageInt() int {
	return int(r.Average)
}

func (r AggregateReport) Lines(bucket Bucket) []string {
	for _, b := range r.Buckets {
		if b.Bucket == bucket {
			return b.Lines
		}
	}
	return nil
}

func (r AggregateReport) TotalLines() int {
	total := 0
	for _, b := range r.Buckets {
		total += len(b.Lines)
	}
	return total
}
