package element

// JobStatus is what Process (and, trivially, Open/Close) returns to the
// task scheduler per spec.md §4.3/§4.4.
type JobStatus uint8

const (
	JobOK JobStatus = iota
	JobDone
	JobTruncate
	JobFail
)

func (s JobStatus) String() string {
	switch s {
	case JobOK:
		return "OK"
	case JobDone:
		return "DONE"
	case JobTruncate:
		return "TRUNCATE"
	case JobFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}
