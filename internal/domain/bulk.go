package domain

type BulkItemResult struct {
	Index      int
	Identifier string
	Outcome    RequestOutcome
}

type BatchStatus string

const (
	BatchSucceeded BatchStatus = "succeeded"
	BatchFailed    BatchStatus = "failed"
	BatchPartial   BatchStatus = "partial"
)

type BulkSummary struct {
	Succeeded []BulkItemResult
	Failed    []BulkItemResult
}

func (s BulkSummary) Total() int {
	return len(s.Succeeded) + len(s.Failed)
}

// Status classifies the batch. An empty batch counts as succeeded.
func (s BulkSummary) Status() BatchStatus {
	switch {
	case len(s.Failed) == 0:
		return BatchSucceeded
	case len(s.Succeeded) == 0:
		return BatchFailed
	default:
		return BatchPartial
	}
}
