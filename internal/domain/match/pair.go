package match

import "github.com/reclaimhq/reclaim/internal/domain"

// Pair is a scored query/candidate pairing handed from the match engine to
// the notification dispatcher. Order of discovery is preserved.
type Pair struct {
	Candidate domain.ItemRecord
	Result    Result
}
