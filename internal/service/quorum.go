package service

import (
	"context"

	"github.com/openassess/grading-controller/internal/repository"
)

// QuorumSource supplies the peer-review quorum threshold. It is read at
// evaluation time so operators can retune it without redeploying the engine;
// changing it never re-finalizes already-finished submissions.
type QuorumSource func() int

// PeerQuorum counts successful peer grades for a submission. Pure read, no
// side effects.
type PeerQuorum struct {
	graders repository.GraderRepository
}

// NewPeerQuorum constructs the evaluator.
func NewPeerQuorum(graders repository.GraderRepository) PeerQuorum {
	return PeerQuorum{graders: graders}
}

// SuccessfulPeerGradeCount returns the number of successful peer grade records
// attached to the submission.
func (q PeerQuorum) SuccessfulPeerGradeCount(ctx context.Context, submissionID uint) (int64, error) {
	count, err := q.graders.CountSuccessfulPeerGrades(ctx, submissionID)
	if err != nil {
		return 0, &StoreError{Op: "count successful peer grades", Err: err}
	}

	return count, nil
}

// QuorumReached reports whether a successful-peer-grade count satisfies the
// threshold.
func QuorumReached(count int64, threshold int) bool {
	return count >= int64(threshold)
}
