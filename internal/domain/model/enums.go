package model

// ResourceKind identifies which directory resource an update targets.
type ResourceKind string

const (
	ResourceUser  ResourceKind = "user"
	ResourceGroup ResourceKind = "group"
)

// UpdateState is a step of the per-resource read-modify-write-verify machine.
type UpdateState string

const (
	StateIdle         UpdateState = "idle"
	StateFetching     UpdateState = "fetching"
	StateFetchFailed  UpdateState = "fetch_failed"
	StateFetched      UpdateState = "fetched"
	StateTransforming UpdateState = "transforming"
	StateSubmitting   UpdateState = "submitting"
	StateSubmitFailed UpdateState = "submit_failed"
	StateSubmitted    UpdateState = "submitted"
	StateVerifying    UpdateState = "verifying"
	StateVerifyFailed UpdateState = "verify_failed"
	StateVerified     UpdateState = "verified"
)

// Terminal reports whether no further transition follows s.
func (s UpdateState) Terminal() bool {
	switch s {
	case StateFetchFailed, StateSubmitFailed, StateVerifyFailed, StateVerified:
		return true
	}
	return false
}

// FailureCause classifies why an update did not reach StateVerified.
type FailureCause string

const (
	CauseNone         FailureCause = ""
	CauseFetchFailed  FailureCause = "fetch_failed"
	CauseAPIError     FailureCause = "api_error"
	CauseUnexpected   FailureCause = "unexpected"
	CauseVerifyFailed FailureCause = "verify_failed"
)

// RunMode names the workflow a recorded run belongs to.
type RunMode string

const RunModeUpdate RunMode = "update"
