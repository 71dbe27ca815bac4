package results

// OperationResult is a success/failure union returned by service operations.
// Exactly one of Success or Failure is set for a completed operation; both
// nil means the operation aborted with an infrastructure error.
//
// S is the success payload type, F the domain-failure payload type. Domain
// failures are expected outcomes (validation, state guards) and travel here
// rather than through the error return, which is reserved for infrastructure
// problems.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// FailureResult wraps a domain-failure payload.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

// IsSuccess reports whether the result carries a success payload.
func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

// IsFailure reports whether the result carries a failure payload.
func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }
