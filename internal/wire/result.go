package wire

// ResultType tags the variant of a query Result.
type ResultType string

const (
	ResultSolutions     ResultType = "solutions"
	ResultSimpleSuccess ResultType = "simple_success"
	ResultFailure       ResultType = "failure"
	ResultError         ResultType = "error"
)

// Result is the typed outcome of one query exchange. Exactly one variant
// is populated: Solutions for variable-bearing queries with at least one
// binding, SimpleSuccess/Failure for ground outcomes, Error for
// interpreter or protocol level failures.
type Result struct {
	Type      ResultType `json:"type"`
	Solutions []string   `json:"solutions,omitempty"`
	Err       string     `json:"error,omitempty"`
}

// OK reports whether the query succeeded (with or without bindings).
func (r Result) OK() bool {
	return r.Type == ResultSolutions || r.Type == ResultSimpleSuccess
}

func SolutionsResult(solutions []string) Result {
	return Result{Type: ResultSolutions, Solutions: solutions}
}

func SuccessResult() Result {
	return Result{Type: ResultSimpleSuccess}
}

func FailureResult() Result {
	return Result{Type: ResultFailure}
}

func ErrorResult(msg string) Result {
	return Result{Type: ResultError, Err: msg}
}
