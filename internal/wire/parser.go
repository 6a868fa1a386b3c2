package wire

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angrysky56/docker-swish-mcp/internal/logging"
)

// ErrTimeout is returned alongside the "timed out" Result when the
// per-query deadline elapses before the terminator is seen. The session
// uses it to flag the stream as desynchronized; the process itself is
// not assumed dead.
var ErrTimeout = errors.New("query timed out")

// LineReader yields one line of interpreter output per call, without the
// trailing newline. ReadLine is the suspension point of an exchange: it
// must honor ctx cancellation and deadline.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Parse consumes output lines until the terminator for this query is
// observed and finalizes them into a Result.
//
// A non-nil error means the exchange itself broke: ErrTimeout for a
// deadline expiry, anything else for a transport failure (pipe closed,
// process gone). Protocol-level outcomes, including interpreter errors,
// come back as a Result with a nil error.
func Parse(ctx context.Context, r LineReader, terminator string) (Result, error) {
	var (
		success   bool
		solutions []string
		stray     []string
	)

	for {
		line, err := r.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return ErrorResult("timed out"), ErrTimeout
			}
			return Result{}, err
		}

		line = strings.TrimRight(line, "\r")
		switch {
		case line == terminator:
			return finalize(success, solutions, stray), nil
		case line == MarkerSuccess:
			success = true
		case line == MarkerFailure:
			success = false
		case strings.HasPrefix(line, MarkerSolutionPrefix):
			solutions = append(solutions, strings.TrimPrefix(line, MarkerSolutionPrefix))
		case strings.HasPrefix(line, MarkerErrorPrefix):
			// A runtime error aborts the wrapper before it can print the
			// terminator, so finalize immediately instead of waiting for
			// a line that may never arrive.
			logging.WireDebug("interpreter error line: %s", line)
			return ErrorResult(line), nil
		case strings.TrimSpace(line) == "":
			// swipl pads error reports with blank lines; ignore.
		default:
			// Unrecognized output. Keep draining to the terminator so the
			// next query starts on a clean stream, then report it.
			logging.WireDebug("unrecognized output line: %q", line)
			stray = append(stray, line)
		}
	}
}

// finalize applies the result policy: collected solutions win over the
// trailing success/failure marker, an empty solution set is a plain
// failure, and any stray output poisons the exchange because the markers
// around it can no longer be trusted.
func finalize(success bool, solutions, stray []string) Result {
	if len(stray) > 0 {
		return ErrorResult(fmt.Sprintf("unrecognized output line: %q", stray[0]))
	}
	if len(solutions) > 0 {
		return SolutionsResult(solutions)
	}
	if success {
		return SuccessResult()
	}
	return FailureResult()
}
