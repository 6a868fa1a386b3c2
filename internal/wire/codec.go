// Package wire implements the line protocol spoken with a swipl process
// over its stdin/stdout pipes. The codec builds the Prolog text written
// for a query and defines the marker vocabulary; the parser reads the
// marker lines back into a Result. The stream has no framing of its own,
// so every query carries a unique terminator line that marks the end of
// its output.
package wire

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Marker vocabulary shared by the codec (writer side) and the parser
// (reader side). These literals appear verbatim on the wire.
const (
	MarkerSuccess        = "SUCCESS"
	MarkerFailure        = "FAILURE"
	MarkerSolutionPrefix = "SOLUTION: "
	MarkerErrorPrefix    = "ERROR:"
)

// varPattern matches a Prolog variable token: an identifier starting with
// an uppercase letter. This is a lexical heuristic, not a tokenizer - it
// will misclassify quoted atoms containing capitalized words. Callers
// that need exact semantics should replace HasVariables, nothing outside
// this package depends on how classification is done.
var varPattern = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9_]*\b`)

// Query is a normalized Prolog goal ready for encoding.
type Query struct {
	Raw          string // text as submitted by the caller
	Text         string // normalized: trimmed, no "?-" prefix, ends with "."
	HasVariables bool
}

// NewQuery normalizes and classifies a raw query string.
func NewQuery(raw string) Query {
	text := Normalize(raw)
	return Query{
		Raw:          raw,
		Text:         text,
		HasVariables: varPattern.MatchString(text),
	}
}

// Normalize trims whitespace, strips a leading "?-" prompt prefix and
// guarantees a trailing period. Normalizing already-normalized text is
// a no-op.
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "?-") {
		text = strings.TrimSpace(strings.TrimPrefix(text, "?-"))
	}
	if !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text
}

// body returns the goal without its statement terminator, suitable for
// embedding inside the wrapper constructs below.
func (q Query) body() string {
	return strings.TrimSuffix(q.Text, ".")
}

// NewTerminator builds the per-query sentinel line. The counter makes
// tokens ordered and human-greppable in logs; the random suffix keeps
// them unique even across session restarts, where the counter resets.
func NewTerminator(counter uint64) string {
	id := uuid.New()
	return fmt.Sprintf("DONE_Q%d_%s", counter, hex.EncodeToString(id[:4]))
}

// groundTemplate evaluates the goal once and reports success or failure.
const groundTemplate = `(   %s ->
    write('%s\n')
;   write('%s\n')
),
write('%s\n'),
flush_output.
`

// varTemplate enumerates every solution of the goal. Each solution is
// copied and renumbered with numbervars/3 so the printed bindings do not
// depend on swipl's internal variable names, then printed on its own
// SOLUTION-prefixed line.
const varTemplate = `(   forall(
        %s,
        (   term_variables(%s, _Vars),
            copy_term(%s, _Term),
            numbervars(_Term, 0, _),
            format('%s~w~n', [_Term])
        )
    ),
    write('%s\n')
;   write('%s\n')
),
write('%s\n'),
flush_output.
`

// Encode renders the literal bytes written to the interpreter for one
// query. The output always ends with the terminator line and an explicit
// flush so the reader is guaranteed to see the full exchange.
func Encode(q Query, terminator string) string {
	if q.HasVariables {
		return fmt.Sprintf(varTemplate,
			q.body(), q.body(), q.body(),
			MarkerSolutionPrefix, MarkerSuccess, MarkerFailure, terminator)
	}
	return fmt.Sprintf(groundTemplate,
		q.body(), MarkerSuccess, MarkerFailure, terminator)
}
