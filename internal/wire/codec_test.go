package wire

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare atom gets period", "true", "true."},
		{"already terminated", "true.", "true."},
		{"prompt prefix stripped", "?- member(X, [a]).", "member(X, [a])."},
		{"prompt without period", "?- halt", "halt."},
		{"surrounding whitespace", "  foo(bar).  ", "foo(bar)."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"true", "?- true.", "  member(X, [a,b])  "} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "normalizing %q twice", raw)
	}
}

func TestQueryClassification(t *testing.T) {
	cases := []struct {
		query   string
		hasVars bool
	}{
		{"assert(parent(tom, bob)).", false},
		{"parent(tom, bob).", false},
		{"parent(tom, X).", true},
		{"member(Elem, [1,2,3]).", true},
		{"append([1], [2], _Rest).", false}, // underscore-led is not a var token here
		{"atom_length(hello, N).", true},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			q := NewQuery(tc.query)
			assert.Equal(t, tc.hasVars, q.HasVariables)
		})
	}
}

func TestNewTerminator(t *testing.T) {
	pattern := regexp.MustCompile(`^DONE_Q7_[0-9a-f]{8}$`)
	tok := NewTerminator(7)
	assert.Regexp(t, pattern, tok)

	// Same counter must still differ across calls.
	assert.NotEqual(t, tok, NewTerminator(7))
}

func TestEncodeGround(t *testing.T) {
	q := NewQuery("assert(parent(tom, bob)).")
	out := Encode(q, "DONE_Q1_deadbeef")

	assert.Contains(t, out, "assert(parent(tom, bob)) ->")
	assert.Contains(t, out, "write('SUCCESS\\n')")
	assert.Contains(t, out, "write('FAILURE\\n')")
	assert.Contains(t, out, "write('DONE_Q1_deadbeef\\n')")
	assert.Contains(t, out, "flush_output.")
	assert.NotContains(t, out, "forall")

	// The goal's own period must not survive inside the wrapper.
	assert.NotContains(t, out, "bob)).")
}

func TestEncodeVariables(t *testing.T) {
	q := NewQuery("parent(tom, X).")
	out := Encode(q, "DONE_Q2_cafebabe")

	assert.Contains(t, out, "forall(")
	assert.Contains(t, out, "term_variables(parent(tom, X), _Vars)")
	assert.Contains(t, out, "copy_term(parent(tom, X), _Term)")
	assert.Contains(t, out, "numbervars(_Term, 0, _)")
	assert.Contains(t, out, "format('SOLUTION: ~w~n', [_Term])")
	assert.Contains(t, out, "write('DONE_Q2_cafebabe\\n')")
	assert.True(t, strings.HasSuffix(out, "flush_output.\n"))
}
