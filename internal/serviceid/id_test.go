package serviceid

import (
	"testing"

	"github.com/cogrob/rorg/internal/rorgerr"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"base:roscore",
		"a/b/c:name",
		"__builtin:__operator",
		"ns-1/ns_2:my-name_1",
	}
	for _, s := range cases {
		id, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", s, err)
		}
		if got := id.String(); got != s {
			t.Errorf("round-trip mismatch: Parse(%q).String() = %q", s, got)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"name-with-no-namespace",
		":name",
		"ns:",
		"ns:bad name",
		"ns/:name",
		"ns//ns2:name",
	}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", s)
		} else if code, _ := rorgerr.ToResult(err); code != rorgerr.InvalidServiceID {
			t.Errorf("Parse(%q) expected InvalidServiceID, got %v", s, code)
		}
	}
}

func TestIsBuiltin(t *testing.T) {
	op := Operator()
	if !op.IsBuiltin() {
		t.Errorf("expected operator id to be builtin: %v", op)
	}
	other := MustParse("base:roscore")
	if other.IsBuiltin() {
		t.Errorf("expected base:roscore to not be builtin")
	}
}

func TestEqual(t *testing.T) {
	a := MustParse("ns/ns2:name")
	b := MustParse("ns/ns2:name")
	c := MustParse("ns/ns2:other")
	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}
}

func TestRequestDedupedTargets(t *testing.T) {
	r := Request{
		ID: RequestId{Issuer: MustParse("base:a"), UUID: "r1"},
		Targets: []ServiceId{
			MustParse("base:b"),
			MustParse("base:c"),
			MustParse("base:b"),
		},
	}
	got := r.DedupedTargets()
	if len(got) != 2 {
		t.Fatalf("expected 2 deduped targets, got %d: %v", len(got), got)
	}
}
