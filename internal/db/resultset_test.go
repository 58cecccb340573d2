package db

import (
	"testing"
	"time"
)

func TestNewScalar(t *testing.T) {
	cases := []struct {
		name     string
		value    any
		wantKind ScalarKind
		wantStr  string
	}{
		{"nil", nil, KindNull, "NULL"},
		{"bool", true, KindBool, "true"},
		{"int64", int64(42), KindInt, "42"},
		{"int32", int32(-7), KindInt, "-7"},
		{"float", 3.5, KindFloat, "3.5"},
		{"string", "hello", KindString, "hello"},
		{"bytes", []byte("raw"), KindString, "raw"},
		{"opaque", struct{ X int }{1}, KindOpaque, "{1}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScalar(tc.value)
			if s.Kind != tc.wantKind {
				t.Errorf("NewScalar(%v).Kind = %v, want %v", tc.value, s.Kind, tc.wantKind)
			}
			if got := s.String(); got != tc.wantStr {
				t.Errorf("NewScalar(%v).String() = %q, want %q", tc.value, got, tc.wantStr)
			}
		})
	}
}

func TestNewScalarTime(t *testing.T) {
	ts := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	s := NewScalar(ts)
	if s.Kind != KindString {
		t.Fatalf("time scalar kind = %v, want KindString", s.Kind)
	}
	if s.String() != "2024-05-17T10:30:00Z" {
		t.Errorf("time scalar = %q, want RFC3339 form", s.String())
	}
}

func TestScalarIsNull(t *testing.T) {
	if !NewScalar(nil).IsNull() {
		t.Error("nil scalar should be null")
	}
	if NewScalar("").IsNull() {
		t.Error("empty string scalar should not be null")
	}
}
