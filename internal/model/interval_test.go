package model

import (
	"testing"
	"time"
)

func TestParseInterval_Labels(t *testing.T) {
	cases := []struct {
		in   string
		want Interval
	}{
		{"1m", M1}, {"5m", M5}, {"15m", M15}, {"30m", M30}, {"1h", H1}, {"1d", D1},
		{"  5M ", M5}, // case and whitespace insensitive
		{"300s", M5},  // duration fallback
		{"90s", Interval(90)},
	}
	for _, tc := range cases {
		got, err := ParseInterval(tc.in)
		if err != nil {
			t.Fatalf("ParseInterval(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseInterval(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseInterval_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-5m", "0s"} {
		if _, err := ParseInterval(in); err == nil {
			t.Errorf("ParseInterval(%q): expected error", in)
		}
	}
}

func TestInterval_Bucket(t *testing.T) {
	// 5m buckets land on :00/:05/:10...
	ts := time.Date(2024, 3, 1, 10, 7, 42, 0, time.UTC)
	b := M5.Bucket(ts)
	want := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC).Unix()
	if b != want {
		t.Fatalf("Bucket = %d, want %d", b, want)
	}

	// A timestamp exactly on the boundary is its own bucket start.
	edge := time.Date(2024, 3, 1, 10, 10, 0, 0, time.UTC)
	if M5.Bucket(edge) != edge.Unix() {
		t.Errorf("boundary timestamp should start its own bucket")
	}

	// Bucket start is always <= ts and within one interval.
	if d := ts.Unix() - b; d < 0 || d >= int64(M5) {
		t.Errorf("bucket offset %d out of range", d)
	}
}

func TestInterval_String(t *testing.T) {
	if M5.String() != "5m" {
		t.Errorf("M5.String() = %q", M5.String())
	}
	if Interval(90).String() != "90s" {
		t.Errorf("Interval(90).String() = %q", Interval(90).String())
	}
}
