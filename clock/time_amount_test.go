package clock

import (
	"testing"
	"time"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		name string
		got  TimeAmount
		want int64
	}{
		{"ns", Nanoseconds(5), 5},
		{"us", Microseconds(5), 5 * int64(time.Microsecond)},
		{"ms", Milliseconds(5), 5 * int64(time.Millisecond)},
		{"s", Seconds(5), 5 * int64(time.Second)},
		{"min", Minutes(5), 5 * int64(time.Minute)},
		{"h", Hours(5), 5 * int64(time.Hour)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.got.Ns() != c.want {
				t.Fatalf("got %d, want %d", c.got.Ns(), c.want)
			}
		})
	}
}

func TestOrdering(t *testing.T) {
	a := Milliseconds(10)
	b := Milliseconds(20)

	if !a.Less(b) {
		t.Fatal("expected a < b")
	}
	if b.Less(a) {
		t.Fatal("expected b >= a")
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Fatal("unexpected Compare result")
	}
}

func TestArithmetic(t *testing.T) {
	a := Milliseconds(10)
	b := Milliseconds(5)

	if a.Add(b) != Milliseconds(15) {
		t.Fatal("Add mismatch")
	}
	if a.Sub(b) != Milliseconds(5) {
		t.Fatal("Sub mismatch")
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := 42 * time.Millisecond
	if FromDuration(d).Duration() != d {
		t.Fatal("round trip through Duration failed")
	}
}
