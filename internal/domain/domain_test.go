package domain

import (
	"math"
	"testing"
	"time"
)

func TestAge_BirthdayBoundary(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{name: "exactly sixteen", dob: time.Date(2008, 6, 15, 0, 0, 0, 0, time.UTC), want: 16},
		{name: "one day short", dob: time.Date(2008, 6, 16, 0, 0, 0, 0, time.UTC), want: 15},
		{name: "earlier month", dob: time.Date(2008, 1, 31, 0, 0, 0, 0, time.UTC), want: 16},
		{name: "later month", dob: time.Date(2008, 7, 1, 0, 0, 0, 0, time.UTC), want: 15},
		{name: "leap day", dob: time.Date(2004, 2, 29, 0, 0, 0, 0, time.UTC), want: 20},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Age(today, tt.dob); got != tt.want {
				t.Fatalf("Age(%s)=%d want=%d", tt.dob.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	if got := ParseDate("2000-02-03"); got == nil || !got.Equal(time.Date(2000, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ParseDate(date)=%v", got)
	}
	if got := ParseDate("2000-02-03T10:11:12Z"); got == nil || !got.Equal(time.Date(2000, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ParseDate(rfc3339)=%v", got)
	}
	for _, in := range []string{"", "  ", "not a date", "2000-13-40"} {
		if got := ParseDate(in); got != nil {
			t.Fatalf("ParseDate(%q)=%v want nil", in, got)
		}
	}
}

func TestParseInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want *int
	}{
		{in: "94110", want: intPtr(94110)},
		{in: " 2020 ", want: intPtr(2020)},
		{in: float64(2019), want: intPtr(2019)},
		{in: float64(20.5), want: nil},
		{in: "", want: nil},
		{in: "12ab", want: nil},
		{in: nil, want: nil},
		{in: true, want: nil},
		{in: float64(1e300), want: nil},
		{in: math.Inf(1), want: nil},
		{in: "99999999999", want: nil},
		{in: int64(1) << 40, want: nil},
		{in: float64(math.MaxInt32), want: intPtr(math.MaxInt32)},
		{in: "-2147483648", want: intPtr(math.MinInt32)},
	}
	for _, tt := range tests {
		got := ParseInt(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Fatalf("ParseInt(%#v)=%d want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Fatalf("ParseInt(%#v)=%v want %d", tt.in, got, *tt.want)
		}
	}
}

func TestParseRelationship(t *testing.T) {
	t.Parallel()

	if r := ParseRelationship("Spouse"); r == nil || *r != RelationshipSpouse {
		t.Fatalf("ParseRelationship(Spouse)=%v", r)
	}
	if r := ParseRelationship(" friend "); r == nil || *r != RelationshipFriend {
		t.Fatalf("ParseRelationship(friend)=%v", r)
	}
	if r := ParseRelationship(""); r != nil {
		t.Fatalf("ParseRelationship(blank)=%v want nil", *r)
	}
	if r := ParseRelationship("Cousin"); r != nil {
		t.Fatalf("ParseRelationship(Cousin)=%v want nil", *r)
	}
}

func TestApplication_HasData(t *testing.T) {
	t.Parallel()

	if (Application{}).HasData() {
		t.Fatalf("empty application reported data")
	}
	if !(Application{Member: &Member{FirstName: "A"}}).HasData() {
		t.Fatalf("member name not detected")
	}
	if (Application{Member: &Member{}, Address: &Address{}}).HasData() {
		t.Fatalf("blank relations reported data")
	}
	if !(Application{Vehicles: []Vehicle{{}}}).HasData() {
		t.Fatalf("vehicle row not detected")
	}
}

func intPtr(n int) *int { return &n }
