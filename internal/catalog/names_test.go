package catalog

import "testing"

func TestParseName(t *testing.T) {
	n, err := ParseName("AF02_060")
	if err != nil {
		t.Fatalf("ParseName() error = %v", err)
	}
	if n.Code != "AF02" || n.Angle != 60 || n.Category() != "AF" {
		t.Errorf("ParseName(AF02_060) = %+v", n)
	}
	if n.String() != "AF02_060" {
		t.Errorf("String() = %q", n.String())
	}

	for _, bad := range []string{"", "AF02", "af02_060", "AF2_060", "AF02-060", "AF02_60", "AF02_0600"} {
		if _, err := ParseName(bad); err == nil {
			t.Errorf("ParseName(%q) succeeded, want error", bad)
		}
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		want  string
	}{
		{"AF02_000", 1, "AF02_060"},
		{"AF02_300", 1, "AF02_000"},
		{"AF02_120", 6, "AF02_120"},
		{"AF02_000", -1, "AF02_300"},
		{"AH03_240", 2, "AH03_000"},
	}
	for _, tc := range tests {
		got, err := Rotate(tc.name, tc.steps)
		if err != nil {
			t.Fatalf("Rotate(%q, %d) error = %v", tc.name, tc.steps, err)
		}
		if got != tc.want {
			t.Errorf("Rotate(%q, %d) = %q, want %q", tc.name, tc.steps, got, tc.want)
		}
	}
	if _, err := Rotate("bogus", 1); err == nil {
		t.Error("Rotate(bogus) succeeded, want error")
	}
}

func TestCategoryColor(t *testing.T) {
	prefixes := []string{"AS", "AF", "AH", "AL", "AR", "AM", "AP", "AV", "AW"}
	for _, p := range prefixes {
		if CategoryColor(p) == White {
			t.Errorf("CategoryColor(%q) = White", p)
		}
		if CategoryName(p) == "other" {
			t.Errorf("CategoryName(%q) = other", p)
		}
	}
	if CategoryColor("QQ") != White || CategoryName("QQ") != "other" {
		t.Error("unknown prefix should map to White / other")
	}
}
