// ABOUTME: Tests for version constants
// ABOUTME: Ensures product identification is defined and printable
package version

import (
	"strings"
	"testing"
)

func TestIdentificationDefined(t *testing.T) {
	placeholders := []string{"", "TODO", "FIXME", "XXX", "placeholder"}

	fields := map[string]string{
		"Version":      Version,
		"Product":      Product,
		"Manufacturer": Manufacturer,
	}

	for name, value := range fields {
		t.Run(name, func(t *testing.T) {
			for _, p := range placeholders {
				if value == p {
					t.Errorf("%s should not be %q", name, p)
				}
			}
			if len(value) > 100 {
				t.Errorf("%s is unreasonably long", name)
			}
		})
	}
}

func TestVersionIsSemver(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("Version %q is not major.minor.patch", Version)
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			t.Errorf("Version %q has non-numeric part %q", Version, p)
		}
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, want := range []string{Product, Version, GitCommit, BuildDate} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
