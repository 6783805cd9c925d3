package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, Date = "v0.3.0", "abc123", "2026-01-02"
	t.Cleanup(func() { Version, Commit, Date = "dev", "unknown", "unknown" })

	if got := String(); got != "v0.3.0 (abc123, 2026-01-02)" {
		t.Errorf("String() = %q", got)
	}
}
