package version

import (
	"strings"
	"testing"
)

func TestFull(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "dev"
	if got := Full(); got != "racelink version dev (built from source)" {
		t.Errorf("Full() = %q", got)
	}

	Version = "1.2.3"
	if got := Full(); got != "racelink version 1.2.3" {
		t.Errorf("Full() = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "racelink/") {
		t.Errorf("UserAgent() = %q, want racelink/ prefix", ua)
	}
	if !strings.Contains(ua, "github.com/racedaylabs/racelink") {
		t.Errorf("UserAgent() missing project URL: %q", ua)
	}
}
