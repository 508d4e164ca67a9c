// Package rules evaluates the conditional rule sets that gate libraries and
// arguments in a version descriptor against the running platform.
package rules

import (
	"regexp"
	"runtime"

	"github.com/fossabot/DropOut/internal/model"
)

// Platform describes the host the rules are evaluated against. Injectable so
// tests can pin a platform regardless of where they run.
type Platform struct {
	OS      string // "linux", "windows", "osx"
	Arch    string // "x86", "x86_64", "arm64"
	Version string // OS version string, matched by rule version regexes
}

// CurrentPlatform derives the Platform from the running process.
func CurrentPlatform() Platform {
	return Platform{OS: normalizeOS(runtime.GOOS), Arch: normalizeArch(runtime.GOARCH)}
}

func normalizeOS(goos string) string {
	// Version manifests use "osx" for macOS.
	if goos == "darwin" {
		return "osx"
	}
	return goos
}

func normalizeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

// Evaluator decides rule-set inclusion for one fixed platform.
type Evaluator struct {
	platform Platform
}

func NewEvaluator(p Platform) *Evaluator {
	return &Evaluator{platform: p}
}

// Allowed applies a rule set. No rules means allowed. Otherwise the result
// starts at false and each rule whose condition matches the platform rewrites
// it, in input order and without short-circuiting, to (action == "allow").
func (e *Evaluator) Allowed(rules []model.Rule) bool {
	if len(rules) == 0 {
		return true
	}

	allowed := false
	for _, r := range rules {
		if e.matches(r) {
			allowed = r.Action == "allow"
		}
	}
	return allowed
}

// matches reports whether a rule's condition applies to the platform.
func (e *Evaluator) matches(r model.Rule) bool {
	// Feature-gated rules (is_demo_user, quick-play flags, ...) never match:
	// feature-driven launch options are unsupported. Keeping the policy here,
	// in one place, means extending feature support touches no call sites.
	if len(r.Features) > 0 {
		return false
	}

	if r.OS == nil {
		return true
	}
	return e.osMatches(r.OS)
}

func (e *Evaluator) osMatches(os *model.OSRule) bool {
	if os.Name != "" {
		name := os.Name
		// Manifests use both spellings for macOS.
		if name == "macos" {
			name = "osx"
		}
		if name != e.platform.OS {
			return false
		}
	}
	if os.Arch != "" && os.Arch != e.platform.Arch {
		return false
	}
	if os.Version != "" {
		re, err := regexp.Compile(os.Version)
		if err != nil || !re.MatchString(e.platform.Version) {
			return false
		}
	}
	return true
}
