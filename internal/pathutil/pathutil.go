// Package pathutil holds the cross-cutting path rules: artifact suffix
// repair, per-family platform normalization, and the handshake match
// test. Every comparison in the core funnels through Canonical so the
// two families agree on what "the same file" means.
package pathutil

import (
	"runtime"
	"strings"
)

// Family selects the platform normalization style. FamilyA is the
// slash-based family, FamilyB the Windows-based one.
type Family string

const (
	FamilyA Family = "A"
	FamilyB Family = "B"
)

// artifactSuffixes are occasionally appended to incoming payload paths
// by host-side bugs. Stripping them is a repair heuristic for inbound
// EditorState paths only, never for paths read from the host.
var artifactSuffixes = []string{".git", ".tmp", ".bak", ".swp"}

// StripArtifactSuffix removes at most one known junk suffix.
func StripArtifactSuffix(p string) string {
	for _, suf := range artifactSuffixes {
		if strings.HasSuffix(p, suf) {
			return strings.TrimSuffix(p, suf)
		}
	}
	return p
}

// Normalize converts p to the platform shape of the given family.
func Normalize(p string, f Family) string {
	if f == FamilyB {
		return normalizeWindows(p)
	}
	return normalizeSlash(p)
}

// normalizeSlash converts to forward slashes, guarantees a leading
// slash, and collapses duplicate separators. A leading drive letter is
// stripped on non-Windows hosts, where it cannot resolve anyway.
func normalizeSlash(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")

	if runtime.GOOS != "windows" && hasDriveLetter(p) {
		p = p[2:]
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}

	return p
}

// normalizeWindows converts to backslashes and lower-cases the drive
// letter if present.
func normalizeWindows(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)

	if hasDriveLetter(p) {
		p = strings.ToLower(p[:1]) + p[1:]
	}

	return p
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Canonical folds a path into the form used for equality and prefix
// tests: forward slashes, lower case, no trailing slash.
func Canonical(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.ToLower(p)
	p = strings.TrimRight(p, "/")
	return p
}

// Match reports whether two project paths belong to the same sync
// group: after canonicalization, either path may be a prefix of the
// other. The prefix rule admits multi-root workspaces whose listed root
// is a parent of the other side's.
func Match(a, b string) bool {
	ca, cb := Canonical(a), Canonical(b)
	if ca == "" || cb == "" {
		return false
	}
	return strings.HasPrefix(ca, cb) || strings.HasPrefix(cb, ca)
}

// IsLocalPath reports whether p lives on the local file protocol.
// Virtual documents arrive as scheme-prefixed URIs (output:, git:,
// untitled:); plain absolute paths and file:// URIs pass.
func IsLocalPath(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "file://") {
		return true
	}

	idx := strings.Index(p, ":")
	if idx < 0 {
		return true
	}
	// A single letter before ':' is a Windows drive, not a scheme.
	if idx == 1 && hasDriveLetter(p) {
		return true
	}
	return false
}

// LocalPath strips the file:// prefix when present. Callers should have
// checked IsLocalPath first.
func LocalPath(p string) string {
	return strings.TrimPrefix(p, "file://")
}
