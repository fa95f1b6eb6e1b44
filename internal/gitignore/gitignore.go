// Package gitignore answers whether a file inside a repository is excluded
// from version control.
package gitignore

import (
	"os/exec"
)

// Oracle reports whether filename is ignored inside the repository rooted at
// repoRoot. Implementations must never fail the caller: any error is reported
// as "not ignored", which is the conservative answer (an unignored env file
// produces a warning, a wrongly-ignored one would be silent).
type Oracle interface {
	IsIgnored(repoRoot, filename string) bool
}

// GitOracle consults git itself via `git check-ignore`.
type GitOracle struct{}

// IsIgnored returns true only when git reports the path as ignored
// (check-ignore exits 0). A missing git binary, a non-repo directory, or any
// other failure all report false.
func (GitOracle) IsIgnored(repoRoot, filename string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", filename)
	cmd.Dir = repoRoot
	return cmd.Run() == nil
}

// StaticOracle answers from a fixed set, for tests. Keys are
// repoRoot + "/" + filename.
type StaticOracle map[string]bool

func (o StaticOracle) IsIgnored(repoRoot, filename string) bool {
	return o[repoRoot+"/"+filename]
}
