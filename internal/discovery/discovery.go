// Package discovery walks a directory tree to find version-controlled
// repositories and the environment files inside them.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jenian/envsync/internal/gitignore"
)

// DefaultMaxDepth bounds how deep FindRepositories descends below the root.
const DefaultMaxDepth = 5

// EnvFileNames is the fixed set of environment filenames recognized directly
// under a repository root, in the order candidates are reported.
var EnvFileNames = []string{".env", ".dev.vars", ".env.local", ".env.production"}

// Repo is a discovered repository root.
type Repo struct {
	Path  string
	Depth int
}

// EnvFile is an environment file found under a repository root.
type EnvFile struct {
	Path     string
	Filename string
	Ignored  bool
}

// FindRepositories recursively scans root for directories containing a .git
// entry, descending at most maxDepth levels. Hidden directories, vendor
// directories, any directory named in skipDirs, and symlinks are skipped.
// Directory listing failures do not abort the walk: the affected subtree
// contributes nothing and a warning is recorded instead.
func FindRepositories(root string, maxDepth int, skipDirs ...string) ([]Repo, []string) {
	skip := map[string]bool{"node_modules": true, "vendor": true}
	for _, d := range skipDirs {
		skip[d] = true
	}

	var repos []Repo
	var warnings []string
	walk(root, 0, maxDepth, skip, &repos, &warnings)
	return repos, warnings
}

func walk(dir string, depth, maxDepth int, skip map[string]bool, repos *[]Repo, warnings *[]string) {
	if depth > maxDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("skipping %s: %v", dir, err))
		return
	}

	for _, entry := range entries {
		name := entry.Name()

		if name == ".git" && entry.IsDir() {
			*repos = append(*repos, Repo{Path: dir, Depth: depth})
			continue
		}
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".") || skip[name] {
			continue
		}

		// Skip symlinked directories so the walk cannot cycle or escape
		// into unrelated trees.
		sub := filepath.Join(dir, name)
		info, err := os.Lstat(sub)
		if err != nil || info.Mode()&os.ModeSymlink != 0 {
			continue
		}

		walk(sub, depth+1, maxDepth, skip, repos, warnings)
	}
}

// FindEnvFiles checks the repository root for each recognized env filename
// and tags present ones with their version-control ignore status.
func FindEnvFiles(repoPath string, oracle gitignore.Oracle) []EnvFile {
	var files []EnvFile
	for _, name := range EnvFileNames {
		path := filepath.Join(repoPath, name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		files = append(files, EnvFile{
			Path:     path,
			Filename: name,
			Ignored:  oracle.IsIgnored(repoPath, name),
		})
	}
	return files
}
