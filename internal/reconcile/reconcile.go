// Package reconcile implements the scan: it walks local repositories, parses
// their environment files, and classifies each (repository, file,
// environment) tuple against the central store as OK, DIFF or NEW.
package reconcile

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/codec"
	"github.com/jenian/envsync/internal/discovery"
	"github.com/jenian/envsync/internal/envfile"
	"github.com/jenian/envsync/internal/gitignore"
	"github.com/jenian/envsync/internal/index"
	"github.com/jenian/envsync/internal/store"
)

// Status classifies one scanned tuple.
type Status string

const (
	// StatusOK means every local key exists remotely with an equivalent
	// value and there are no remote-only keys.
	StatusOK Status = "OK"
	// StatusDiff means local and remote state have drifted apart.
	StatusDiff Status = "DIFF"
	// StatusNew means the local file has no remote counterpart at all.
	StatusNew Status = "NEW"
)

// Result is the classification of one (repository, file, environment) tuple.
// Immutable once created.
type Result struct {
	Status      Status `json:"status"`
	Repo        string `json:"repo"`
	File        string `json:"file"`
	Environment string `json:"environment"`
	LocalKeys   int    `json:"localKeys"`
	Ignored     bool   `json:"ignored"`
}

// EnvironmentDisplay renders the environment for reports, naming the default
// namespace explicitly.
func (r Result) EnvironmentDisplay() string {
	if r.Environment == "" {
		return "(default)"
	}
	return r.Environment
}

// Report is the outcome of one scan invocation.
type Report struct {
	Results  []Result `json:"results"`
	OK       int      `json:"ok"`
	Diff     int      `json:"diff"`
	New      int      `json:"new"`
	Warnings []string `json:"warnings,omitempty"`
}

// Scanner runs read-only reconciliation scans against one central namespace.
type Scanner struct {
	Store     store.Store
	Oracle    gitignore.Oracle
	Logger    *zap.Logger
	Namespace string
	// MaxDepth bounds repository discovery; zero means scan only the
	// root's immediate children.
	MaxDepth int
	// EnvFilter, when set, restricts the scan to a single environment
	// instead of every environment known remotely plus the default.
	EnvFilter string
	// SkipDirs names extra directories discovery leaves alone.
	SkipDirs []string
}

// Scan discovers repositories under root and classifies each of their env
// files against the remote index. The scan mutates nothing; non-NotFound
// store errors abort it.
func (s *Scanner) Scan(ctx context.Context, root string) (*Report, error) {
	repos, warnings := discovery.FindRepositories(root, s.MaxDepth, s.SkipDirs...)
	s.Logger.Debug("discovered repositories", zap.Int("count", len(repos)), zap.Int("warnings", len(warnings)))

	ix, err := index.Build(ctx, s.Store, s.Namespace, s.Logger)
	if err != nil {
		return nil, err
	}

	report := &Report{Warnings: warnings}
	for _, repo := range repos {
		folder := codec.NormalizeFolder(filepath.Base(repo.Path))

		for _, file := range discovery.FindEnvFiles(repo.Path, s.Oracle) {
			entries, err := envfile.ParseFile(file.Path)
			if err != nil {
				report.Warnings = append(report.Warnings, err.Error())
				continue
			}
			if len(entries) == 0 {
				continue
			}

			for _, env := range s.environments(ix, folder) {
				status, err := s.classify(ctx, ix, folder, env, entries)
				if err != nil {
					return nil, err
				}
				report.add(Result{
					Status:      status,
					Repo:        filepath.Base(repo.Path),
					File:        file.Filename,
					Environment: env,
					LocalKeys:   len(entries),
					Ignored:     file.Ignored,
				})
			}
		}
	}
	return report, nil
}

// environments returns the environment set to check for one folder: the
// explicit filter if given, otherwise the default namespace plus every
// environment known remotely for the folder.
func (s *Scanner) environments(ix *index.Index, folder string) []string {
	if s.EnvFilter != "" {
		return []string{s.EnvFilter}
	}
	return append([]string{""}, ix.Environments(folder)...)
}

func (s *Scanner) classify(ctx context.Context, ix *index.Index, folder, env string, entries []envfile.Entry) (Status, error) {
	group := ix.Group(folder, env)
	if len(group) == 0 {
		return StatusNew, nil
	}

	values, err := index.Values(ctx, s.Store, s.Namespace, group)
	if err != nil {
		return "", err
	}

	// remoteKeys holds every registered key; remote only the ones that
	// actually have a version, so a versionless secret surfaces as a
	// missing value rather than an empty one.
	remoteKeys := make(map[string]bool, len(group))
	remote := make(map[string]string, len(group))
	for _, record := range group {
		// The environment label disambiguates keys whose first segment
		// looks like an environment token.
		key := codec.KeyFromName(record.Name, folder, record.Environment())
		remoteKeys[key] = true
		if value, ok := values[record.Name]; ok {
			remote[key] = string(value)
		}
	}

	// Local lookup is first-match: on duplicate keys the earlier entry wins.
	local := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, seen := local[e.Key]; !seen {
			local[e.Key] = e.Value
		}
	}

	for key, value := range local {
		remoteValue, ok := remote[key]
		if !ok || !valuesEqual(value, remoteValue) {
			return StatusDiff, nil
		}
	}
	for key := range remoteKeys {
		if _, ok := local[key]; !ok {
			return StatusDiff, nil
		}
	}
	return StatusOK, nil
}

func (rep *Report) add(r Result) {
	rep.Results = append(rep.Results, r)
	switch r.Status {
	case StatusOK:
		rep.OK++
	case StatusDiff:
		rep.Diff++
	case StatusNew:
		rep.New++
	}
}

// HasIssues reports whether any tuple drifted or is unregistered.
func (rep *Report) HasIssues() bool {
	return rep.Diff > 0 || rep.New > 0
}

// valuesEqual compares secret values loosely about line endings and
// surrounding whitespace, strictly about everything else.
func valuesEqual(a, b string) bool {
	return canonical(a) == canonical(b)
}

func canonical(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
