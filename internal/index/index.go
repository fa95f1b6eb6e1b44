// Package index builds a read-only snapshot of the central namespace,
// grouping remote secrets by folder and environment for the reconciler.
package index

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/codec"
	"github.com/jenian/envsync/internal/store"
)

// fetchWorkers bounds parallel latest-value fetches.
const fetchWorkers = 10

// Index is an immutable grouping of remote records, built once per
// invocation. After Build it is only read, so no locking is needed.
type Index struct {
	groups map[string][]store.Record
}

// Build lists every secret under namespace and groups the records by their
// folder and environment labels.
func Build(ctx context.Context, s store.Store, namespace string, logger *zap.Logger) (*Index, error) {
	records, err := s.List(ctx, namespace)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]store.Record)
	for _, r := range records {
		key := codec.GroupKey(r.Folder(), r.Environment())
		groups[key] = append(groups[key], r)
	}

	logger.Debug("built remote index",
		zap.String("namespace", namespace),
		zap.Int("secrets", len(records)),
		zap.Int("groups", len(groups)))
	return &Index{groups: groups}, nil
}

// Group returns the records registered under (folder, environment).
// An empty environment addresses the default namespace.
func (ix *Index) Group(folder, environment string) []store.Record {
	return ix.groups[codec.GroupKey(folder, environment)]
}

// Environments returns the sorted distinct environments present for folder,
// excluding the default (empty) one.
func (ix *Index) Environments(folder string) []string {
	seen := make(map[string]bool)
	for _, records := range ix.groups {
		// All records in one group share folder and environment labels.
		if len(records) == 0 || records[0].Folder() != folder {
			continue
		}
		if env := records[0].Environment(); env != "" {
			seen[env] = true
		}
	}

	envs := make([]string, 0, len(seen))
	for env := range seen {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return envs
}

// Folders returns the sorted distinct folders present in the index.
func (ix *Index) Folders() []string {
	seen := make(map[string]bool)
	for _, records := range ix.groups {
		for _, r := range records {
			seen[r.Folder()] = true
		}
	}
	folders := make([]string, 0, len(seen))
	for f := range seen {
		folders = append(folders, f)
	}
	sort.Strings(folders)
	return folders
}

// Values fetches the latest value of each record with bounded parallelism.
// Records whose secret has no version are left out of the result; any other
// fetch error aborts the whole call.
func Values(ctx context.Context, s store.Store, namespace string, records []store.Record) (map[string][]byte, error) {
	values := make(map[string][]byte, len(records))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	workers := make(chan struct{}, fetchWorkers)

	for _, record := range records {
		wg.Add(1)
		workers <- struct{}{} // Acquire worker

		go func(r store.Record) {
			defer wg.Done()
			defer func() { <-workers }() // Release worker

			val, err := s.LatestValue(ctx, namespace, r.Name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) && firstErr == nil {
					firstErr = err
				}
				return
			}
			values[r.Name] = val
		}(record)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return values, nil
}
