// Package transfer moves env-file entries between a local repository and the
// central store: push uploads local entries, pull materializes a remote
// group back into file form.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/codec"
	"github.com/jenian/envsync/internal/envfile"
	"github.com/jenian/envsync/internal/index"
	"github.com/jenian/envsync/internal/store"
)

// Service performs push and pull operations against one central namespace.
type Service struct {
	Store     store.Store
	Logger    *zap.Logger
	Namespace string
}

// PushStats summarizes one push.
type PushStats struct {
	Created int
	Updated int
}

// Push uploads entries under (folder, environment), creating missing secrets
// and appending a new version to existing ones. On duplicate local keys the
// first entry wins, matching the scan's lookup policy. With dryRun set,
// nothing is written and the stats describe what would happen.
func (s *Service) Push(ctx context.Context, folder, environment string, entries []envfile.Entry, dryRun bool) (PushStats, error) {
	var stats PushStats

	existing, err := s.existingNames(ctx, folder, environment)
	if err != nil {
		return stats, err
	}

	pushed := make(map[string]bool, len(entries))
	for _, e := range entries {
		if pushed[e.Key] {
			continue
		}
		pushed[e.Key] = true

		name := codec.MakeSecretName(folder, e.Key, environment)
		if existing[name] {
			stats.Updated++
		} else {
			stats.Created++
		}
		if dryRun {
			continue
		}

		if !existing[name] {
			labels := map[string]string{store.LabelFolder: folder}
			if environment != "" {
				labels[store.LabelEnvironment] = environment
			}
			if err := s.Store.Create(ctx, s.Namespace, name, labels); err != nil {
				return stats, fmt.Errorf("creating %s: %w", name, err)
			}
		}
		if err := s.Store.AddVersion(ctx, s.Namespace, name, []byte(e.Value)); err != nil {
			return stats, fmt.Errorf("pushing %s: %w", name, err)
		}
	}

	s.Logger.Info("pushed entries",
		zap.String("folder", folder),
		zap.String("environment", environment),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Bool("dryRun", dryRun))
	return stats, nil
}

// Pull fetches the remote (folder, environment) group and returns it as env
// entries sorted by key. Values spanning multiple lines come back as
// multiline entries so rendering round-trips. Secrets without a version are
// skipped.
func (s *Service) Pull(ctx context.Context, folder, environment string) ([]envfile.Entry, error) {
	ix, err := index.Build(ctx, s.Store, s.Namespace, s.Logger)
	if err != nil {
		return nil, err
	}
	group := ix.Group(folder, environment)
	if len(group) == 0 {
		return nil, fmt.Errorf("no secrets for %s [%s]", folder, environment)
	}

	values, err := index.Values(ctx, s.Store, s.Namespace, group)
	if err != nil {
		return nil, err
	}

	var entries []envfile.Entry
	for _, record := range group {
		value, ok := values[record.Name]
		if !ok {
			continue
		}
		key := codec.KeyFromName(record.Name, folder, record.Environment())
		entries = append(entries, envfile.Entry{
			Key:       key,
			Value:     string(value),
			Multiline: strings.Contains(string(value), "\n"),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Delete removes one key from (folder, environment). A missing secret is
// reported as store.ErrNotFound.
func (s *Service) Delete(ctx context.Context, folder, environment, key string) error {
	name := codec.MakeSecretName(folder, key, environment)
	if err := s.Store.Delete(ctx, s.Namespace, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%s: %w", name, store.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Service) existingNames(ctx context.Context, folder, environment string) (map[string]bool, error) {
	ix, err := index.Build(ctx, s.Store, s.Namespace, s.Logger)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool)
	for _, record := range ix.Group(folder, environment) {
		names[record.Name] = true
	}
	return names, nil
}
