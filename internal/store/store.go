// Package store defines the central secret store the scanner reconciles
// against, along with an HTTP client and an in-memory implementation.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a secret, or its latest version, does not
// exist. It is the only store error the scan treats as recoverable.
var ErrNotFound = errors.New("secret not found")

// Label keys carried by every record. Labels are the source of truth for a
// secret's folder and environment; the composite name is display convenience.
const (
	LabelFolder      = "folder"
	LabelEnvironment = "environment"
)

// Record is one secret as listed from the central namespace.
type Record struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
}

// Folder returns the record's folder label.
func (r Record) Folder() string { return r.Labels[LabelFolder] }

// Environment returns the record's environment label, empty for the default
// namespace.
func (r Record) Environment() string { return r.Labels[LabelEnvironment] }

// Store is the remote secret store collaborator. List and LatestValue are
// all the scan needs; the write operations back the push, pull and delete
// commands.
type Store interface {
	// List returns every record under the central namespace.
	List(ctx context.Context, namespace string) ([]Record, error)
	// LatestValue returns the newest version of the named secret, or
	// ErrNotFound when the secret has no version.
	LatestValue(ctx context.Context, namespace, name string) ([]byte, error)
	// Create registers a new secret with the given labels.
	Create(ctx context.Context, namespace, name string, labels map[string]string) error
	// AddVersion appends a new value version to an existing secret.
	AddVersion(ctx context.Context, namespace, name string, value []byte) error
	// Delete removes a secret and all its versions.
	Delete(ctx context.Context, namespace, name string) error
}
