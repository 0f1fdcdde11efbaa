// Package storage defines the workspace file-system abstraction.
package storage

// Provider is the interface for workspace file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path (relative to the root).
	Write(path string, content []byte) error
	// Resolve returns the absolute path for path, rejecting escapes from the root.
	Resolve(path string) (string, error)
}
