package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// maxSnapshotName bounds snapshot keys; they are identifiers, not content.
const maxSnapshotName = 128

var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidSnapshot = errors.New("invalid snapshot name")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSnapshotName accepts non-empty names of letters, digits, dots,
// dashes and underscores.
func validateSnapshotName(name string) error {
	if err := validateString(name, "snapshot name"); err != nil {
		return err
	}
	if len(name) > maxSnapshotName {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidSnapshot, maxSnapshotName)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSnapshot, name, r)
		}
	}
	return nil
}

// validateData rejects a nil payload. An empty one is a valid snapshot.
func validateData(data []byte, paramName string) error {
	if data == nil {
		return fmt.Errorf("%w: %s", ErrNilParameter, paramName)
	}
	return nil
}
