package backup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDisabled is returned when a backup is requested but the policy has
	// backups turned off.
	ErrDisabled = errors.New("backups are disabled")

	// ErrBackupRunning is returned when a backup or restore is requested while
	// another one is still in flight.
	ErrBackupRunning = errors.New("a backup or restore is already in progress")

	// ErrNotFound is returned when the requested snapshot does not exist in
	// object storage.
	ErrNotFound = errors.New("backup not found")

	// ErrCorruptSnapshot is returned when a downloaded snapshot fails
	// structural validation.
	ErrCorruptSnapshot = errors.New("snapshot is corrupt")
)

// PartialRestoreError reports a restore that replaced some tables but not all.
// Tables already restored stay restored.
type PartialRestoreError struct {
	Failed []string
}

func (e *PartialRestoreError) Error() string {
	return fmt.Sprintf("restore incomplete: %d table(s) failed: %s", len(e.Failed), strings.Join(e.Failed, ", "))
}
