//go:build windows

package storage

import "sync"

var lockMu sync.Mutex

// withFileLock falls back to an in-process mutex on Windows, which still
// serializes the bot's own read-modify-write cycles.
func withFileLock(lockPath string, fn func() error) error {
	lockMu.Lock()
	defer lockMu.Unlock()
	return fn()
}
