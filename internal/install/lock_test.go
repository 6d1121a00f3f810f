package install

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireLockExcludesSecondAcquire(t *testing.T) {
	root := t.TempDir()

	lock, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("AcquireLock() error: %v", err)
	}
	defer lock.Release()

	if _, err := AcquireLock(root); !errors.Is(err, ErrLockHeld) {
		t.Errorf("second AcquireLock() error = %v, want ErrLockHeld", err)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	root := t.TempDir()

	lock, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("AcquireLock() error: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}

	lock2, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("AcquireLock() after release error: %v", err)
	}
	lock2.Release()
}

func TestStaleLockIsReclaimed(t *testing.T) {
	root := t.TempDir()
	lockPath := filepath.Join(root, lockFileName)

	// A lock file left behind by a crashed installer.
	if err := os.WriteFile(lockPath, []byte("pid=99999\n"), 0600); err != nil {
		t.Fatalf("plant stale lock: %v", err)
	}
	old := time.Now().Add(-StaleLockThreshold - time.Minute)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatalf("age lock file: %v", err)
	}

	lock, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("AcquireLock() over stale lock error: %v", err)
	}
	lock.Release()
}

func TestFreshForeignLockBlocks(t *testing.T) {
	root := t.TempDir()
	lockPath := filepath.Join(root, lockFileName)

	if err := os.WriteFile(lockPath, []byte("pid=99999\n"), 0600); err != nil {
		t.Fatalf("plant lock: %v", err)
	}

	if _, err := AcquireLock(root); !errors.Is(err, ErrLockHeld) {
		t.Errorf("AcquireLock() error = %v, want ErrLockHeld", err)
	}
}
