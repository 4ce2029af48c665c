package daemonctl

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSignalProcessRefusesSelf(t *testing.T) {
	if err := signalProcess(os.Getpid(), unix.SIGTERM); err == nil {
		t.Fatal("expected error when signalling the current process")
	}
}

func TestRuntimeFilesFollowDataDir(t *testing.T) {
	pidPath, lockPath := runtimeFiles(nil)
	if pidPath != "" || lockPath != "" {
		t.Fatalf("expected empty paths without config, got %q %q", pidPath, lockPath)
	}
}
