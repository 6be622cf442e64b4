package util

import (
	"net"
	"testing"
)

func TestFindAvailablePort_SkipsBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	busy := ln.Addr().(*net.TCPAddr).Port
	got := FindAvailablePort("127.0.0.1", busy, 10)
	if got == busy {
		t.Fatalf("busy port %d returned", busy)
	}
	if got < busy || got >= busy+10 {
		t.Fatalf("port %d outside [%d, %d)", got, busy, busy+10)
	}
}

func TestFindAvailablePort_NoCandidates(t *testing.T) {
	t.Parallel()

	if got := FindAvailablePort("127.0.0.1", 8501, 0); got != 8501 {
		t.Fatalf("port = %d, want 8501", got)
	}
}

func TestBrowserCommand(t *testing.T) {
	t.Parallel()

	cmd := browserCommand("http://localhost:8501")
	if len(cmd.Args) == 0 || cmd.Args[len(cmd.Args)-1] != "http://localhost:8501" {
		t.Fatalf("args = %v", cmd.Args)
	}
}
