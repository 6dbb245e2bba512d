package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aptjitter/aptjitter/common"
	"github.com/aptjitter/aptjitter/pkg/logger"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
)

func startTestServer(t *testing.T) (*Server, context.CancelFunc, <-chan error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aj.sock")
	srv := NewServer(logger.NewNopLogger(), NewRPCServer(&RPCConfig{Version: "test"}, testDaemon(), nil), path)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("socket was not created")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return srv, cancel, done
}

func TestServer_ServesOverSocket(t *testing.T) {
	srv, cancel, done := startTestServer(t)
	defer cancel()

	conn, err := net.Dial("unix", srv.Path())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	cli := jrpc2.NewClient(channel.Line(conn, conn), nil)
	defer cli.Close()

	var res common.VersionResult
	if err := cli.CallResult(context.Background(), common.MethodVersion, nil, &res); err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.Version != "test" {
		t.Fatalf("unexpected version %+v", res)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	if _, err := os.Stat(srv.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected socket to be removed, stat err = %v", err)
	}
}

func TestListen_SocketPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aj.sock")
	l, err := listen(path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Fatalf("expected mode 0700, got %o", perm)
	}
}

func TestServer_ShutdownIdempotent(t *testing.T) {
	srv, cancel, done := startTestServer(t)
	defer cancel()

	if err := srv.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := srv.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StartAfterShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aj.sock")
	srv := NewServer(nil, NewRPCServer(nil, testDaemon(), nil), path)
	_ = srv.Shutdown()
	if err := srv.Start(context.Background()); err != ErrServerClosed {
		t.Fatalf("expected ErrServerClosed, got %v", err)
	}
}

func TestListen_ReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	l, err := listen(path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	if err := cleanupSocket(filepath.Join(t.TempDir(), "missing.sock")); err != nil {
		t.Fatalf("cleanup of a missing socket: %v", err)
	}
}
