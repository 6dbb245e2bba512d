package jittercli

import (
	"log"
	"os"

	"github.com/aptjitter/aptjitter/common"
)

// DefaultSocketPath is used when neither the environment nor the caller
// names a socket.
const DefaultSocketPath = "/run/aptjitter.sock"

// SocketPath resolves the daemon socket: APTJITTER_SOCKET_PATH first, then
// configured, then DefaultSocketPath.
func SocketPath(configured string) string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	if configured != "" {
		return configured
	}
	return DefaultSocketPath
}

// debugMode returns true if APTJITTER_DEBUG=1
func debugMode() bool {
	return os.Getenv(common.DebugEnv) == "1"
}

// debugLog logs only if debugMode() is true
func debugLog(format string, args ...any) {
	if debugMode() {
		log.Printf(format, args...)
	}
}
