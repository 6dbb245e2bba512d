// Package common provides shared types and constants used by the aptjitter
// CLI, the daemon and its RPC clients.
package common

// Environment variable names for configuration.
const (
	// ConfigEnv names a single config file, bypassing /etc discovery.
	ConfigEnv = "APTJITTER_CONFIG"

	// ShellEnv overrides the interpreter exported as SHELL to at(1).
	ShellEnv = "APTJITTER_SHELL"

	// SocketPathEnv is the environment variable for a custom daemon socket path.
	SocketPathEnv = "APTJITTER_SOCKET_PATH"

	// HistoryEnv overrides the submission history database path.
	HistoryEnv = "APTJITTER_HISTORY"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "APTJITTER_DEBUG"
)
