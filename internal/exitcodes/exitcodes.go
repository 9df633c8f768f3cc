package exitcodes

// Exit codes for deleteafter and deleteafter-query
// Callers spawn the helper detached, so only Usage is expected to be observed
const (
	Success       = 0   // Target absent, or wait-and-delete ran to completion
	Usage         = 1   // Fewer than two positional arguments
	InvalidConfig = 2   // Query CLI: bad flags or unusable database path
	RuntimeError  = 4   // Query CLI: query failed. deleteafter -detach: helper could not be started
	Interrupted   = 130 // Wait cancelled, target left in place. Signals report Signaled(signo) instead
)

// Signaled returns the shell convention for a process ended by signal signo:
// 130 for SIGINT, 143 for SIGTERM.
func Signaled(signo int) int {
	return 128 + signo
}
