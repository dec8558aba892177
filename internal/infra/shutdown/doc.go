// Package shutdown coordinates graceful process termination.
//
// Hooks registered with OnShutdown run in reverse order once SIGINT or
// SIGTERM arrives (or the wait context ends), sharing one deadline.
//
// Usage:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(scheduler.Stop)
//	return h.Wait()
package shutdown
