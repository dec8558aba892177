// Package command provides the rostervault-cli command tree.
//
// Commands come in two kinds. Store commands (backup list, latest,
// inspect, download, prune) load the server configuration file and open
// the object store directly, so they work while the server is down.
// Server commands (backup create, server status/health/ready) call the
// ops listener over HTTP.
//
//   - root.go: App, global flags and shared helpers
//   - backup.go: backup subcommand group
//   - server.go: ops listener probes and status
//   - config.go: configuration subcommand group
package command
