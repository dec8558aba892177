// Package main provides the entry point for rostervault-cli.
//
// Store commands read the server configuration file and work against the
// object store directly; server commands talk to a running server's ops
// listener.
//
// Usage:
//
//	rostervault-cli [global flags] command [flags]
//	rostervault-cli -c /etc/rostervault/server.yaml backup list --limit 5
//	rostervault-cli -a 127.0.0.1:9090 backup create
package main
