// Package bootstrap turns a loaded ServerConfig into running components.
//
// rostervault-server and rostervault-cli share these constructors so the
// CLI reads the same store, with the same codec, that the server writes.
package bootstrap
