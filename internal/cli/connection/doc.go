// Package connection is the CLI's client for the rostervault ops listener.
//
// Responses arrive wrapped in the server's envelope; ParseResponse unwraps
// the data field on success and turns error envelopes into *APIError.
package connection
