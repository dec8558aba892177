// Package tlsroots builds certificate pools for outbound TLS.
//
// The S3 backend uses it to trust a private CA when talking to an
// S3-compatible endpoint (store.s3.ca_file). The file's certificates
// replace the system pool for that client.
package tlsroots
