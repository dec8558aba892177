package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Backup.EncryptionKey = maskSecret(sanitized.Backup.EncryptionKey)
	sanitized.Store.S3.AccessKeyID = maskSecret(sanitized.Store.S3.AccessKeyID)
	sanitized.Store.S3.SecretAccessKey = maskSecret(sanitized.Store.S3.SecretAccessKey)
	sanitized.Store.S3.SessionToken = maskSecret(sanitized.Store.S3.SessionToken)

	return &sanitized
}

// maskSecret masks a secret value for safe logging. Empty stays empty.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
