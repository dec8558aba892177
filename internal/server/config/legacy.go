package config

import "strings"

// legacyEnv maps environment names used by earlier deployments to config
// keys. They rank above the file and below ROSTERVAULT_ variables.
var legacyEnv = []struct {
	name   string
	key    string
	suffix string
}{
	{name: "AWS_BACKUP_BUCKET", key: "store.s3.bucket"},
	{name: "AWS_BACKUP_PREFIX", key: "backup.prefix"},
	{name: "AWS_REGION", key: "store.s3.region"},
	{name: "AWS_ENDPOINT_URL", key: "store.s3.endpoint"},
	{name: "BACKUP_RETENTION_DAYS", key: "backup.retention_days"},
	{name: "BACKUP_INTERVAL_HOURS", key: "backup.interval", suffix: "h"},
	{name: "BACKUP_COMPRESSION_LEVEL", key: "backup.compression_level"},
}

// LegacyEnv returns the legacy environment variables found by lookup as a
// map of dotted config keys. Empty values are ignored.
func LegacyEnv(lookup func(string) (string, bool)) map[string]any {
	out := make(map[string]any)
	for _, e := range legacyEnv {
		v, ok := lookup(e.name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		out[e.key] = v + e.suffix
	}
	return out
}
