package snapshot

import (
	"path"
	"strings"
	"time"

	"github.com/yndnr/rostervault/internal/storage/objstore"
)

const (
	// DefaultPrefix is the key prefix used when none is configured.
	DefaultPrefix = "message-backups"

	keyStem      = "backup_"
	keyExtension = ".json.zst"
	sealedSuffix = ".enc"
	keyTimestamp = "20060102_150405"
)

// ObjectKey returns the key for a backup taken at t:
// {prefix}/backup_{YYYYMMDD_HHMMSS}.json.zst, with t in UTC.
// Sealed blobs get an extra ".enc" suffix.
func ObjectKey(prefix string, t time.Time, sealed bool) string {
	name := keyStem + t.UTC().Format(keyTimestamp) + keyExtension
	if sealed {
		name += sealedSuffix
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ListPrefix returns the prefix to list backups under. The trailing slash
// keeps "message-backups" from matching "message-backups-old".
func ListPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// ParseKeyTime extracts the timestamp embedded in a backup key. It is for
// display only; ordering always uses store-reported LastModified.
func ParseKeyTime(key string) (time.Time, bool) {
	name := path.Base(key)
	name = strings.TrimSuffix(name, sealedSuffix)
	if !strings.HasPrefix(name, keyStem) || !strings.HasSuffix(name, keyExtension) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, keyStem), keyExtension)
	t, err := time.ParseInLocation(keyTimestamp, ts, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Latest returns the object with the greatest LastModified. Ties are broken
// by the lexically greatest key so the choice is deterministic.
func Latest(objects []objstore.ObjectInfo) (objstore.ObjectInfo, bool) {
	var (
		best  objstore.ObjectInfo
		found bool
	)
	for _, o := range objects {
		if !found ||
			o.LastModified.After(best.LastModified) ||
			(o.LastModified.Equal(best.LastModified) && o.Key > best.Key) {
			best = o
			found = true
		}
	}
	return best, found
}
