package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
)

const testPrefix = "message-backups"

// runApp runs the CLI with args and returns what it wrote.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"rostervault-cli"}, args...))
	return out.String(), errOut.String(), err
}

// writeConfig writes a server configuration using a badger store under dir
// and returns its path.
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	content := fmt.Sprintf(`backup:
  prefix: %s
  retention_days: 30
store:
  backend: badger
  badger:
    dir: %s
    sync_writes: false
%s`, testPrefix, filepath.Join(dir, "objects"), extra)

	path := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// seedBackups stores one backup per age, each modified that long ago, and
// returns the keys in the same order. Ages must be given oldest first.
func seedBackups(t *testing.T, dir string, ages ...time.Duration) []string {
	t.Helper()

	clock := clockwork.NewFakeClock()
	cfg := objstore.DefaultBadgerConfig(filepath.Join(dir, "objects"))
	cfg.SyncWrites = false
	store, err := objstore.NewBadger(cfg, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer store.Close()

	codec, err := snapshot.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	defer codec.Close()

	now := time.Now()
	keys := make([]string, len(ages))
	for i, age := range ages {
		at := now.Add(-age)
		clock.Advance(at.Sub(clock.Now()))

		snap := snapshot.New(nil, []string{"ana", "ben"}, []string{"lyon"})
		enc, err := codec.Encode(snap)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		keys[i] = snapshot.ObjectKey(testPrefix, at, false)
		meta := map[string]string{
			backup.MetaMessageCount: "0",
			backup.MetaRawSize:      strconv.Itoa(enc.RawSize),
			backup.MetaEncrypted:    "false",
			backup.MetaCapturedAt:   at.UTC().Format(time.RFC3339),
		}
		if err := store.Put(context.Background(), keys[i], enc.Data, meta); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	return keys
}
