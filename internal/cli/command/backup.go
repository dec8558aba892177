package command

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/cli/connection"
	"github.com/yndnr/rostervault/internal/cli/output"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
)

// BackupCommand returns the backup subcommand group.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:    "backup",
		Aliases: []string{"bk"},
		Usage:   "Backup management",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List backups under the configured prefix, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Show at most N backups (0 = all)",
					},
				},
				Action: backupList,
			},
			{
				Name:   "latest",
				Usage:  "Show the backup a restore would use",
				Action: backupLatest,
			},
			{
				Name:      "inspect",
				Usage:     "Download and decode a backup, then show what it holds",
				ArgsUsage: "KEY",
				Action:    backupInspect,
			},
			{
				Name:      "download",
				Usage:     "Download a backup to a local file",
				ArgsUsage: "KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Destination path (default: the key's base name)",
					},
					&cli.BoolFlag{
						Name:  "decode",
						Usage: "Write the decoded JSON document instead of the stored blob",
					},
				},
				Action: backupDownload,
			},
			{
				Name:  "prune",
				Usage: "Delete backups older than the retention period",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Preview without deleting",
					},
				},
				Action: backupPrune,
			},
			{
				Name:   "create",
				Usage:  "Ask the running server to take a backup now",
				Action: backupCreate,
			},
		},
	}
}

// backupRow is one line of backup list output.
type backupRow struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size" table:"bytes"`
	LastModified time.Time         `json:"last_modified"`
	Messages     string            `json:"messages,omitempty"`
	Encrypted    string            `json:"encrypted,omitempty" table:"wide"`
	Metadata     map[string]string `json:"metadata,omitempty" table:"-"`
}

func newBackupRow(o objstore.ObjectInfo) backupRow {
	return backupRow{
		Key:          o.Key,
		Size:         o.Size,
		LastModified: o.LastModified,
		Messages:     o.Metadata[backup.MetaMessageCount],
		Encrypted:    o.Metadata[backup.MetaEncrypted],
		Metadata:     o.Metadata,
	}
}

func backupList(c *cli.Context) error {
	limit := c.Int("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	s, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	objs, err := s.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	if limit > 0 && len(objs) > limit {
		objs = objs[:limit]
	}

	rows := make([]backupRow, len(objs))
	for i, o := range objs {
		rows[i] = newBackupRow(o)
	}
	if len(rows) == 0 && ParseGlobalFlags(c).Output == string(output.FormatTable) {
		fmt.Fprintf(stdout(c), "No backups under %q\n", s.catalog.Prefix())
		return nil
	}
	return render(c, rows)
}

func backupLatest(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	s, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	latest, err := s.catalog.Latest(ctx)
	if err != nil {
		return err
	}
	// List may omit metadata.
	info, err := s.store.Head(ctx, latest.Key)
	if err != nil {
		return err
	}
	return render(c, newBackupRow(info))
}

// inspectView describes a decoded backup.
type inspectView struct {
	Key              string    `json:"key"`
	Size             int64     `json:"size" table:"bytes"`
	RawSize          string    `json:"raw_size,omitempty"`
	LastModified     time.Time `json:"last_modified"`
	CapturedAt       time.Time `json:"captured_at"`
	CompressionLevel string    `json:"compression_level,omitempty"`
	Encrypted        bool      `json:"encrypted"`
	Records          int       `json:"records"`
	Instructors      int       `json:"instructors"`
	Hosts            int       `json:"hosts"`
}

func backupInspect(c *cli.Context) error {
	key, err := requireKey(c)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	s, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := s.store.Head(ctx, key)
	if err != nil {
		return err
	}
	snap, err := s.catalog.Fetch(ctx, key)
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	counts := snap.Counts()
	view := inspectView{
		Key:              info.Key,
		Size:             info.Size,
		LastModified:     info.LastModified,
		CapturedAt:       capturedAt(info),
		CompressionLevel: info.Metadata[backup.MetaCompressionLevel],
		Encrypted:        info.Metadata[backup.MetaEncrypted] == "true",
		Records:          counts.Records,
		Instructors:      counts.Instructors,
		Hosts:            counts.Hosts,
	}
	if raw, err := strconv.ParseInt(info.Metadata[backup.MetaRawSize], 10, 64); err == nil {
		view.RawSize = output.FormatBytes(raw)
	}
	return render(c, view)
}

// capturedAt reads the capture time recorded at upload, falling back to the
// timestamp encoded in the key. The blob itself carries no timestamp.
func capturedAt(info objstore.ObjectInfo) time.Time {
	if v := info.Metadata[backup.MetaCapturedAt]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	}
	t, _ := snapshot.ParseKeyTime(info.Key)
	return t
}

func backupDownload(c *cli.Context) error {
	key, err := requireKey(c)
	if err != nil {
		return err
	}

	dest := c.String("file")
	if dest == "" {
		dest = path.Base(key)
		if c.Bool("decode") {
			dest = snapshotJSONName(dest)
		}
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	s, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	var data []byte
	if c.Bool("decode") {
		snap, err := s.catalog.Fetch(ctx, key)
		if err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if data, err = snapshot.Serialize(snap); err != nil {
			return err
		}
	} else if data, err = s.store.Get(ctx, key); err != nil {
		return err
	}

	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	fmt.Fprintf(stdout(c), "Wrote %s (%s)\n", dest, output.FormatBytes(int64(len(data))))
	return nil
}

// snapshotJSONName strips the compression and sealing suffixes from a key's
// base name and appends .json.
func snapshotJSONName(name string) string {
	for _, ext := range []string{".enc", ".zst", ".json"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name + ".json"
}

// pruneView is the outcome of backup prune.
type pruneView struct {
	Cutoff  time.Time `json:"cutoff"`
	DryRun  bool      `json:"dry_run"`
	Listed  int       `json:"listed"`
	Expired []string  `json:"expired,omitempty"`
	Deleted []string  `json:"deleted,omitempty"`
	Failed  []string  `json:"failed,omitempty"`
}

func backupPrune(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	s, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	b := s.cfg.Backup
	sweeper := backup.NewSweeper(s.store, b.Prefix, b.RetentionDays, b.SweepRate, s.log)
	now := time.Now()

	view := pruneView{Cutoff: sweeper.Cutoff(now), DryRun: c.Bool("dry-run")}
	if view.DryRun {
		expired, listed, err := sweeper.Expired(ctx, now)
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}
		view.Listed = listed
		for _, o := range expired {
			view.Expired = append(view.Expired, o.Key)
		}
		return render(c, view)
	}

	res, err := sweeper.Sweep(ctx, now)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	view.Listed = res.Listed
	view.Deleted = res.Deleted
	for _, f := range res.Failed {
		view.Failed = append(view.Failed, fmt.Sprintf("%s: %v", f.Key, f.Err))
	}
	if err := render(c, view); err != nil {
		return err
	}
	if len(view.Failed) > 0 {
		return fmt.Errorf("%d backups could not be deleted", len(view.Failed))
	}
	return nil
}

func backupCreate(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	client := OpsClient(c)
	spinner := output.NewSpinner(stderr(c), "Running backup on "+client.BaseURL())
	spinner.Start()

	resp, err := client.Post(ctx, "/admin/v1/backups", nil)
	if err != nil {
		spinner.Fail("Request failed")
		return fmt.Errorf("request failed: %w", err)
	}

	var report backup.TickReport
	if err := connection.ParseResponse(resp, &report); err != nil {
		spinner.Fail("Backup failed")
		return err
	}
	spinner.Success("Uploaded " + report.Key)

	return render(c, tickView(&report))
}

func requireKey(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one backup KEY")
	}
	return c.Args().First(), nil
}
