package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/cli/connection"
	"github.com/yndnr/rostervault/internal/cli/output"
	"github.com/yndnr/rostervault/internal/server/httpserver/handler"
)

// ServerCommand returns the server subcommand group.
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"srv"},
		Usage:   "Query a running server's ops listener",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show build info, the startup restore and the last backup run",
				Action: serverStatus,
			},
			{
				Name:   "health",
				Usage:  "Check liveness",
				Action: probe("/health"),
			},
			{
				Name:   "ready",
				Usage:  "Check readiness (startup restore finished)",
				Action: probe("/ready"),
			},
		},
	}
}

func serverStatus(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := OpsClient(c).Get(ctx, "/admin/v1/status")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var status handler.StatusResponse
	if err := connection.ParseResponse(resp, &status); err != nil {
		return err
	}

	if ParseGlobalFlags(c).Output != string(output.FormatTable) {
		return render(c, status)
	}
	return render(c, statusTable(&status))
}

// statusTable flattens a status response into key/value rows.
func statusTable(s *handler.StatusResponse) *output.Table {
	t := &output.Table{}
	t.SetHeaders("FIELD", "VALUE")
	t.AddRow("version", s.Build.Version)
	t.AddRow("commit", s.Build.Commit)
	t.AddRow("go_version", s.Build.GoVersion)

	if r := s.Restore; r != nil {
		t.AddRow("restore", string(r.Outcome))
		if r.Key != "" {
			t.AddRow("restore_key", r.Key)
		}
		if len(r.Restored) > 0 {
			t.AddRow("restored", strings.Join(r.Restored, ","))
		}
		if len(r.Kept) > 0 {
			t.AddRow("kept", strings.Join(r.Kept, ","))
		}
		if r.Error != "" {
			t.AddRow("restore_error", r.Error)
		}
	} else {
		t.AddRow("restore", "in progress")
	}

	if l := s.LastRun; l != nil {
		v := tickView(l)
		t.AddRow("last_run", v.StartedAt.UTC().Format(time.RFC3339))
		t.AddRow("last_run_uploaded", fmt.Sprint(v.Uploaded))
		if v.Key != "" {
			t.AddRow("last_run_key", v.Key)
		}
		if v.Error != "" {
			t.AddRow("last_run_error", v.FailedPhase+": "+v.Error)
		}
	} else {
		t.AddRow("last_run", "-")
	}
	return t
}

func probe(path string) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx, cancel := commandContext(c)
		defer cancel()

		client := OpsClient(c)
		resp, err := client.Get(ctx, path)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		var result handler.ProbeResponse
		if err := connection.ParseResponse(resp, &result); err != nil {
			return err
		}

		if ParseGlobalFlags(c).Output != string(output.FormatTable) {
			return render(c, result)
		}
		fmt.Fprintf(stdout(c), "✓ %s (%s)\n", result.Status, client.BaseURL())
		return nil
	}
}

// runView is the flat form of a backup run.
type runView struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Key            string        `json:"key,omitempty"`
	Uploaded       bool          `json:"uploaded"`
	Records        int           `json:"records"`
	Instructors    int           `json:"instructors"`
	Hosts          int           `json:"hosts"`
	RawSize        int64         `json:"raw_size" table:"bytes"`
	CompressedSize int64         `json:"compressed_size" table:"bytes"`
	Encrypted      bool          `json:"encrypted"`
	CompressTime   time.Duration `json:"compress_time"`
	UploadTime     time.Duration `json:"upload_time"`
	Swept          int           `json:"swept"`
	FailedPhase    string        `json:"failed_phase,omitempty"`
	Error          string        `json:"error,omitempty"`
}

func tickView(r *backup.TickReport) runView {
	v := runView{
		RunID:          r.RunID,
		StartedAt:      r.StartedAt,
		Key:            r.Key,
		Uploaded:       r.Uploaded,
		Records:        r.Counts.Records,
		Instructors:    r.Counts.Instructors,
		Hosts:          r.Counts.Hosts,
		RawSize:        int64(r.RawSize),
		CompressedSize: int64(r.CompressedSize),
		Encrypted:      r.Encrypted,
		CompressTime:   r.CompressTime,
		UploadTime:     r.UploadTime,
		FailedPhase:    r.FailedPhase,
		Error:          r.Error,
	}
	if r.Sweep != nil {
		v.Swept = len(r.Sweep.Deleted)
	}
	return v
}
