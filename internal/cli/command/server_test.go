package command

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/server/httpserver/handler"
)

func opsServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"RV-OPS-4040","message":"route not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(body, `"code":"RV-`) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

const statusBody = `{"code":"OK","data":{
	"build":{"version":"1.2.0","commit":"abc123","go_version":"go1.24.4"},
	"restore":{"outcome":"restored","key":"message-backups/backup_20240301_120000.json.zst","restored":["records","hosts"],"kept":["instructors"],"counts":{"records":4,"instructors":2,"hosts":1}},
	"last_run":{"run_id":"01HQ","started_at":"2024-03-02T12:00:00Z","uploaded":false,"counts":{"records":0,"instructors":0,"hosts":0},"failed_phase":"upload","error":"store unavailable"}}}`

func TestServerStatus_Table(t *testing.T) {
	server := opsServer(t, map[string]string{"/admin/v1/status": statusBody})

	out, _, err := runApp(t, "-a", server.URL, "server", "status")
	if err != nil {
		t.Fatalf("server status: %v", err)
	}
	for _, want := range []string{
		"1.2.0",
		"restored",
		"records,hosts",
		"instructors",
		"2024-03-02T12:00:00Z",
		"upload: store unavailable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestServerStatus_JSON(t *testing.T) {
	server := opsServer(t, map[string]string{"/admin/v1/status": statusBody})

	out, _, err := runApp(t, "-a", server.URL, "-o", "json", "server", "status")
	if err != nil {
		t.Fatalf("server status: %v", err)
	}
	var got handler.StatusResponse
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Restore == nil || got.Restore.Outcome != backup.RestoreApplied {
		t.Errorf("Restore = %+v", got.Restore)
	}
	if got.LastRun == nil || got.LastRun.FailedPhase != "upload" {
		t.Errorf("LastRun = %+v", got.LastRun)
	}
}

func TestStatusTable_RestoreInProgress(t *testing.T) {
	tbl := statusTable(&handler.StatusResponse{})

	rows := map[string]string{}
	for _, r := range tbl.Rows {
		rows[r[0]] = r[1]
	}
	if rows["restore"] != "in progress" || rows["last_run"] != "-" {
		t.Errorf("rows = %v", rows)
	}
}

func TestServerProbes(t *testing.T) {
	server := opsServer(t, map[string]string{
		"/health": `{"code":"OK","data":{"status":"healthy","time":"2024-03-01T12:00:00Z"}}`,
		"/ready":  `{"code":"RV-OPS-5030","message":"restore in progress"}`,
	})

	out, _, err := runApp(t, "-a", server.URL, "server", "health")
	if err != nil {
		t.Fatalf("server health: %v", err)
	}
	if !strings.Contains(out, "healthy") || !strings.Contains(out, server.URL) {
		t.Errorf("output = %q", out)
	}

	_, _, err = runApp(t, "-a", server.URL, "server", "ready")
	if err == nil || !strings.Contains(err.Error(), "restore in progress") {
		t.Errorf("ready error = %v, want restore in progress", err)
	}
}

func TestServer_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	if _, _, err := runApp(t, "-a", addr, "--timeout", "2s", "server", "health"); err == nil {
		t.Fatal("health against a closed listener should fail")
	}
}

func TestTickView(t *testing.T) {
	r := &backup.TickReport{
		RunID:          "01HQ",
		Key:            "k",
		RawSize:        10,
		CompressedSize: 4,
		Uploaded:       true,
		Sweep:          &backup.SweepResult{Deleted: []string{"a", "b"}},
	}
	r.Counts.Hosts = 3

	v := tickView(r)
	if v.Swept != 2 || v.Hosts != 3 || v.RawSize != 10 || !v.Uploaded {
		t.Errorf("tickView() = %+v", v)
	}
	if tickView(&backup.TickReport{}).Swept != 0 {
		t.Error("no sweep should report zero deletions")
	}
}
