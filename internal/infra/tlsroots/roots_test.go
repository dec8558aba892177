package tlsroots

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// writeServerCA writes the test server's certificate as a PEM bundle.
func writeServerCA(t *testing.T, srv *httptest.Server, extra ...*pem.Block) string {
	t.Helper()
	var data []byte
	for _, b := range extra {
		data = append(data, pem.EncodeToMemory(b)...)
	}
	data = append(data, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})...)

	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func get(p *Pool, url string) error {
	tr := &http.Transport{}
	p.ConfigureTransport(tr)
	resp, err := (&http.Client{Transport: tr}).Get(url)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func TestLoadFile_TrustsPrivateCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	if err := get(NewEmptyPool(), srv.URL); err == nil {
		t.Fatal("an empty pool should not trust the test server")
	}

	// A key block ahead of the certificate is skipped.
	pool, err := LoadFile(writeServerCA(t, srv, &pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")}))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if pool.Added() != 1 {
		t.Errorf("Added() = %d, want 1", pool.Added())
	}
	if err := get(pool, srv.URL); err != nil {
		t.Errorf("GET with loaded CA: %v", err)
	}

	want := x509.NewCertPool()
	want.AddCert(srv.Certificate())
	if !pool.CertPool().Equal(want) {
		t.Error("pool should hold only the file's certificate, not the system roots")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("missing file should fail")
	}

	empty := filepath.Join(dir, "empty.pem")
	os.WriteFile(empty, []byte("not pem"), 0o600)
	if _, err := LoadFile(empty); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("error = %v, want ErrNoCertsFound", err)
	}

	bad := filepath.Join(dir, "bad.pem")
	os.WriteFile(bad, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")}), 0o600)
	if _, err := LoadFile(bad); err == nil || errors.Is(err, ErrNoCertsFound) {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestAddCertPEM_AllOrNothing(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	defer srv.Close()

	good := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}})

	p := NewEmptyPool()
	if err := p.AddCertPEM(append(good, bad...)); err == nil {
		t.Fatal("bundle with a broken certificate should fail")
	}
	if p.Added() != 0 {
		t.Errorf("Added() = %d after a failed bundle, want 0", p.Added())
	}
}

func TestTLSConfig(t *testing.T) {
	p := NewEmptyPool()
	cfg := p.TLSConfig()
	if cfg.RootCAs != p.CertPool() {
		t.Error("RootCAs should be the pool")
	}
	if cfg.MinVersion < 0x0303 {
		t.Errorf("MinVersion = %x, want TLS 1.2 or later", cfg.MinVersion)
	}
}
