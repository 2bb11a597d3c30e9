package certs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	t.Parallel()
	info, err := Generate(24 * time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(info.TLSCert.Certificate) == 0 {
		t.Fatal("certificate chain is empty")
	}
	if info.FingerprintBase64() == "" {
		t.Error("fingerprint is empty")
	}
	if info.NotAfter.Before(time.Now()) {
		t.Error("certificate already expired")
	}
}

func TestGenerateDefaultValidity(t *testing.T) {
	t.Parallel()
	info, err := Generate(0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if info.NotAfter.Before(time.Now().Add(300 * 24 * time.Hour)) {
		t.Errorf("default validity too short: expires %v", info.NotAfter)
	}
}

func TestWriteAndLoadPEM(t *testing.T) {
	t.Parallel()
	info, err := Generate(24 * time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cert.pem")
	if err := WritePEM(path, info); err != nil {
		t.Fatalf("WritePEM: %v", err)
	}

	cert, err := LoadPEM(path)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if len(cert.Certificate) != len(info.TLSCert.Certificate) {
		t.Errorf("chain length: got %d, want %d",
			len(cert.Certificate), len(info.TLSCert.Certificate))
	}
}

func TestLoadPEMMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadPEM(filepath.Join(t.TempDir(), "absent.pem")); err == nil {
		t.Fatal("missing file must fail")
	}
}

func TestLoadPEMGarbage(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "garbage.pem")
	if err := os.WriteFile(path, []byte("definitely not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPEM(path); err == nil {
		t.Fatal("garbage PEM must fail")
	}
}
