package begehung

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHandOff_EmptyDirErrors(t *testing.T) {
	if _, err := HandOff("x", ""); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestHandOff_KeepsExistingFile(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "src")
	dstDir := filepath.Join(tmp, "dst")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		t.Fatal(err)
	}

	base := "begehungen.csv"
	if err := os.WriteFile(filepath.Join(dstDir, base), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}
	srcPath := filepath.Join(srcDir, base)
	if err := os.WriteFile(srcPath, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	dstPath, err := HandOff(srcPath, dstDir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dstPath) == base {
		t.Fatalf("expected collision-avoiding filename, got %q", dstPath)
	}
	if !strings.HasPrefix(filepath.Base(dstPath), "begehungen-") || filepath.Ext(dstPath) != ".csv" {
		t.Fatalf("expected collision-avoiding suffix, got %q", dstPath)
	}
	if _, err := os.Stat(srcPath); err == nil {
		t.Fatalf("expected source removed: %s", srcPath)
	}
	b, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestHandoffTarget(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 9, 15, 0, 5, time.UTC)
	if got := handoffTarget(dir, "in.csv", now); got != filepath.Join(dir, "in.csv") {
		t.Fatalf("free name must be used as is, got %q", got)
	}
	if err := os.WriteFile(filepath.Join(dir, "in.csv"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "in-20250601-091500.000000005.csv")
	if got := handoffTarget(dir, "in.csv", now); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSession_ImportFileArchivesAndRejects(t *testing.T) {
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "archive")
	rejected := filepath.Join(tmp, "error")
	s, err := OpenSession(SessionConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	good := filepath.Join(tmp, "good.csv")
	if err := os.WriteFile(good, []byte("inspection_id,item_id,status\nINS-1,ITM-001,ok\nINS-1,ITM-001,ok\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, merged, err := s.ImportFile(good, archive, rejected, false)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Total != 1 || merged.Removed != 1 {
		t.Fatalf("unexpected merge result %+v", merged)
	}
	if _, err := os.Stat(filepath.Join(archive, "good.csv")); err != nil {
		t.Fatalf("expected file archived: %v", err)
	}

	bad := filepath.Join(tmp, "bad.csv")
	if err := os.WriteFile(bad, []byte("a,b\n1,2,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.ImportFile(bad, archive, rejected, false); !errors.Is(err, ErrMalformedImport) {
		t.Fatalf("expected ErrMalformedImport, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(rejected, "bad.csv")); err != nil {
		t.Fatalf("expected file moved to error dir: %v", err)
	}
	if s.Table().Len() != 1 {
		t.Fatalf("malformed import changed the table")
	}
}

func TestSession_ImportFileDryRun(t *testing.T) {
	tmp := t.TempDir()
	s, err := OpenSession(SessionConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(tmp, "in.csv")
	if err := os.WriteFile(path, []byte("item_id\nITM-001\nITM-002\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, merged, err := s.ImportFile(path, filepath.Join(tmp, "archive"), "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 2 || merged.Incoming != 2 || merged.Total != 0 {
		t.Fatalf("unexpected dry run result %d / %+v", len(res.Records), merged)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("dry run must leave the file in place: %v", err)
	}
	if s.Table().Len() != 0 {
		t.Fatalf("dry run changed the table")
	}
}
