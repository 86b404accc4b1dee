package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskSave(t *testing.T) {
	root := t.TempDir()
	disk, err := NewDisk(root)
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	path, size, err := disk.Save(context.Background(), "req-1/ev-1/abc_report.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != 5 {
		t.Fatalf("expected size 5, got %d", size)
	}
	if path != filepath.Join(root, "req-1", "ev-1", "abc_report.pdf") {
		t.Fatalf("unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Fatalf("unexpected content %q %v", data, err)
	}
}

func TestDiskRejectsEscapingKeys(t *testing.T) {
	disk, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	for _, key := range []string{"../x", "a/../../x", ""} {
		if _, _, err := disk.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestDiskDelete(t *testing.T) {
	disk, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	ctx := context.Background()
	path, _, err := disk.Save(ctx, "req-1/ev-1/a.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := disk.Delete(ctx, "req-1/ev-1/a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	if err := disk.Delete(ctx, "req-1/ev-1/a.pdf"); err != nil {
		t.Fatalf("deleting a missing key must succeed: %v", err)
	}
	if err := disk.Delete(ctx, "../x"); err == nil {
		t.Fatal("expected error for escaping key")
	}
}
