package storage

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/config"
)

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, company, file, want string
	}{
		{"documents", "c1", "FAC-2025-0001.pdf", "documents/c1/FAC-2025-0001.pdf"},
		{"", "c1", "DEV-2025-0002.pdf", "documents/c1/DEV-2025-0002.pdf"},
		{"archive", "c2", "../../etc/passwd", "archive/c2/passwd"},
	}
	for _, tt := range tests {
		if got := Key(tt.prefix, tt.company, tt.file); got != tt.want {
			t.Errorf("Key(%q, %q, %q) = %q, want %q", tt.prefix, tt.company, tt.file, got, tt.want)
		}
	}
}

func TestNewS3ArchiveDisabled(t *testing.T) {
	archive, err := NewS3Archive(context.Background(), config.StorageConfig{}, zap.NewNop())
	if err != nil || archive != nil {
		t.Fatalf("disabled archive = %v, %v", archive, err)
	}
}
