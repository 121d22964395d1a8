package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileHasher_HashContent(t *testing.T) {
	hasher := NewFileHasher()

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty content", content: []byte("")},
		{name: "simple content", content: []byte("1 + 2")},
		{name: "program", content: []byte("(1 + 2) * 3\n!true == false\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hasher.HashContent(tt.content)
			if len(result) != 16 {
				t.Errorf("HashContent() returned hash of length %d, expected 16", len(result))
			}
			result2 := hasher.HashContent(tt.content)
			if result != result2 {
				t.Errorf("HashContent() not deterministic: %s != %s", result, result2)
			}
		})
	}

	// XXH64 of the empty input with seed 0.
	if got := hasher.HashContent(nil); got != "ef46db3751d8e999" {
		t.Errorf("HashContent(nil) = %s, want ef46db3751d8e999", got)
	}
}

func TestFileHasher_HashString(t *testing.T) {
	hasher := NewFileHasher()

	hash1 := hasher.HashString("1 + 2")
	hash2 := hasher.HashString("1 + 2")
	if hash1 != hash2 {
		t.Errorf("HashString() not deterministic: %s != %s", hash1, hash2)
	}

	if hash1 == hasher.HashString("1 + 3") {
		t.Errorf("HashString() returned same hash for different content")
	}
}

func TestFileHasher_HashFile(t *testing.T) {
	hasher := NewFileHasher()

	tmpFile := filepath.Join(t.TempDir(), "test.ts")
	content := "1 + 2\n3 * 4\n"

	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	hash1, err := hasher.HashFile(tmpFile)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if hash1 != hasher.HashString(content) {
		t.Errorf("HashFile() = %s, want the hash of the file contents %s", hash1, hasher.HashString(content))
	}

	if err := os.WriteFile(tmpFile, []byte(content+"5"), 0644); err != nil {
		t.Fatalf("Failed to modify temp file: %v", err)
	}

	hash2, err := hasher.HashFile(tmpFile)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if hash1 == hash2 {
		t.Errorf("HashFile() returned same hash after modification")
	}
}

func TestFileHasher_HashFile_NotFound(t *testing.T) {
	hasher := NewFileHasher()

	if _, err := hasher.HashFile("/nonexistent/file.ts"); err == nil {
		t.Errorf("HashFile() should return error for non-existent file")
	}
}
