package entities

import "testing"

func TestDescribeContent(t *testing.T) {
	content := Content{Kind: ContentKindText, Data: []byte("hello world")}
	descriptor := DescribeContent(content)

	if descriptor.Kind != ContentKindText {
		t.Errorf("Kind mismatch: got %v", descriptor.Kind)
	}
	if descriptor.ByteSize != 11 {
		t.Errorf("ByteSize mismatch: got %d, want 11", descriptor.ByteSize)
	}
	if !descriptor.Matches(content.Data) {
		t.Error("Expected descriptor to match its own content")
	}
}

func TestDescriptorMatches(t *testing.T) {
	descriptor := DescribeContent(Content{Kind: ContentKindText, Data: []byte("original")})

	if descriptor.Matches([]byte("tampered")) {
		t.Error("Expected mismatch for different content of same length")
	}
	if descriptor.Matches([]byte("short")) {
		t.Error("Expected mismatch for content of different length")
	}
	if descriptor.Matches(nil) {
		t.Error("Expected mismatch for empty content")
	}
}

func TestContentKindValid(t *testing.T) {
	if !ContentKindText.Valid() || !ContentKindFile.Valid() {
		t.Error("Expected text and file kinds to be valid")
	}
	if ContentKind(0x7f).Valid() {
		t.Error("Expected unknown kind to be invalid")
	}
}
