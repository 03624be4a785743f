package validation

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"relative", "orders.xml", nil},
		{"absolute", "/usr/share/scoreorder/orders.xml.xz", nil},
		{"empty", "", ErrEmptyPath},
		{"too long", strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
		{"null byte", "orders\x00.xml", ErrInvalidCharacter},
		{"newline", "orders\n.xml", ErrInvalidCharacter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr error
	}{
		{"orchestra", nil},
		{"concert-band-0b0e5d5e-8f6a-4c53-9d0a-7f3c0b9e2a11", nil},
		{"<custom>", nil},
		{"", ErrInvalidID},
		{" flute", ErrInvalidID},
		{"flute\t", ErrInvalidID},
		{"fl\x01ute", ErrInvalidCharacter},
		{strings.Repeat("x", MaxIDLength+1), ErrIDTooLong},
	}
	for _, tt := range tests {
		if err := ValidateID(tt.id); !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateID(%q) = %v, want %v", tt.id, err, tt.wantErr)
		}
	}
}

var xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00, 0x04}

func TestSniffFileType(t *testing.T) {
	xml := []byte(`<?xml version="1.0" encoding="UTF-8"?><museScore/>`)
	binary := []byte{0x00, 0x01, 0x02, 0x03}
	sqlite := append([]byte("SQLite format 3\x00"), make([]byte, 16)...)

	tests := []struct {
		name     string
		head     []byte
		filename string
		want     FileType
		wantErr  bool
	}{
		{"xml by extension", xml, "orders.xml", FileTypeXML, false},
		{"xz by extension and magic", xzMagic, "orders.xml.xz", FileTypeXZ, false},
		{"xz by magic only", xzMagic, "orders.catalog", FileTypeXZ, false},
		{"xz content named xml", xzMagic, "orders.xml", FileTypeUnknown, true},
		{"binary named xml", binary, "orders.xml", FileTypeUnknown, true},
		{"score text", []byte("part flute\n"), "quartet.score", FileTypeText, false},
		{"sqlite", sqlite, "orders.db", FileTypeSQLite, false},
		{"sqlite named xz", sqlite, "orders.xz", FileTypeUnknown, true},
		{"unrecognized xz", []byte("not xz"), "bad.xml.xz", FileTypeXZ, false},
		{"unknown", []byte("data"), "orders", FileTypeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SniffFileType(tt.head, tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SniffFileType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("error %v is not ErrTypeMismatch", err)
			}
			if got != tt.want {
				t.Errorf("SniffFileType() = %s, want %s", got, tt.want)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestValidateFileType(t *testing.T) {
	got, err := ValidateFileType(bytes.NewReader(xzMagic), "orders.xz")
	if err != nil || got != FileTypeXZ {
		t.Errorf("ValidateFileType() = %s, %v", got, err)
	}
	if _, err := ValidateFileType(failingReader{}, "orders.xml"); err == nil {
		t.Error("ValidateFileType() with failing reader: error = nil")
	}
}

func TestLimitReader(t *testing.T) {
	data, err := io.ReadAll(LimitReader(strings.NewReader("score"), 5))
	if err != nil || string(data) != "score" {
		t.Errorf("ReadAll() at the limit = %q, %v", data, err)
	}
	_, err = io.ReadAll(LimitReader(strings.NewReader("scores"), 5))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("ReadAll() over the limit error = %v, want ErrFileTooLarge", err)
	}
}
