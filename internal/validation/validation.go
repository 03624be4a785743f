// Package validation checks user-supplied paths, identifiers and input
// files before they reach the catalog, score and store readers.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user input.
const (
	// MaxFileSize is the maximum size of a catalog or score file after
	// decompression (16 MB).
	MaxFileSize = 16 << 20
	// MaxIDLength is the maximum length of an order, instrument or family id.
	MaxIDLength = 255
	// MaxStaves is the maximum number of staves of one part.
	MaxStaves = 32
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// sniffLength is how much of a file SniffFileType looks at.
	sniffLength = 512
)

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrInvalidID        = errors.New("invalid id")
	ErrIDTooLong        = errors.New("id too long")
	ErrFileTooLarge     = errors.New("file too large")
	ErrTypeMismatch     = errors.New("file type mismatch")
)

// ValidatePath checks a path for length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateID checks an order, instrument or family id. Ids are compared
// byte for byte, so surrounding whitespace is rejected rather than trimmed.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > MaxIDLength {
		return ErrIDTooLong
	}
	if strings.TrimSpace(id) != id {
		return fmt.Errorf("%w: leading or trailing space", ErrInvalidID)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// FileType is the detected type of an input file.
type FileType string

const (
	FileTypeXZ      FileType = "xz"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeXML     FileType = "xml"
	FileTypeText    FileType = "text"
	FileTypeUnknown FileType = "unknown"
)

var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeSQLite, []byte("SQLite format 3\x00")},
}

// SniffFileType determines the type of a file from its first bytes and its
// name. Content wins over the extension when the content is recognized; a
// recognized content type that contradicts a recognized extension is an
// error.
func SniffFileType(head []byte, filename string) (FileType, error) {
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	detected := detectFileTypeFromMagic(head)
	expected := detectFileTypeFromExtension(filename)

	switch {
	case detected == expected:
		return detected, nil
	case detected == FileTypeUnknown && (expected == FileTypeXML || expected == FileTypeText):
		if isLikelyText(head) {
			return expected, nil
		}
		return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is binary", ErrTypeMismatch, expected)
	case detected == FileTypeUnknown:
		return expected, nil
	case expected == FileTypeUnknown:
		return detected, nil
	}
	return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
}

// ValidateFileType reads the head of r and sniffs its type. It consumes up
// to 512 bytes of r.
func ValidateFileType(r io.Reader, filename string) (FileType, error) {
	buf := make([]byte, sniffLength)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	return SniffFileType(buf[:n], filename)
}

func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

func detectFileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xz":
		return FileTypeXZ
	case ".db", ".sqlite", ".sqlite3":
		return FileTypeSQLite
	case ".xml":
		return FileTypeXML
	case ".score", ".txt":
		return FileTypeText
	default:
		return FileTypeUnknown
	}
}

// isLikelyText reports whether buf looks like UTF-8 or ASCII text.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}
	printable, control := 0, 0
	for _, b := range buf {
		switch {
		case b >= 0x20 && b <= 0x7e, b == '\t', b == '\n', b == '\r':
			printable++
		case b < 0x20:
			control++
		}
	}
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}

// LimitReader returns a reader that fails with ErrFileTooLarge once more
// than limit bytes have been read from r.
func LimitReader(r io.Reader, limit int64) io.Reader {
	return &limitedReader{r: r, remaining: limit}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}
