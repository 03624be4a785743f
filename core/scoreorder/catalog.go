package scoreorder

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/xml"
	"github.com/FocuswithJustin/ScoreOrder/internal/logging"
	"github.com/FocuswithJustin/ScoreOrder/internal/validation"
)

//go:embed orders.xml
var defaultOrdersXML []byte

// catalogRoot is the root element of a catalog file.
const catalogRoot = "museScore"

// LoadDefault merges the built-in catalog into r.
func (r *Registry) LoadDefault() error {
	return r.ReadFrom(bytes.NewReader(defaultOrdersXML))
}

// ReadFrom merges a catalog document into r.
func (r *Registry) ReadFrom(rd io.Reader) error {
	doc, err := xml.ParseReader(rd)
	if err != nil {
		return errors.NewParse("catalog", "", err)
	}
	root := doc.Root()
	if root == nil || root.Name() != catalogRoot {
		return errors.NewParse("catalog", "", errors.NewValidation("root", rootName(root), "expected "+catalogRoot))
	}
	r.Read(root)
	return nil
}

func rootName(n *xml.Node) string {
	if n == nil {
		return ""
	}
	return n.Name()
}

// Encode writes the catalog document of r to w.
func (r *Registry) Encode(w io.Writer) error {
	x := xml.NewWriter(w)
	r.Write(x)
	return x.Flush()
}

// Digest returns the hex BLAKE3 hash of the encoded catalog.
func (r *Registry) Digest() (string, error) {
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		return "", err
	}
	sum := blake3.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".xz")
}

// Load merges the catalog file at path into r. Compressed files are
// recognized by content or by the .xz suffix.
func (r *Registry) Load(path string) error {
	if err := validation.ValidatePath(path); err != nil {
		return errors.NewIO("open", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		logging.CatalogError("open", path, err)
		return errors.NewIO("open", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF {
		logging.CatalogError("read", path, err)
		return errors.NewIO("read", path, err)
	}
	kind, err := validation.SniffFileType(head, path)
	if err != nil {
		logging.CatalogError("sniff", path, err)
		return errors.NewParse("catalog", path, err)
	}

	var rd io.Reader = br
	if kind == validation.FileTypeXZ {
		xzr, err := xz.NewReader(br)
		if err != nil {
			logging.CatalogError("decompress", path, err)
			return errors.NewIO("decompress", path, err)
		}
		rd = xzr
	}
	rd = validation.LimitReader(rd, validation.MaxFileSize)

	before := r.Len()
	if err := r.ReadFrom(rd); err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		logging.CatalogError("parse", path, err)
		return err
	}
	logging.CatalogEvent("loaded", path, "orders", r.Len(), "added", r.Len()-before)
	return nil
}

// Save writes the catalog of r to path, replacing the file atomically.
// Paths ending in .xz are compressed.
func (r *Registry) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.CatalogError("mkdir", dir, err)
		return errors.NewIO("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".orders-*")
	if err != nil {
		logging.CatalogError("create", path, err)
		return errors.NewIO("create", path, err)
	}
	tmpPath := tmp.Name()

	if err := r.encodeTo(tmp, compressed(path)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		logging.CatalogError("write", path, err)
		return errors.NewIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		logging.CatalogError("close", path, err)
		return errors.NewIO("close", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		logging.CatalogError("rename", path, err)
		return errors.NewIO("rename", path, err)
	}
	logging.CatalogEvent("saved", path, "orders", r.Len())
	return nil
}

func (r *Registry) encodeTo(w io.Writer, xzCompressed bool) error {
	if !xzCompressed {
		return r.Encode(w)
	}
	xw, err := xz.NewWriter(w)
	if err != nil {
		return err
	}
	if err := r.Encode(xw); err != nil {
		xw.Close()
		return err
	}
	return xw.Close()
}
