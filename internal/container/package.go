// Package container reads and writes OPC compound packages (the zip
// container behind .docx files) entirely in memory.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ContentTypesPart is the name of the package content-type manifest.
const ContentTypesPart = "[Content_Types].xml"

var (
	// ErrCorruptContainer is returned when the input is not a readable package.
	ErrCorruptContainer = errors.New("corrupt container")

	// ErrPartNotFound is returned when a named part does not exist.
	ErrPartNotFound = errors.New("part not found")
)

// part is a single named entry of the package.
type part struct {
	name     string
	data     []byte
	method   uint16
	modified time.Time
}

// Package is an addressable collection of named binary parts.
type Package struct {
	parts []*part
	index map[string]int
}

// New creates an empty package.
func New() *Package {
	return &Package{index: make(map[string]int)}
}

// Open reads a package from data. The input buffer is never modified.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptContainer, err)
	}

	pkg := New()
	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}

		content, err := readFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrCorruptContainer, file.Name, err)
		}

		name := normalizeName(file.Name)
		if _, dup := pkg.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate part %s", ErrCorruptContainer, name)
		}
		pkg.index[name] = len(pkg.parts)
		pkg.parts = append(pkg.parts, &part{
			name:     name,
			data:     content,
			method:   file.Method,
			modified: file.Modified,
		})
	}

	if !pkg.Has(ContentTypesPart) {
		return nil, fmt.Errorf("%w: missing %s", ErrCorruptContainer, ContentTypesPart)
	}

	return pkg, nil
}

func readFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Has reports whether the package contains the named part.
func (p *Package) Has(name string) bool {
	_, ok := p.index[normalizeName(name)]
	return ok
}

// Part returns the raw bytes of the named part.
func (p *Package) Part(name string) ([]byte, error) {
	i, ok := p.index[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	return p.parts[i].data, nil
}

// SetPart inserts or replaces the named part. The data is copied.
func (p *Package) SetPart(name string, data []byte) {
	name = normalizeName(name)
	content := append([]byte(nil), data...)

	if i, ok := p.index[name]; ok {
		p.parts[i].data = content
		p.parts[i].modified = time.Now()
		return
	}

	p.index[name] = len(p.parts)
	p.parts = append(p.parts, &part{
		name:     name,
		data:     content,
		method:   zip.Deflate,
		modified: time.Now(),
	})
}

// DeletePart removes the named part if present.
func (p *Package) DeletePart(name string) {
	name = normalizeName(name)
	i, ok := p.index[name]
	if !ok {
		return
	}

	p.parts = append(p.parts[:i], p.parts[i+1:]...)
	delete(p.index, name)
	for j := i; j < len(p.parts); j++ {
		p.index[p.parts[j].name] = j
	}
}

// Names returns the part names in archive order.
func (p *Package) Names() []string {
	names := make([]string, len(p.parts))
	for i, pt := range p.parts {
		names[i] = pt.name
	}
	return names
}

// Serialize writes the package as a zip archive. The content-type manifest
// is always the first entry; unmodified parts keep their bytes and
// compression method.
func (p *Package) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	ordered := make([]*part, 0, len(p.parts))
	if i, ok := p.index[ContentTypesPart]; ok {
		ordered = append(ordered, p.parts[i])
	}
	for _, pt := range p.parts {
		if pt.name != ContentTypesPart {
			ordered = append(ordered, pt)
		}
	}

	for _, pt := range ordered {
		method := pt.method
		if method != zip.Store {
			method = zip.Deflate
		}

		header := &zip.FileHeader{
			Name:     pt.name,
			Method:   method,
			Modified: pt.modified,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create entry %s: %w", pt.name, err)
		}
		if _, err := w.Write(pt.data); err != nil {
			return nil, fmt.Errorf("failed to write entry %s: %w", pt.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

// Clone returns a deep copy of the package, usable as a snapshot.
func (p *Package) Clone() *Package {
	c := New()
	for _, pt := range p.parts {
		c.index[pt.name] = len(c.parts)
		c.parts = append(c.parts, &part{
			name:     pt.name,
			data:     append([]byte(nil), pt.data...),
			method:   pt.method,
			modified: pt.modified,
		})
	}
	return c
}

// normalizeName strips the leading slash used by part URIs.
func normalizeName(name string) string {
	return strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
}
