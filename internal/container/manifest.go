package container

import (
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

// OPC namespaces and relationship types.
const (
	ContentTypesNamespace  = "http://schemas.openxmlformats.org/package/2006/content-types"
	RelationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

	RelTypeOfficeDocument  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeStyles          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelTypeNumbering       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	RelTypeSettings        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	RelTypeHeader          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	RelTypeFooter          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	RelTypeFootnotes       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footnotes"
	RelTypeEndnotes        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/endnotes"
	RelTypeComments        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	RelTypeHyperlink       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelTypeExtendedProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	RelTypeCoreProperties  = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	TargetModeExternal     = "External"
	relationshipsExtension = "rels"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// ContentTypes represents [Content_Types].xml
type ContentTypes struct {
	XMLName   xml.Name   `xml:"Types"`
	Namespace string     `xml:"xmlns,attr"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// Default represents a default content type
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override represents an override content type
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// NewContentTypes returns a manifest with the defaults every package needs.
func NewContentTypes() *ContentTypes {
	return &ContentTypes{
		Namespace: ContentTypesNamespace,
		Defaults: []Default{
			{Extension: relationshipsExtension, ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
	}
}

// ParseContentTypes decodes a content-type manifest.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	var ct ContentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ContentTypesPart, err)
	}
	return &ct, nil
}

// MediaType returns the media type declared for a part, preferring an
// override over the extension default.
func (ct *ContentTypes) MediaType(name string) (string, bool) {
	partName := "/" + normalizeName(name)
	for _, o := range ct.Overrides {
		if strings.EqualFold(o.PartName, partName) {
			return o.ContentType, true
		}
	}

	ext := strings.TrimPrefix(path.Ext(partName), ".")
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType, true
		}
	}
	return "", false
}

// SetDefault declares the media type for an extension.
func (ct *ContentTypes) SetDefault(ext, contentType string) {
	for i := range ct.Defaults {
		if strings.EqualFold(ct.Defaults[i].Extension, ext) {
			ct.Defaults[i].ContentType = contentType
			return
		}
	}
	ct.Defaults = append(ct.Defaults, Default{Extension: ext, ContentType: contentType})
}

// SetOverride declares the media type for a single part.
func (ct *ContentTypes) SetOverride(name, contentType string) {
	partName := "/" + normalizeName(name)
	for i := range ct.Overrides {
		if strings.EqualFold(ct.Overrides[i].PartName, partName) {
			ct.Overrides[i].ContentType = contentType
			return
		}
	}
	ct.Overrides = append(ct.Overrides, Override{PartName: partName, ContentType: contentType})
}

// Marshal encodes the manifest with an XML declaration.
func (ct *ContentTypes) Marshal() ([]byte, error) {
	ct.XMLName = xml.Name{}
	ct.Namespace = ContentTypesNamespace
	data, err := xml.Marshal(ct)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), data...), nil
}

// Relationships represents a .rels manifest
type Relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Namespace     string         `xml:"xmlns,attr"`
	Relationships []Relationship `xml:"Relationship"`
}

// Relationship represents a relationship
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// External reports whether the relationship points outside the package.
func (r Relationship) External() bool {
	return strings.EqualFold(r.TargetMode, TargetModeExternal)
}

// NewRelationships returns an empty manifest.
func NewRelationships() *Relationships {
	return &Relationships{Namespace: RelationshipsNamespace}
}

// ParseRelationships decodes a .rels manifest.
func ParseRelationships(data []byte) (*Relationships, error) {
	var rels Relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}
	return &rels, nil
}

// Add appends a relationship and returns its generated id.
func (r *Relationships) Add(relType, target string, external bool) string {
	used := make(map[string]bool, len(r.Relationships))
	for _, rel := range r.Relationships {
		used[rel.ID] = true
	}

	n := len(r.Relationships) + 1
	id := "rId" + strconv.Itoa(n)
	for used[id] {
		n++
		id = "rId" + strconv.Itoa(n)
	}

	rel := Relationship{ID: id, Type: relType, Target: target}
	if external {
		rel.TargetMode = TargetModeExternal
	}
	r.Relationships = append(r.Relationships, rel)
	return id
}

// ByType returns relationships whose type ends with the given type's last
// path segment, so strict and transitional namespaces both match.
func (r *Relationships) ByType(relType string) []Relationship {
	suffix := "/" + path.Base(relType)
	var out []Relationship
	for _, rel := range r.Relationships {
		if strings.HasSuffix(rel.Type, suffix) {
			out = append(out, rel)
		}
	}
	return out
}

// Marshal encodes the manifest with an XML declaration.
func (r *Relationships) Marshal() ([]byte, error) {
	r.XMLName = xml.Name{}
	r.Namespace = RelationshipsNamespace
	data, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), data...), nil
}

// RelsPathFor returns the relationship manifest name for a source part.
// The empty source names the package itself.
func RelsPathFor(source string) string {
	source = normalizeName(source)
	if source == "" {
		return "_rels/.rels"
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// SourceOf is the inverse of RelsPathFor. ok is false for non-rels names.
func SourceOf(relsPath string) (string, bool) {
	relsPath = normalizeName(relsPath)
	if relsPath == "_rels/.rels" {
		return "", true
	}
	dir, file := path.Split(relsPath)
	if !strings.HasSuffix(dir, "_rels/") || !strings.HasSuffix(file, ".rels") {
		return "", false
	}
	return strings.TrimSuffix(dir, "_rels/") + strings.TrimSuffix(file, ".rels"), true
}

// ResolveTarget resolves a relationship target relative to its source part.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return normalizeName(target)
	}
	base := path.Dir(normalizeName(source))
	return strings.TrimPrefix(path.Clean(path.Join(base, target)), "./")
}

// ContentTypes loads the package manifest.
func (p *Package) ContentTypes() (*ContentTypes, error) {
	data, err := p.Part(ContentTypesPart)
	if err != nil {
		return nil, err
	}
	return ParseContentTypes(data)
}

// Relationships loads the relationship manifest of a source part. A missing
// manifest yields an empty one.
func (p *Package) Relationships(source string) (*Relationships, error) {
	data, err := p.Part(RelsPathFor(source))
	if err != nil {
		return NewRelationships(), nil
	}
	return ParseRelationships(data)
}

// RelatedParts resolves the internal targets of a source part's
// relationships of the given type, sorted by relationship order.
func (p *Package) RelatedParts(source, relType string) ([]string, error) {
	rels, err := p.Relationships(source)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, rel := range rels.ByType(relType) {
		if rel.External() {
			continue
		}
		out = append(out, ResolveTarget(source, rel.Target))
	}
	return out, nil
}

// MainDocument returns the part targeted by the package officeDocument
// relationship.
func (p *Package) MainDocument() (string, error) {
	parts, err := p.RelatedParts("", RelTypeOfficeDocument)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no officeDocument relationship", ErrPartNotFound)
	}
	return parts[0], nil
}

// sortedNames returns the part names sorted, for stable reporting.
func sortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
