package container

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelsPaths(t *testing.T) {
	tests := []struct {
		source string
		rels   string
	}{
		{"", "_rels/.rels"},
		{"word/document.xml", "word/_rels/document.xml.rels"},
		{"/word/header1.xml", "word/_rels/header1.xml.rels"},
		{"document.xml", "_rels/document.xml.rels"},
	}

	for _, tt := range tests {
		t.Run(tt.rels, func(t *testing.T) {
			assert.Equal(t, tt.rels, RelsPathFor(tt.source))
			source, ok := SourceOf(tt.rels)
			assert.True(t, ok)
			assert.Equal(t, normalizeName(tt.source), source)
		})
	}

	_, ok := SourceOf("word/document.xml")
	assert.False(t, ok)
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "word/document.xml", ResolveTarget("", "word/document.xml"))
	assert.Equal(t, "word/styles.xml", ResolveTarget("word/document.xml", "styles.xml"))
	assert.Equal(t, "customXml/item1.xml", ResolveTarget("word/document.xml", "../customXml/item1.xml"))
	assert.Equal(t, "word/media/a.png", ResolveTarget("word/document.xml", "/word/media/a.png"))
}

func TestContentTypes(t *testing.T) {
	ct, err := ParseContentTypes([]byte(testContentTypes))
	require.NoError(t, err)

	mt, ok := ct.MediaType("word/document.xml")
	assert.True(t, ok)
	assert.Contains(t, mt, "document.main+xml")

	mt, ok = ct.MediaType("word/styles.xml")
	assert.True(t, ok)
	assert.Equal(t, "application/xml", mt)

	_, ok = ct.MediaType("word/media/image1.png")
	assert.False(t, ok)

	ct.SetDefault("png", "image/png")
	ct.SetOverride("/word/styles.xml", "application/styles")
	ct.SetOverride("word/styles.xml", "application/styles+xml")

	data, err := ct.Marshal()
	require.NoError(t, err)

	reparsed, err := ParseContentTypes(data)
	require.NoError(t, err)
	mt, _ = reparsed.MediaType("word/media/image1.png")
	assert.Equal(t, "image/png", mt)
	mt, _ = reparsed.MediaType("word/styles.xml")
	assert.Equal(t, "application/styles+xml", mt)
	assert.Len(t, reparsed.Overrides, 2)
}

func TestRelationships(t *testing.T) {
	rels := NewRelationships()
	id1 := rels.Add(RelTypeStyles, "styles.xml", false)
	id2 := rels.Add(RelTypeHyperlink, "https://example.com", true)
	assert.Equal(t, "rId1", id1)
	assert.Equal(t, "rId2", id2)

	links := rels.ByType(RelTypeHyperlink)
	require.Len(t, links, 1)
	assert.True(t, links[0].External())

	strict := &Relationships{Relationships: []Relationship{
		{ID: "rId1", Type: "http://purl.oclc.org/ooxml/officeDocument/relationships/header", Target: "header1.xml"},
	}}
	assert.Len(t, strict.ByType(RelTypeHeader), 1)
}

func TestMainDocumentAndValidate(t *testing.T) {
	pkg, err := Open(minimalPackage(t))
	require.NoError(t, err)

	main, err := pkg.MainDocument()
	require.NoError(t, err)
	assert.Equal(t, "word/document.xml", main)
	assert.NoError(t, Validate(pkg))

	t.Run("MissingTarget", func(t *testing.T) {
		broken := pkg.Clone()
		broken.DeletePart("word/document.xml")
		err := Validate(broken)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Error(), "missing part word/document.xml")
	})

	t.Run("OrphanedRelationships", func(t *testing.T) {
		broken := pkg.Clone()
		broken.SetPart("word/_rels/gone.xml.rels", []byte(testRootRels))
		err := Validate(broken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orphaned relationships")
	})

	t.Run("MissingMediaType", func(t *testing.T) {
		broken := pkg.Clone()
		broken.SetPart("word/media/image1.png", []byte{0x89})
		err := Validate(broken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no media type for word/media/image1.png")
	})
}
