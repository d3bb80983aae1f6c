package container

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const testRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func buildZip(t *testing.T, files map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func minimalPackage(t *testing.T) []byte {
	files := map[string]string{
		ContentTypesPart:    testContentTypes,
		"_rels/.rels":       testRootRels,
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body/></w:document>`,
	}
	return buildZip(t, files, []string{"word/document.xml", ContentTypesPart, "_rels/.rels"})
}

func TestOpen(t *testing.T) {
	t.Run("ValidPackage", func(t *testing.T) {
		pkg, err := Open(minimalPackage(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"word/document.xml", ContentTypesPart, "_rels/.rels"}, pkg.Names())

		doc, err := pkg.Part("/word/document.xml")
		require.NoError(t, err)
		assert.Contains(t, string(doc), "<w:body/>")
	})

	t.Run("NotAZip", func(t *testing.T) {
		_, err := Open([]byte("definitely not a zip"))
		assert.True(t, errors.Is(err, ErrCorruptContainer))
	})

	t.Run("MissingContentTypes", func(t *testing.T) {
		data := buildZip(t, map[string]string{"a.xml": "<a/>"}, []string{"a.xml"})
		_, err := Open(data)
		assert.True(t, errors.Is(err, ErrCorruptContainer))
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		data := minimalPackage(t)
		original := append([]byte(nil), data...)
		pkg, err := Open(data)
		require.NoError(t, err)
		pkg.SetPart("word/document.xml", []byte("<changed/>"))
		_, err = pkg.Serialize()
		require.NoError(t, err)
		assert.Equal(t, original, data)
	})
}

func TestPartAccess(t *testing.T) {
	pkg, err := Open(minimalPackage(t))
	require.NoError(t, err)

	_, err = pkg.Part("word/missing.xml")
	assert.True(t, errors.Is(err, ErrPartNotFound))

	pkg.SetPart("word/extra.xml", []byte("<x/>"))
	assert.True(t, pkg.Has("word/extra.xml"))

	pkg.SetPart("word/extra.xml", []byte("<y/>"))
	data, err := pkg.Part("word/extra.xml")
	require.NoError(t, err)
	assert.Equal(t, "<y/>", string(data))
	assert.Len(t, pkg.Names(), 4)

	pkg.DeletePart("word/extra.xml")
	assert.False(t, pkg.Has("word/extra.xml"))
	assert.Len(t, pkg.Names(), 3)
	_, err = pkg.Part("_rels/.rels")
	assert.NoError(t, err)
}

func TestSerializeRoundTrip(t *testing.T) {
	pkg, err := Open(minimalPackage(t))
	require.NoError(t, err)

	out, err := pkg.Serialize()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	assert.Equal(t, ContentTypesPart, zr.File[0].Name)

	reopened, err := Open(out)
	require.NoError(t, err)
	for _, name := range pkg.Names() {
		want, _ := pkg.Part(name)
		got, err := reopened.Part(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestClone(t *testing.T) {
	pkg, err := Open(minimalPackage(t))
	require.NoError(t, err)

	snapshot := pkg.Clone()
	pkg.SetPart("word/document.xml", []byte("<changed/>"))

	data, err := snapshot.Part("word/document.xml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<w:body/>")
}
