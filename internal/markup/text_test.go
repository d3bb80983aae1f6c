package markup

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
)

func TestSetTextPreserve(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"plain", ""},
		{" leading", "preserve"},
		{"trailing ", "preserve"},
		{"double  space", "preserve"},
		{"tab\t", "preserve"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			el := etree.NewElement("w:t")
			SetText(el, tt.text)
			assert.Equal(t, tt.text, el.Text())
			assert.Equal(t, tt.want, el.SelectAttrValue("xml:space", ""))
		})
	}
}

func TestSetTextEmpty(t *testing.T) {
	// already empty: attribute stays
	el := etree.NewElement("w:t")
	el.CreateAttr("xml:space", "preserve")
	SetText(el, "")
	assert.Equal(t, "preserve", el.SelectAttrValue("xml:space", ""))
	assert.Empty(t, el.Child)

	// emptied: attribute goes
	el = etree.NewElement("w:t")
	el.CreateAttr("xml:space", "preserve")
	el.SetText(" was here")
	SetText(el, "")
	assert.Nil(t, el.SelectAttr("xml:space"))

	// plain text keeps an existing attribute
	el = etree.NewElement("w:t")
	el.CreateAttr("xml:space", "preserve")
	SetText(el, "word")
	assert.Equal(t, "preserve", el.SelectAttrValue("xml:space", ""))
}
