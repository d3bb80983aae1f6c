package document

import (
	"math"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
)

// maxLengthDelta is the largest relative change in length for which a
// translation is still split proportionally.
const maxLengthDelta = 0.5

// Redistribute replaces the text of nodes with translated, split by Split
// over the nodes' current lengths.
func Redistribute(nodes []*etree.Element, translated string) {
	if len(nodes) == 0 {
		return
	}
	lengths := make([]int, len(nodes))
	for i, n := range nodes {
		lengths[i] = utf8.RuneCountInString(n.Text())
	}
	for i, piece := range Split(lengths, translated) {
		markup.SetText(nodes[i], piece)
	}
}

// Split cuts translated into len(lengths) pieces. If the translation is
// within half the original total length, piece i gets round(T*len_i/total)
// characters and the last piece takes the remainder. Otherwise the first
// piece gets everything and the rest are empty. Lengths count characters,
// not bytes, and the pieces always concatenate to translated.
func Split(lengths []int, translated string) []string {
	n := len(lengths)
	if n == 0 {
		return nil
	}

	out := make([]string, n)
	total := 0
	for _, l := range lengths {
		total += l
	}
	runes := []rune(translated)
	t := len(runes)

	if n == 1 || total == 0 || math.Abs(float64(t-total)) > maxLengthDelta*float64(total) {
		out[0] = translated
		return out
	}

	pos := 0
	for i := 0; i < n-1; i++ {
		k := int(math.Round(float64(t) * float64(lengths[i]) / float64(total)))
		if k > t-pos {
			k = t - pos
		}
		out[i] = string(runes[pos : pos+k])
		pos += k
	}
	out[n-1] = string(runes[pos:])
	return out
}
