package dictionary

import (
	"bufio"
	_ "embed"
	"strings"

	"github.com/hashicorp/go-set/v3"
	"golang.org/x/text/unicode/norm"
)

//go:embed words.txt
var curatedWords string

// StaticList is the curated word list shipped with the server. It is
// read-only after construction.
type StaticList struct {
	words *set.Set[string]
	order []string
}

func NewStaticList(words []string) *StaticList {
	sl := &StaticList{words: set.New[string](len(words))}
	for _, w := range words {
		w = Normalize(w)
		if w == "" || sl.words.Contains(w) {
			continue
		}
		sl.words.Insert(w)
		sl.order = append(sl.order, w)
	}
	return sl
}

// DefaultStaticList loads the embedded curated list.
func DefaultStaticList() *StaticList {
	var words []string
	scanner := bufio.NewScanner(strings.NewReader(curatedWords))
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	return NewStaticList(words)
}

func (sl *StaticList) Contains(word string) bool {
	return sl.words.Contains(Normalize(word))
}

func (sl *StaticList) Words() []string {
	out := make([]string, len(sl.order))
	copy(out, sl.order)
	return out
}

func (sl *StaticList) Len() int {
	return len(sl.order)
}

// Normalize trims the word and puts Hangul into composed form so that
// decomposed input compares equal to the list.
func Normalize(word string) string {
	return norm.NFC.String(strings.TrimSpace(word))
}
