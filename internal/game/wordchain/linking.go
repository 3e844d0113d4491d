package wordchain

const (
	hangulBase  = 0xAC00
	hangulLast  = 0xD7A3
	medialCount = 21
	finalCount  = 28
)

// Initial consonant and vowel indexes within a composed Hangul syllable.
const (
	initialNieun = 2
	initialRieul = 5
	initialIeung = 11
)

// initialSoundRule is the word-initial sound substitution table: for a
// syllable starting with ㄹ or ㄴ followed by one of the listed vowels, the
// initial consonant is replaced as shown.
var initialSoundRule = map[int]map[int]int{
	initialRieul: {
		2: initialIeung, 6: initialIeung, 7: initialIeung, 12: initialIeung, 17: initialIeung, 20: initialIeung, // 랴 려 례 료 류 리
		0: initialNieun, 1: initialNieun, 8: initialNieun, 11: initialNieun, 13: initialNieun, 18: initialNieun, // 라 래 로 뢰 루 르
	},
	initialNieun: {
		6: initialIeung, 12: initialIeung, 17: initialIeung, 20: initialIeung, // 녀 뇨 뉴 니
	},
}

// linkVariant returns the alternate pronunciation of a syllable when it
// starts a word, or false if the syllable has none.
func linkVariant(r rune) (rune, bool) {
	if r < hangulBase || r > hangulLast {
		return 0, false
	}
	offset := int(r - hangulBase)
	initial := offset / (medialCount * finalCount)
	medial := (offset / finalCount) % medialCount
	final := offset % finalCount
	replacement, ok := initialSoundRule[initial][medial]
	if !ok {
		return 0, false
	}
	return rune(hangulBase + (replacement*medialCount+medial)*finalCount + final), true
}

// links reports whether next may follow a word ending in last.
func links(last, next rune) bool {
	if last == next {
		return true
	}
	variant, ok := linkVariant(last)
	return ok && variant == next
}
