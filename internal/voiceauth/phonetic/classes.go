package phonetic

import "strings"

// Class is a coarse articulatory family. Substitutions within one class are
// treated as likely recognition noise.
type Class string

const (
	ClassVowel       Class = "vowel"
	ClassStop        Class = "stop"
	ClassFricative   Class = "fricative"
	ClassAffricate   Class = "affricate"
	ClassNasal       Class = "nasal"
	ClassLiquid      Class = "liquid"
	ClassGlide       Class = "glide"
	ClassPalatalised Class = "palatalised"
)

// classTable covers the Japanese g2p inventory and ARPAbet. Keys are lowercase
// without stress digits; both inventories agree on shared spellings.
var classTable = map[string]Class{
	// Japanese vowels (upper case devoiced forms fold onto these)
	"a": ClassVowel, "i": ClassVowel, "u": ClassVowel, "e": ClassVowel, "o": ClassVowel,
	// ARPAbet vowels
	"aa": ClassVowel, "ae": ClassVowel, "ah": ClassVowel, "ao": ClassVowel, "aw": ClassVowel,
	"ay": ClassVowel, "eh": ClassVowel, "er": ClassVowel, "ey": ClassVowel, "ih": ClassVowel,
	"iy": ClassVowel, "ow": ClassVowel, "oy": ClassVowel, "uh": ClassVowel, "uw": ClassVowel,

	"p": ClassStop, "b": ClassStop, "t": ClassStop, "d": ClassStop, "k": ClassStop, "g": ClassStop,

	"s": ClassFricative, "z": ClassFricative, "sh": ClassFricative, "zh": ClassFricative,
	"f": ClassFricative, "v": ClassFricative, "h": ClassFricative, "hh": ClassFricative,
	"th": ClassFricative, "dh": ClassFricative,

	"ts": ClassAffricate, "ch": ClassAffricate, "j": ClassAffricate, "jh": ClassAffricate,

	"m": ClassNasal, "n": ClassNasal, "ng": ClassNasal,

	"r": ClassLiquid, "l": ClassLiquid,

	"w": ClassGlide, "y": ClassGlide,

	"ky": ClassPalatalised, "gy": ClassPalatalised, "ny": ClassPalatalised, "hy": ClassPalatalised,
	"by": ClassPalatalised, "my": ClassPalatalised, "py": ClassPalatalised, "ry": ClassPalatalised,
	"dy": ClassPalatalised, "ty": ClassPalatalised,
}

// ClassOf returns the class of label. Lookup ignores case and ARPAbet stress digits.
func ClassOf(label string) (Class, bool) {
	c, ok := classTable[normalizeLabel(label)]
	return c, ok
}

// SameClass reports whether both labels are known and share a class.
func SameClass(a, b string) bool {
	ca, okA := ClassOf(a)
	cb, okB := ClassOf(b)
	return okA && okB && ca == cb
}

func normalizeLabel(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	return strings.TrimRight(l, "0123456789")
}
