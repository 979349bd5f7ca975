// Package symbols holds the Morse symbol table.
package symbols

import (
	"slices"
	"strings"
	"unicode"
)

// Marks that make up a letter's symbol.
const (
	Dot  = '.'
	Dash = '-'
)

// Symbol is the Morse representation of one character: a sequence of Dot and
// Dash marks, or WordSeparator.
type Symbol string

// WordSeparator is the symbol for the space between words. It never contains
// marks and is never decomposed into them.
const WordSeparator Symbol = "/"

// IsWordSeparator reports whether s separates words.
func (s Symbol) IsWordSeparator() bool {
	return s == WordSeparator
}

// Marks returns the dot/dash marks of s. A word separator has none.
func (s Symbol) Marks() []rune {
	if s.IsWordSeparator() {
		return nil
	}
	return []rune(string(s))
}

var table = map[rune]Symbol{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '/': "-..-.",
	'-': "-....-", '(': "-.--.", ')': "-.--.-",
	' ': WordSeparator,
}

var reverse map[Symbol]rune

func init() {
	reverse = make(map[Symbol]rune, len(table))
	for k, v := range table {
		if !v.IsWordSeparator() {
			reverse[v] = k
		}
	}
}

// Lookup returns the symbol for r. Lookup is case-insensitive.
func Lookup(r rune) (Symbol, bool) {
	s, ok := table[unicode.ToUpper(r)]
	return s, ok
}

// Supported returns every character with a table entry, sorted.
func Supported() []rune {
	result := make([]rune, 0, len(table))
	for r := range table {
		result = append(result, r)
	}
	slices.Sort(result)
	return result
}

// Encode renders text as Morse notation. Letters are separated by a single
// space and words by " / ". Unsupported characters are skipped.
func Encode(text string) string {
	var result []string
	for _, r := range strings.ToUpper(text) {
		if s, ok := table[r]; ok {
			result = append(result, string(s))
		}
	}
	return strings.Join(result, " ")
}

// Decode turns Morse notation produced by Encode back into text. Unknown codes
// are dropped.
func Decode(code string) string {
	var result strings.Builder
	for i, word := range strings.Split(code, string(WordSeparator)) {
		codes := strings.Fields(word)
		if i > 0 {
			result.WriteRune(' ')
		}
		for _, c := range codes {
			if r, ok := reverse[Symbol(c)]; ok {
				result.WriteRune(r)
			}
		}
	}
	return result.String()
}
