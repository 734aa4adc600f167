package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Match compares extracted text with the text the caller expected to be read
type Match struct {
	WordErrorRate      float64 `json:"word_error_rate"`
	CharacterErrorRate float64 `json:"character_error_rate"`
}

var turkishLower = cases.Lower(language.Turkish)

// Compare computes word and character error rates of extracted against expected.
// Both texts are lowercased with Turkish rules and whitespace is collapsed first.
func Compare(expected, extracted string) Match {
	refWords := words(expected)
	hypWords := words(extracted)

	return Match{
		WordErrorRate:      wordErrorRate(refWords, hypWords),
		CharacterErrorRate: characterErrorRate(strings.Join(refWords, " "), strings.Join(hypWords, " ")),
	}
}

func words(s string) []string {
	return strings.FieldsFunc(turkishLower.String(s), unicode.IsSpace)
}

func wordErrorRate(ref, hyp []string) float64 {
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}
	rate, _ := wer.WER(ref, hyp)
	return rate
}

func characterErrorRate(ref, hyp string) float64 {
	n := utf8.RuneCountInString(ref)
	if n == 0 {
		if hyp == "" {
			return 0
		}
		return 1
	}
	return float64(levenshtein.Distance(ref, hyp)) / float64(n)
}
