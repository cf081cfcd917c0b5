package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// LexiconVersion identifies the embedded lexicon. Scores are reproducible for
// a given text and version.
const LexiconVersion = "business-lexicon-1"

const (
	boosterIncr     = 0.293
	boosterDecr     = -0.293
	capsIncr        = 0.733
	negationScalar  = -0.74
	butBefore       = 0.5
	butAfter        = 1.5
	exclaimIncr     = 0.292
	maxExclaims     = 4
	questionIncr    = 0.18
	maxQuestionEmph = 0.96
	normAlpha       = 15.0
)

//go:embed lexicon.txt
var embeddedLexicon string

var boosters = map[string]float64{
	"absolutely": boosterIncr, "amazingly": boosterIncr, "completely": boosterIncr,
	"considerably": boosterIncr, "deeply": boosterIncr, "dramatically": boosterIncr,
	"enormously": boosterIncr, "especially": boosterIncr, "extremely": boosterIncr,
	"greatly": boosterIncr, "highly": boosterIncr, "hugely": boosterIncr,
	"incredibly": boosterIncr, "massively": boosterIncr, "more": boosterIncr,
	"most": boosterIncr, "particularly": boosterIncr, "really": boosterIncr,
	"remarkably": boosterIncr, "sharply": boosterIncr, "significantly": boosterIncr,
	"so": boosterIncr, "substantially": boosterIncr, "totally": boosterIncr,
	"tremendously": boosterIncr, "very": boosterIncr,

	"almost": boosterDecr, "barely": boosterDecr, "hardly": boosterDecr,
	"less": boosterDecr, "little": boosterDecr, "marginally": boosterDecr,
	"modestly": boosterDecr, "partly": boosterDecr, "scarcely": boosterDecr,
	"slightly": boosterDecr, "somewhat": boosterDecr,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nor": {}, "nothing": {},
	"nowhere": {}, "neither": {}, "without": {}, "cannot": {}, "aint": {},
	"isnt": {}, "arent": {}, "wasnt": {}, "werent": {}, "dont": {}, "doesnt": {},
	"didnt": {}, "wont": {}, "wouldnt": {}, "cant": {}, "couldnt": {},
	"shouldnt": {}, "hasnt": {}, "havent": {}, "hadnt": {}, "mustnt": {},
	"neednt": {}, "mightnt": {},
}

// Analyzer is a lexicon and rule based polarity analyzer. It is read-only
// after construction and safe for concurrent use.
type Analyzer struct {
	lexicon map[string]float64
	version string
}

// NewAnalyzer creates analyzer backed by the embedded lexicon
func NewAnalyzer() *Analyzer {
	lexicon, err := ParseLexicon(strings.NewReader(embeddedLexicon))
	if err != nil {
		panic(fmt.Sprintf("sentiment: embedded lexicon is corrupt: %v", err))
	}

	return &Analyzer{lexicon: lexicon, version: LexiconVersion}
}

// NewAnalyzerWithLexicon creates analyzer over a caller supplied lexicon.
// Keys are matched lower-cased; the map is copied.
func NewAnalyzerWithLexicon(lexicon map[string]float64, version string) *Analyzer {
	copied := make(map[string]float64, len(lexicon))
	for word, valence := range lexicon {
		copied[strings.ToLower(word)] = valence
	}

	return &Analyzer{lexicon: copied, version: version}
}

// ParseLexicon reads "word<TAB>valence" lines. Blank lines and lines starting
// with # are ignored.
func ParseLexicon(r io.Reader) (map[string]float64, error) {
	lexicon := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected word and valence", lineNo)
		}

		valence, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid valence %q: %w", lineNo, fields[1], err)
		}
		lexicon[strings.ToLower(fields[0])] = valence
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}

	return lexicon, nil
}

// Version returns the lexicon version the analyzer was built with
func (a *Analyzer) Version() string {
	return a.version
}

// PolarityScore returns the compound score of text in [-1, 1], rounded to
// four decimals. Text with no lexicon hits scores 0.
func (a *Analyzer) PolarityScore(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	lower := make([]string, len(tokens))
	for i, tok := range tokens {
		lower[i] = strings.ToLower(tok)
	}
	capDiff := allCapsDifferential(tokens)

	valences := make([]float64, len(tokens))
	for i := range tokens {
		if _, ok := boosters[lower[i]]; ok {
			continue
		}
		valences[i] = a.valence(tokens, lower, i, capDiff)
	}

	applyButRule(lower, valences)

	var sum float64
	for _, v := range valences {
		sum += v
	}

	if sum != 0 {
		emphasis := punctuationEmphasis(text)
		if sum > 0 {
			sum += emphasis
		} else {
			sum -= emphasis
		}
	}

	return round4(normalize(sum))
}

func (a *Analyzer) valence(tokens, lower []string, i int, capDiff bool) float64 {
	v, ok := a.lexicon[lower[i]]
	if !ok {
		return 0
	}

	if capDiff && isAllCaps(tokens[i]) {
		v += signed(capsIncr, v)
	}

	// look back over up to three preceding words that are not themselves
	// sentiment bearing
	for dist := 1; dist <= 3 && i-dist >= 0; dist++ {
		prev := i - dist
		if _, inLexicon := a.lexicon[lower[prev]]; inLexicon {
			continue
		}

		s := boosterScalar(tokens[prev], lower[prev], v, capDiff)
		switch dist {
		case 2:
			s *= 0.95
		case 3:
			s *= 0.9
		}
		v += s

		if isNegation(lower[prev]) {
			v *= negationScalar
		}
	}

	return v
}

func boosterScalar(token, lower string, valence float64, capDiff bool) float64 {
	scalar, ok := boosters[lower]
	if !ok {
		return 0
	}
	if valence < 0 {
		scalar = -scalar
	}
	if capDiff && isAllCaps(token) {
		scalar += signed(capsIncr, valence)
	}
	return scalar
}

// applyButRule dampens sentiment before the first "but" and amplifies it after
func applyButRule(lower []string, valences []float64) {
	idx := -1
	for i, w := range lower {
		if w == "but" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	for i := range valences {
		switch {
		case i < idx:
			valences[i] *= butBefore
		case i > idx:
			valences[i] *= butAfter
		}
	}
}

func punctuationEmphasis(text string) float64 {
	exclaims := strings.Count(text, "!")
	if exclaims > maxExclaims {
		exclaims = maxExclaims
	}
	emphasis := float64(exclaims) * exclaimIncr

	if questions := strings.Count(text, "?"); questions > 1 {
		if questions <= 3 {
			emphasis += float64(questions) * questionIncr
		} else {
			emphasis += maxQuestionEmph
		}
	}

	return emphasis
}

func normalize(score float64) float64 {
	n := score / math.Sqrt(score*score+normAlpha)
	if n < -1 {
		return -1
	}
	if n > 1 {
		return 1
	}
	return n
}

func round4(v float64) float64 {
	r := math.Round(v*10000) / 10000
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

func signed(magnitude, reference float64) float64 {
	if reference < 0 {
		return -magnitude
	}
	return magnitude
}

// tokenize splits on whitespace, trims surrounding punctuation and drops
// single character tokens
func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))

	for _, f := range fields {
		t := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if len([]rune(t)) < 2 {
			continue
		}
		tokens = append(tokens, t)
	}

	return tokens
}

func isNegation(word string) bool {
	word = strings.NewReplacer("'", "", "’", "").Replace(word)
	_, ok := negations[word]
	return ok
}

func isAllCaps(token string) bool {
	hasLetter := false
	for _, r := range token {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// allCapsDifferential reports whether some but not all tokens are shouted
func allCapsDifferential(tokens []string) bool {
	caps := 0
	for _, t := range tokens {
		if isAllCaps(t) {
			caps++
		}
	}
	return caps > 0 && caps < len(tokens)
}
