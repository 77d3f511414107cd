package event

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Distance boundaries in meters.
const (
	middleDistanceMin = 800
	longDistanceMin   = 15_000
	shortWalkMax      = 10_000
	metersPerMile     = 1609.344
)

// Rule names, in evaluation order.
const (
	RuleField    = "field"
	RuleCombined = "combined"
	RuleWalk     = "walk"
	RuleLong     = "long_distance"
	RuleMiddle   = "middle_distance"
	RuleDefault  = "default"
)

var (
	fieldTokens = map[string]bool{
		"hj": true, "pv": true, "lj": true, "tj": true,
		"sp": true, "dt": true, "ht": true, "jt": true, "wt": true,
	}
	fieldKeywords    = []string{"jump", "vault", "throw", "shot", "discus", "hammer", "javelin", "weight"}
	combinedPrefixes = []string{"dec", "hep", "pen", "oct"}
	combinedKeywords = []string{"decathlon", "heptathlon", "pentathlon", "combined"}
	longKeywords     = []string{"marathon", "hour", "half"}
	longTokens       = map[string]bool{"hm": true, "mar": true, "1h": true}
	middleKeywords   = []string{"mile", "steeple", "relay"}

	distancePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)(km|miles?|mi|k|m)`)
	walkSuffix      = regexp.MustCompile(`^\d+(?:\.\d+)?(?:km|k|m)w$`)
	steepleSuffix   = regexp.MustCompile(`\d+m?sc\b`)
	relayPattern    = regexp.MustCompile(`\d+x\d+`)
)

// features holds the normalized views of an identifier every rule inspects.
type features struct {
	lower    string
	compact  string
	tokens   map[string]bool
	distance float64
	hasDist  bool
}

func extract(id string) features {
	lower := strings.ToLower(strings.TrimSpace(id))
	f := features{
		lower:   lower,
		compact: strings.Map(dropSpace, lower),
		tokens:  make(map[string]bool),
	}
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		f.tokens[tok] = true
	}
	if m := distancePattern.FindStringSubmatch(f.compact); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch {
			case m[2] == "km" || m[2] == "k":
				n *= 1000
			case strings.HasPrefix(m[2], "mi"):
				n *= metersPerMile
			}
			f.distance, f.hasDist = n, true
		}
	}
	return f
}

func dropSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	return r
}

func (f features) containsAny(words []string) bool {
	for _, w := range words {
		if strings.Contains(f.compact, w) {
			return true
		}
	}
	return false
}

func (f features) tokenIn(set map[string]bool) bool {
	for tok := range f.tokens {
		if set[tok] {
			return true
		}
	}
	return false
}

func (f features) tokenHasPrefix(prefixes []string) bool {
	for tok := range f.tokens {
		for _, p := range prefixes {
			if strings.HasPrefix(tok, p) {
				return true
			}
		}
	}
	return false
}

func (f features) combined() bool {
	return f.containsAny(combinedKeywords) || f.tokenHasPrefix(combinedPrefixes)
}

func (f features) walk() bool {
	return strings.Contains(f.compact, "walk") || f.tokens["rw"] || walkSuffix.MatchString(f.compact)
}

// rule maps features to a kind when its predicate holds.
type rule struct {
	name  string
	apply func(f features) (Kind, bool)
}

// defaultRules is the ordered decision list. First match wins; order is the
// only tie-breaker.
var defaultRules = []rule{
	{name: RuleField, apply: func(f features) (Kind, bool) {
		isField := f.tokenIn(fieldTokens) || f.containsAny(fieldKeywords)
		return KindField, isField && !f.combined()
	}},
	{name: RuleCombined, apply: func(f features) (Kind, bool) {
		return KindScore, f.combined()
	}},
	{name: RuleWalk, apply: func(f features) (Kind, bool) {
		if !f.walk() {
			return 0, false
		}
		if f.hasDist && f.distance <= shortWalkMax {
			return KindMiddleTime, true
		}
		return KindLongTime, true
	}},
	{name: RuleLong, apply: func(f features) (Kind, bool) {
		if f.containsAny(longKeywords) || f.tokenIn(longTokens) {
			return KindLongTime, true
		}
		return KindLongTime, f.hasDist && f.distance >= longDistanceMin
	}},
	{name: RuleMiddle, apply: func(f features) (Kind, bool) {
		if f.containsAny(middleKeywords) || steepleSuffix.MatchString(f.compact) || relayPattern.MatchString(f.compact) {
			return KindMiddleTime, true
		}
		return KindMiddleTime, f.hasDist && f.distance >= middleDistanceMin
	}},
	{name: RuleDefault, apply: func(features) (Kind, bool) {
		return KindShortTime, true
	}},
}

// Classifier evaluates an ordered list of keyword rules.
type Classifier struct {
	rules []rule
}

// NewClassifier returns a classifier with the standard rule order.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules}
}

// Rules returns the rule names in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.name
	}
	return names
}

// Explain classifies id and also returns the name of the rule that decided it.
func (c *Classifier) Explain(id string) (Descriptor, string) {
	f := extract(id)
	for _, r := range c.rules {
		if kind, ok := r.apply(f); ok {
			return Descriptor{ID: id, Label: strings.TrimSpace(id), Kind: kind}, r.name
		}
	}
	return Descriptor{ID: id, Label: strings.TrimSpace(id), Kind: KindShortTime}, RuleDefault
}

// Classify returns the descriptor for an event identifier.
func (c *Classifier) Classify(id string) Descriptor {
	d, _ := c.Explain(id)
	return d
}

var std = NewClassifier()

// Classify classifies id with the standard rules.
func Classify(id string) Descriptor {
	return std.Classify(id)
}
