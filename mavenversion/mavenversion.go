// Copyright 2026 The jgo-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mavenversion implements Maven's version ordering: tokenization on
// '.'/'-'/'_' and digit-letter transitions, qualifier normalization, and
// the null-padding comparison Maven itself uses in ComparableVersion.
package mavenversion

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidVersion is returned for version strings that cannot be tokenized.
var ErrInvalidVersion = errors.New("mavenversion: invalid version")

var (
	digitToNonDigitTransition = regexp.MustCompile(`\D\d`)
	nonDigitToDigitTransition = regexp.MustCompile(`\d\D`)
)

var keywordOrder = []string{"alpha", "beta", "milestone", "rc", "snapshot", "", "sp"}

func keywordRank(keyword string) int {
	for i, k := range keywordOrder {
		if k == keyword {
			return i
		}
	}
	return len(keywordOrder)
}

func toBigInt(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}

// token is one component of a tokenized Maven version, carrying the
// separator ('.' or '-') that preceded it.
type token struct {
	prefix string
	value  string
	isNull bool
}

func (t token) equal(o token) bool {
	return t.prefix == o.prefix && t.value == o.value
}

func (t token) shouldTrim() bool {
	return t.value == "0" || t.value == "" || t.value == "final" || t.value == "ga"
}

// qualifierOrder ranks a token by prefix/numeric-ness for the case where two
// tokens being compared have different prefixes: ".qualifier" < "-qualifier"
// < "-number" < ".number".
func (t token) qualifierOrder() (int, error) {
	_, isNum := toBigInt(t.value)

	if isNum {
		if t.prefix == "-" {
			return 2, nil
		}
		if t.prefix == "." {
			return 3, nil
		}
	}

	if t.prefix == "-" {
		return 1, nil
	}
	if t.prefix == "." {
		return 0, nil
	}

	return 0, fmt.Errorf("%w: unknown separator %q", ErrInvalidVersion, t.prefix)
}

func (t token) lessThan(o token) (bool, error) {
	if t.prefix == o.prefix {
		lv, lok := toBigInt(t.value)
		rv, rok := toBigInt(o.value)

		if lok && rok {
			return lv.Cmp(rv) == -1, nil
		}

		// Numerics sort after non-numerics unless the numeric side is a
		// synthetic null pad.
		if lok && !t.isNull {
			return false, nil
		}
		if rok && !o.isNull {
			return true, nil
		}

		li, ri := keywordRank(t.value), keywordRank(o.value)
		if li == len(keywordOrder) && ri == len(keywordOrder) {
			return t.value < o.value, nil
		}
		return li < ri, nil
	}

	lo, err := t.qualifierOrder()
	if err != nil {
		return false, err
	}
	ro, err := o.qualifierOrder()
	if err != nil {
		return false, err
	}
	return lo < ro, nil
}

func nullToken(like token) (token, error) {
	switch like.prefix {
	case ".":
		v := "0"
		if like.value == "sp" {
			v = ""
		}
		return token{".", v, true}, nil
	case "-":
		return token{"-", "", true}, nil
	}
	return token{}, fmt.Errorf("%w: unknown separator %q", ErrInvalidVersion, like.prefix)
}

// Version is a parsed, comparable Maven version.
type Version struct {
	raw    string
	tokens []token
}

// String returns the original version string.
func (v Version) String() string { return v.raw }

func (v Version) equal(w Version) bool {
	if len(v.tokens) != len(w.tokens) {
		return false
	}
	for i := range v.tokens {
		if !v.tokens[i].equal(w.tokens[i]) {
			return false
		}
	}
	return true
}

func (v Version) lessThan(w Version) (bool, error) {
	n := max(len(v.tokens), len(w.tokens))

	var left, right token
	var err error

	for i := 0; i < n; i++ {
		if i >= len(v.tokens) {
			left, err = nullToken(w.tokens[i])
			if err != nil {
				return false, err
			}
		} else {
			left = v.tokens[i]
		}

		if i >= len(w.tokens) {
			right, err = nullToken(v.tokens[i])
			if err != nil {
				return false, err
			}
		} else {
			right = w.tokens[i]
		}

		if left.equal(right) {
			continue
		}
		return left.lessThan(right)
	}

	return false, nil
}

// Compare returns -1, 0, or +1 as v is less than, equal to, or greater than
// w, per Maven version ordering.
func (v Version) Compare(w Version) (int, error) {
	if v.equal(w) {
		return 0, nil
	}
	lt, err := v.lessThan(w)
	if err != nil {
		return 0, err
	}
	if lt {
		return -1, nil
	}
	return 1, nil
}

// Less reports whether s1 sorts before s2 under Maven version ordering,
// treating unparseable input as never-less-than (so that a malformed
// version sorts last rather than panicking callers using it as a
// sort.Interface Less function).
func Less(s1, s2 string) bool {
	v1, v2 := Parse(s1), Parse(s2)
	lt, err := v1.lessThan(v2)
	if err != nil {
		return false
	}
	return lt
}

func findTransitions(s string) []int {
	var idx []int
	for _, span := range digitToNonDigitTransition.FindAllStringIndex(s, -1) {
		idx = append(idx, span[0]+1)
	}
	for _, span := range nonDigitToDigitTransition.FindAllStringIndex(s, -1) {
		idx = append(idx, span[0]+1)
	}
	sort.Ints(idx)
	return idx
}

func splitCharsInclusive(s, chars string) []string {
	var out []string
	for {
		m := strings.IndexAny(s, chars)
		if m < 0 {
			break
		}
		out = append(out, s[:m], s[m:m+1])
		s = s[m+1:]
	}
	return append(out, s)
}

// Parse tokenizes a Maven version string. Parse never fails: malformed
// input is tokenized byte-for-byte and simply sorts the way Maven's own
// ComparableVersion would sort it.
func Parse(str string) Version {
	var tokens []token

	rawTokens := splitCharsInclusive(str, "-._")

	var prefix string
	for i := 0; i < len(rawTokens); i += 2 {
		if i == 0 {
			prefix = ""
		} else {
			prefix = rawTokens[i-1]
			// '_' separates tokens exactly like '-'.
			if prefix == "_" {
				prefix = "-"
			}
		}

		transitions := findTransitions(rawTokens[i])
		transitions = append(transitions, len(rawTokens[i]))

		prevIndex := 0
		for j, transition := range transitions {
			if j > 0 {
				prefix = "-"
			}

			current := strings.ToLower(rawTokens[i][prevIndex:transition])
			if current == "" {
				current = "0"
			}

			if current == "cr" {
				current = "rc"
			}
			if current == "ga" || current == "final" || current == "release" {
				current = ""
			}

			if transition != len(rawTokens[i]) {
				switch current {
				case "a":
					current = "alpha"
				case "b":
					current = "beta"
				case "m":
					current = "milestone"
				}
			}

			if d, ok := toBigInt(current); ok {
				current = d.String()
			}

			tokens = append(tokens, token{prefix, current, false})
			prevIndex = transition
		}
	}

	i := len(tokens) - 1
	for i > 0 {
		if tokens[i].shouldTrim() {
			tokens = append(tokens[:i], tokens[i+1:]...)
			i--
			continue
		}
		for i >= 0 && tokens[i].prefix != "-" {
			i--
		}
		i--
	}

	return Version{raw: str, tokens: tokens}
}

// IsSnapshot reports whether a version string is a SNAPSHOT version.
func IsSnapshot(version string) bool {
	return strings.HasSuffix(version, "-SNAPSHOT")
}
