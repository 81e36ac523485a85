// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package moderation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeywordMatcher finds every occurrence of a fixed keyword set in a text
// with an Aho-Corasick automaton, in time linear in the text length
// regardless of how many keywords there are. Matching ignores case.
//
// A matcher is immutable once built and safe for concurrent use.
//
//	m := NewKeywordMatcher([]string{"广告", "spam"})
//	m.Contains("加我看广告") // true
type KeywordMatcher struct {
	root     *acNode
	keywords []keyword
}

type keyword struct {
	text  string
	runes int
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	// output holds indices into keywords that end at this node.
	output []int
}

// KeywordMatch is one keyword occurrence. Position counts runes, not bytes.
type KeywordMatch struct {
	Keyword  string
	Position int
}

// NewKeywordMatcher builds a matcher for keywords. Blank and duplicate
// keywords are ignored.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	m := &KeywordMatcher{root: newACNode()}

	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		folded := fold(kw)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}

		m.insert(len(m.keywords), folded)
		m.keywords = append(m.keywords, keyword{text: kw, runes: utf8.RuneCountInString(folded)})
	}

	m.buildFailureLinks()
	return m
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode)}
}

func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

func (m *KeywordMatcher) insert(index int, folded string) {
	node := m.root
	for _, ch := range folded {
		next := node.children[ch]
		if next == nil {
			next = newACNode()
			node.children[ch] = next
		}
		node = next
	}
	node.output = append(node.output, index)
}

// buildFailureLinks wires each node to its longest proper suffix in the
// trie, breadth first.
func (m *KeywordMatcher) buildFailureLinks() {
	queue := make([]*acNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
				continue
			}
			child.failure = fail.children[ch]
			child.output = append(child.output, child.failure.output...)
		}
	}
}

// scan walks text through the automaton and calls emit for every match
// until emit returns false.
func (m *KeywordMatcher) scan(text string, emit func(KeywordMatch) bool) {
	if len(m.keywords) == 0 {
		return
	}

	node := m.root
	pos := 0
	for _, ch := range text {
		ch = unicode.ToLower(ch)

		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = m.root
			pos++
			continue
		}
		node = node.children[ch]

		for _, idx := range node.output {
			kw := m.keywords[idx]
			if !emit(KeywordMatch{Keyword: kw.text, Position: pos - kw.runes + 1}) {
				return
			}
		}
		pos++
	}
}

// Match returns every keyword occurrence in text, ordered by end position.
func (m *KeywordMatcher) Match(text string) []KeywordMatch {
	var matches []KeywordMatch
	m.scan(text, func(km KeywordMatch) bool {
		matches = append(matches, km)
		return true
	})
	return matches
}

// First returns the first keyword occurrence in text.
func (m *KeywordMatcher) First(text string) (KeywordMatch, bool) {
	var (
		found KeywordMatch
		ok    bool
	)
	m.scan(text, func(km KeywordMatch) bool {
		found, ok = km, true
		return false
	})
	return found, ok
}

// Contains reports whether any keyword occurs in text.
func (m *KeywordMatcher) Contains(text string) bool {
	_, ok := m.First(text)
	return ok
}

// Len returns the number of distinct keywords.
func (m *KeywordMatcher) Len() int {
	return len(m.keywords)
}
