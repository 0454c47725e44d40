// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package models

import (
	"reflect"
	"sort"
	"testing"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "rock", []string{"rock"}},
		{"multiple", "rock,pop,jazz", []string{"rock", "pop", "jazz"}},
		{"whitespace", " rock , pop ", []string{"rock", "pop"}},
		{"empty tokens dropped", "rock,,pop,", []string{"rock", "pop"}},
		{"only commas", ",,,", []string{}},
		{"case preserved", "Rock,POP", []string{"Rock", "POP"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTags(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTags(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTagSetNormalizes(t *testing.T) {
	set := ParseTagSet(" Rock , POP ,rock")

	tokens := set.Tokens()
	sort.Strings(tokens)
	if !reflect.DeepEqual(tokens, []string{"pop", "rock"}) {
		t.Errorf("expected deduplicated lowercase tokens, got %v", tokens)
	}
}

func TestTagSetContains(t *testing.T) {
	set := ParseTagSet("fast,loud")

	if !set.Contains("FAST") {
		t.Error("expected case-insensitive membership")
	}
	if !set.Contains(" loud ") {
		t.Error("expected trimmed membership")
	}
	if set.Contains("slow") {
		t.Error("did not expect slow in set")
	}
}

func TestTagSetAddDropsEmpty(t *testing.T) {
	set := make(TagSet)
	set.Add("  ")
	set.Add("")

	if len(set) != 0 {
		t.Errorf("expected empty set, got %v", set.Tokens())
	}
}
