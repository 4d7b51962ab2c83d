package flavor

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps file paths matching Pattern to a layout.
//
// Sections, when non-zero, is the section count files of this kind are
// expected to have. See ExpectsCount.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Layout   string `yaml:"layout"`
	Sections int    `yaml:"sections,omitempty"`

	re *regexp.Regexp
}

func (r *Rule) compile() error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Pattern, err)
	}
	r.re = re

	return nil
}

// ExpectsCount reports whether a container of n sections fits the rule.
// A rule without a section count fits any container.
func (r Rule) ExpectsCount(n int) bool {
	return r.Sections == 0 || r.Sections == n
}

// Matches reports whether path matches the rule. Backslashes are read as
// path separators so rule tables work with paths from any platform.
func (r Rule) Matches(path string) bool {
	if r.re == nil {
		return false
	}

	return r.re.MatchString(strings.ReplaceAll(path, `\`, "/"))
}

// DefaultRules returns the rules for the archives shipped with the game, in
// unpack order. Packing walks them in reverse.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: `(^|/)battle_pack\.bin$`, Layout: BattlePack, Sections: 71},
		{Pattern: `(^|/)clutpack_ys\.bin$`, Layout: Otherpack, Sections: 4},
		{Pattern: `(^|/)fontpack_fs\.bin$`, Layout: Otherpack, Sections: 7},
		{Pattern: `(^|/)fontpack_it\.bin$`, Layout: Otherpack, Sections: 6},
		{Pattern: `(^|/)mrppack_ys\.bin$`, Layout: Otherpack, Sections: 23},
		{Pattern: `(^|/)tex2pack_ys\.bin$`, Layout: Otherpack, Sections: 11},
		{Pattern: `(^|/)texpack_ys\.bin$`, Layout: Otherpack, Sections: 5},
		{Pattern: `\.ebp$`, Layout: Ebp, Sections: 20},
		{Pattern: `\.ard$`, Layout: Ard, Sections: 10},
		{Pattern: `menuhandbook_knowledge(00[2-9]|0[12][0-9])\.dat$`, Layout: Himgd},
		{Pattern: `menuhandbook_monster(00[4-9]|0[1-9][0-9]|[12][0-9][2])\.dat$`, Layout: Himgd},
		{Pattern: `menuhandbook_person(00[1-9]|0[12][0-9])\.dat$`, Layout: Himgd},
		{Pattern: `menuhandbook_story(00[1-9]|0[1-9][0-9])\.dat$`, Layout: Himgd},
		{Pattern: `menuhandbook_tutorial(00[1-9]|0[1-4][0-9])\.dat$`, Layout: Himgd},
		{Pattern: `menuhandbook_world(00[1-9]|0[1-4][0-9])\.dat$`, Layout: Himgd},
	}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule table:
//
//	rules:
//	  - pattern: '\.ebp$'
//	    layout: ebp
//	    sections: 20
func LoadRules(r io.Reader) ([]Rule, error) {
	var f rulesFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	if f.Rules == nil {
		f.Rules = []Rule{}
	}

	return f.Rules, nil
}
