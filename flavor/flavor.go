// Package flavor defines the built-in container layouts and the file-pattern
// rules that pick a layout for a path.
package flavor

import (
	"fmt"
	"maps"
	"slices"

	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
)

// Built-in layout names.
const (
	Battlepack = "battlepack"
	BattlePack = "battle_pack" // battlepack whose slot 61 is a nested battlepack
	Otherpack  = "otherpack"
	Ebp        = "ebp"
	Ard        = "ard"
	Himgd      = "himgd"
)

const (
	battlePackNestedSlot = 61
	ebpArdSlot           = 19
	ebpTextureSlot       = 6
	ardTailSlot          = 1
	otherpackTerminator  = 0xFFFFFFFF
)

// NewBattlepackLayout returns the layout of a battlepack: a u32 section
// count, count+1 u32 offsets whose last entry is the end of the data, and
// sections aligned to 16 bytes.
func NewBattlepackLayout(name string, opts ...container.LayoutOption) (*container.Layout, error) {
	return container.NewLayout(name, append([]container.LayoutOption{
		container.WithPrefixedCount(0, format.Width32),
		container.WithDirectoryAt(4),
		container.WithEndOffset(),
		container.WithAlignment(16, 0x00),
	}, opts...)...)
}

// NewOtherpackLayout returns the layout of an otherpack: u32 offsets ended
// by 0xFFFFFFFF, the directory padded to 16 bytes with 0xFF.
func NewOtherpackLayout() (*container.Layout, error) {
	return container.NewLayout(Otherpack,
		container.WithTerminatedCount(otherpackTerminator),
		container.WithDirectoryAt(0),
		container.WithDirectoryPadding(0xFF),
		container.WithAlignment(16, 0x00),
	)
}

// NewArdLayout returns the layout of an ard: magic FF12AR03, ten u32
// offsets, payload from 0x30, slot 1 stored after all others.
func NewArdLayout() (*container.Layout, error) {
	return container.NewLayout(Ard,
		container.WithMagic([]byte("FF12AR03")),
		container.WithDirectoryAt(0x08),
		container.WithFixedCount(10),
		container.WithSortedOffsets(),
		container.WithPayloadStart(0x30),
		container.WithAlignment(16, 0x00),
		container.WithTailSlots(ardTailSlot),
	)
}

// NewEbpLayout returns the layout of an ebp: magic EBP2, twenty u32 offsets
// at 0x10, payload from 0x80, slot 19 holding an ard.
func NewEbpLayout(ard *container.Layout) (*container.Layout, error) {
	return container.NewLayout(Ebp,
		container.WithMagic([]byte("EBP2")),
		container.WithDirectoryAt(0x10),
		container.WithFixedCount(20),
		container.WithSortedOffsets(),
		container.WithPayloadStart(0x80),
		container.WithAlignment(16, 0x00),
		container.WithNested(ebpArdSlot, ard),
	)
}

// NewHimgdLayout returns the layout of a himgd picture book: an 8-byte
// magic, a u16 index, a u16 count and u32 offsets padded to 16 bytes.
func NewHimgdLayout() (*container.Layout, error) {
	return container.NewLayout(Himgd,
		container.WithMagic([]byte("himgd\x00\x00\x00")),
		container.WithPrefixedCount(0x0A, format.Width16),
		container.WithDirectoryAt(0x0C),
		container.WithSortedOffsets(),
		container.WithDirectoryPadding(0x00),
		container.WithAlignment(16, 0x00),
	)
}

// Registry resolves layout names and file paths to layouts.
//
// A Registry is built once by NewRegistry and only read afterwards.
type Registry struct {
	layouts map[string]*container.Layout
	rules   []Rule
}

// NewRegistry builds the built-in layouts and compiles rules. A nil rules
// slice selects DefaultRules.
func NewRegistry(rules []Rule) (*Registry, error) {
	battlepack, err := NewBattlepackLayout(Battlepack)
	if err != nil {
		return nil, err
	}

	battlePack, err := NewBattlepackLayout(BattlePack, container.WithNested(battlePackNestedSlot, battlepack))
	if err != nil {
		return nil, err
	}

	otherpack, err := NewOtherpackLayout()
	if err != nil {
		return nil, err
	}

	ard, err := NewArdLayout()
	if err != nil {
		return nil, err
	}

	ebp, err := NewEbpLayout(ard)
	if err != nil {
		return nil, err
	}

	himgd, err := NewHimgdLayout()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		layouts: map[string]*container.Layout{
			Battlepack: battlepack,
			BattlePack: battlePack,
			Otherpack:  otherpack,
			Ard:        ard,
			Ebp:        ebp,
			Himgd:      himgd,
		},
	}

	if rules == nil {
		rules = DefaultRules()
	}

	r.rules = make([]Rule, len(rules))
	for i, rule := range rules {
		if _, ok := r.layouts[rule.Layout]; !ok {
			return nil, fmt.Errorf("rule %q: layout %q: %w", rule.Pattern, rule.Layout, errs.ErrUnknownLayout)
		}

		if err := rule.compile(); err != nil {
			return nil, err
		}
		r.rules[i] = rule
	}

	return r, nil
}

// Layout returns the layout registered under name.
func (r *Registry) Layout(name string) (*container.Layout, error) {
	l, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, errs.ErrUnknownLayout)
	}

	return l, nil
}

// Names returns the registered layout names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.layouts))
}

// Rules returns the compiled rules in match order.
func (r *Registry) Rules() []Rule {
	return slices.Clone(r.rules)
}

// Match returns the first rule matching path.
func (r *Registry) Match(path string) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Matches(path) {
			return rule, true
		}
	}

	return Rule{}, false
}

// Resolve returns the layout for path, or errs.ErrUnknownLayout.
func (r *Registry) Resolve(path string) (*container.Layout, Rule, error) {
	rule, ok := r.Match(path)
	if !ok {
		return nil, Rule{}, fmt.Errorf("no rule matches %q: %w", path, errs.ErrUnknownLayout)
	}

	l, err := r.Layout(rule.Layout)
	if err != nil {
		return nil, Rule{}, err
	}

	return l, rule, nil
}
