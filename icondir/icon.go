// Package icondir reads and writes the icon directory stored in the eXt
// sub-header of a TIM2 texture.
//
// The directory is a three-level list: sections hold groups, groups hold
// icons. Neither the last section's group count nor the last group's icon
// count is stored anywhere; both are recovered with section.CountByScan.
package icondir

import (
	"fmt"

	"github.com/insurgentsworkshop/segpack/errs"
)

const (
	maxIconSize = 0x0FFF
	maxNibble   = 0x0F
)

// Icon is one rectangle of the texture.
type Icon struct {
	X, Y          uint16
	Width, Height uint16
	// AdditiveClut selects an additive palette entry, 0 to 15.
	AdditiveClut uint8
	// ClutGroup selects one of the directory clut groups, 0 to 15.
	ClutGroup uint8
}

// NewIcon builds an icon, checking every field fits its packed width.
func NewIcon(x, y, width, height uint16, additiveClut, clutGroup uint8) (Icon, error) {
	icon := Icon{X: x, Y: y, Width: width, Height: height, AdditiveClut: additiveClut, ClutGroup: clutGroup}
	if err := icon.Validate(); err != nil {
		return Icon{}, err
	}

	return icon, nil
}

// Validate checks the packed-width limits of the icon fields.
func (i Icon) Validate() error {
	switch {
	case i.Width > maxIconSize:
		return fmt.Errorf("width %d: %w", i.Width, errs.ErrInvalidIcon)
	case i.Height > maxIconSize:
		return fmt.Errorf("height %d: %w", i.Height, errs.ErrInvalidIcon)
	case i.AdditiveClut > maxNibble:
		return fmt.Errorf("additive clut %d: %w", i.AdditiveClut, errs.ErrInvalidIcon)
	case i.ClutGroup > maxNibble:
		return fmt.Errorf("clut group %d: %w", i.ClutGroup, errs.ErrInvalidIcon)
	}

	return nil
}

// flags packs width, height, additive clut and clut group into one u32:
// width in bits 0-11, height in 12-23, additive clut in 24-27, clut group in 28-31.
func (i Icon) flags() uint32 {
	return uint32(i.Width) | uint32(i.Height)<<12 | uint32(i.AdditiveClut)<<24 | uint32(i.ClutGroup)<<28
}

func iconFromRaw(x, y uint16, flags uint32) Icon {
	return Icon{
		X:            x,
		Y:            y,
		Width:        uint16(flags & maxIconSize),
		Height:       uint16(flags >> 12 & maxIconSize),
		AdditiveClut: uint8(flags >> 24 & maxNibble),
		ClutGroup:    uint8(flags >> 28),
	}
}

// Group is a run of icons addressed together.
type Group struct {
	Icons []Icon
}

// Section is a run of groups.
type Section struct {
	Groups []Group
}

// Directory is a decoded eXt icon directory.
type Directory struct {
	Sections []Section
	// ClutGroups holds the raw clut group bytes between the group list and
	// the icon list.
	ClutGroups []byte
}

// IconCount returns the number of icons across all sections.
func (d *Directory) IconCount() int {
	n := 0
	for _, s := range d.Sections {
		for _, g := range s.Groups {
			n += len(g.Icons)
		}
	}

	return n
}

// GroupCount returns the number of groups across all sections.
func (d *Directory) GroupCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Groups)
	}

	return n
}
