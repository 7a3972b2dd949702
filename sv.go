// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import "fmt"

// SV is a decoded heap object. The generic fields are always present;
// exactly one of the body pointers is non-nil, selected by Type, except
// for REGEXP/FORMAT/INVLIST (body skipped via the shape table, not
// decoded) and the
// synthetic PADLIST/PADNAMES/PAD types, which keep reusing Array (Fixup
// only replaces the tag, never the array contents).
type SV struct {
	Type    SVType
	Address uint64
	RefCnt  uint32
	Size    uint64
	Blessed uint64

	Scalar *ScalarBody
	Glob   *GlobBody
	Array  *ArrayBody
	Hash   *HashBody
	Stash  *StashBody
	Ref    *RefBody
	Code   *CodeBody
	IO     *IOBody
	LValue *LValueBody
}

// ScalarBody is a SCALAR object's type-specific fields.
type ScalarBody struct {
	Flags uint8
	IV    uint64
	NV    float64
	PVLen uint64
	Stash uint64
	PV    string
}

// Scalar flag bits.
const (
	ScalarHasIV uint8 = 1 << iota
	ScalarIVIsUV
	ScalarHasNV
	ScalarHasPV
	ScalarUTF8
)

// GlobBody is a GLOB object's type-specific fields.
type GlobBody struct {
	Line   uint64
	Stash  uint64
	Scalar uint64
	Array  uint64
	Hash   uint64
	Code   uint64
	EGV    uint64
	IO     uint64
	Form   uint64
	Name   string
	File   string
}

// ArrayBody is an ARRAY object's type-specific fields. It is also the
// body of the three synthetic types (PADLIST, PADNAMES, PAD); Fixup only
// ever changes the owning SV's Type, never these contents.
type ArrayBody struct {
	Count    uint64
	Flags    uint8
	Elements []uint64
}

// HashElement is one key/value pair of a HASH or STASH body.
type HashElement struct {
	Key   string
	Value uint64
}

// HashBody is a HASH object's type-specific fields.
type HashBody struct {
	Count     uint64
	Backrefs  uint64
	Elements  []HashElement
}

// StashBody is a STASH object's type-specific fields: a HASH body plus
// the four MRO pointers and a class name.
type StashBody struct {
	HashBody
	MROLinearAll     uint64
	MROLinearCurrent uint64
	MRONextMethod    uint64
	MROISA           uint64
	Name             string
}

// RefBody is a REF object's type-specific fields.
type RefBody struct {
	Flags  uint8
	Target uint64
	Stash  uint64
}

// RefWeak reports whether bit 0 of Flags (the weak-reference bit) is set.
func (r RefBody) RefWeak() bool { return r.Flags&0x01 != 0 }

// CodeBody is a CODE object's generic fields plus the fields assembled
// from its heterogeneous trailer (see readCodeTrailer).
type CodeBody struct {
	Line     uint64
	Flags    uint8
	OpRoot   uint64
	Stash    uint64
	Glob     uint64
	Outside  uint64
	PadList  uint64
	ConstVal uint64
	File     string

	ConstSV  uint64
	ConstIx  uint64
	GVSV     uint64
	GVIx     uint64
	PadNames uint64
	// Pads is indexed by depth; depth 0 is an empty slot by convention.
	Pads []uint64
	// PadSVs holds the addresses of PAD objects Fixup successfully
	// promoted, one per resolved depth >= 1 entry of Pads.
	PadSVs []uint64
}

// IOBody is an IO object's type-specific fields.
type IOBody struct {
	IFileNo uint64
	OFileNo uint64
	Top     uint64
	Format  uint64
	Bottom  uint64
}

// LValueBody is an LVALUE object's type-specific fields.
type LValueBody struct {
	Type   uint8
	Offset uint64
	Length uint64
	Target uint64
}

// MagicRecord is a MAGIC record: an auxiliary annotation on another SV.
// It is never inserted into the ObjectTable.
type MagicRecord struct {
	Addr  uint64
	Type  uint8
	Flags uint8
	Obj   uint64
	Ptr   uint64
}

func (d *Decoder) readMagic() (MagicRecord, error) {
	var m MagicRecord
	var err error
	if m.Addr, err = d.readPtr(); err != nil {
		return m, err
	}
	if m.Type, err = d.readUint8(); err != nil {
		return m, err
	}
	if m.Flags, err = d.readUint8(); err != nil {
		return m, err
	}
	if m.Obj, err = d.readPtr(); err != nil {
		return m, err
	}
	if m.Ptr, err = d.readPtr(); err != nil {
		return m, err
	}
	return m, nil
}

// readGenericHeader reads the address/refcnt/size/blessed prelude common
// to every non-END, non-MAGIC object. The field list is fixed; TypeShape[0]
// is not consulted.
func (d *Decoder) readGenericHeader(tag SVType) (*SV, error) {
	sv := &SV{Type: tag}
	var err error
	if sv.Address, err = d.readPtr(); err != nil {
		return nil, err
	}
	if sv.RefCnt, err = d.readUint32(); err != nil {
		return nil, err
	}
	if sv.Size, err = d.readUint(); err != nil {
		return nil, err
	}
	if sv.Blessed, err = d.readPtr(); err != nil {
		return nil, err
	}
	return sv, nil
}

// readSV decodes one heap-object record. It returns (sv, false, nil) for
// an object that should be inserted into the ObjectTable, (nil, false,
// nil) for a MAGIC record or a skipped unknown-but-shaped tag, and
// (nil, true, nil) on END.
func (d *Decoder) readSV() (sv *SV, end bool, err error) {
	tagByte, err := d.readUint8()
	if err != nil {
		return nil, false, err
	}
	tag := SVType(tagByte)

	if tag == SVEnd {
		return nil, true, nil
	}
	if tag == SVMagic {
		m, err := d.readMagic()
		if err != nil {
			return nil, false, err
		}
		if d.trace {
			d.log.Debugf("magic at %#x: type=%d flags=%#x obj=%#x ptr=%#x", m.Addr, m.Type, m.Flags, m.Obj, m.Ptr)
		}
		return nil, false, nil
	}

	sv, err = d.readGenericHeader(tag)
	if err != nil {
		return nil, false, err
	}

	switch tag {
	case SVScalar:
		err = d.readScalarBody(sv)
	case SVGlob:
		err = d.readGlobBody(sv)
	case SVArray:
		err = d.readArrayBody(sv)
	case SVHash:
		err = d.readHashBody(sv)
	case SVStash:
		err = d.readStashBody(sv)
	case SVRef:
		err = d.readRefBody(sv)
	case SVCode:
		err = d.readCodeBody(sv)
	case SVIO:
		err = d.readIOBody(sv)
	case SVLValue:
		err = d.readLValueBody(sv)
	case SVRegexp, SVFormat, SVInvlist:
		// Body not decoded: skipped via the shape table when it has an
		// entry for the tag, otherwise nothing beyond the generic header.
		if int(tag) < len(d.types) {
			err = d.skipByShape(d.types[tag])
		}
	default:
		if int(tag) < len(d.types) {
			if skipErr := d.skipByShape(d.types[tag]); skipErr != nil {
				return nil, false, skipErr
			}
			if d.trace {
				d.log.Debugf("skipped unknown SV tag %d at %#x via shape table", tag, sv.Address)
			}
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: unknown SV tag %d with no shape entry", ErrInvalidFormat, tag)
	}
	if err != nil {
		return nil, false, err
	}

	if d.trace {
		d.log.Debugf("SV %s at %#x, size=%d, blessed=%#x", tag, sv.Address, sv.Size, sv.Blessed)
	}
	return sv, false, nil
}

func (d *Decoder) readScalarBody(sv *SV) error {
	b := &ScalarBody{}
	var err error
	if b.Flags, err = d.readUint8(); err != nil {
		return err
	}
	if b.Flags&^0x1f != 0 {
		d.log.Warnf("scalar at %#x has invalid flag bits %#x", sv.Address, b.Flags)
	}
	if b.IV, err = d.readUint(); err != nil {
		return err
	}
	if b.NV, err = d.readFloat(); err != nil {
		return err
	}
	if b.PVLen, err = d.readUint(); err != nil {
		return err
	}
	if b.Stash, err = d.readPtr(); err != nil {
		return err
	}
	if b.PV, err = d.readString(); err != nil {
		return err
	}
	sv.Scalar = b
	return nil
}

func (d *Decoder) readGlobBody(sv *SV) error {
	b := &GlobBody{}
	var err error
	if b.Line, err = d.readUint(); err != nil {
		return err
	}
	if b.Stash, err = d.readPtr(); err != nil {
		return err
	}
	if b.Scalar, err = d.readPtr(); err != nil {
		return err
	}
	if b.Array, err = d.readPtr(); err != nil {
		return err
	}
	if b.Hash, err = d.readPtr(); err != nil {
		return err
	}
	if b.Code, err = d.readPtr(); err != nil {
		return err
	}
	if b.EGV, err = d.readPtr(); err != nil {
		return err
	}
	if b.IO, err = d.readPtr(); err != nil {
		return err
	}
	if b.Form, err = d.readPtr(); err != nil {
		return err
	}
	if b.Name, err = d.readString(); err != nil {
		return err
	}
	if b.File, err = d.readString(); err != nil {
		return err
	}
	sv.Glob = b
	return nil
}

func (d *Decoder) readArrayBody(sv *SV) error {
	b := &ArrayBody{}
	var err error
	if b.Count, err = d.readUint(); err != nil {
		return err
	}
	if b.Flags, err = d.readUint8(); err != nil {
		return err
	}
	b.Elements = make([]uint64, 0, b.Count)
	for i := uint64(0); i < b.Count; i++ {
		ptr, err := d.readPtr()
		if err != nil {
			return err
		}
		b.Elements = append(b.Elements, ptr)
	}
	sv.Array = b
	return nil
}

func (d *Decoder) readHashElements(count uint64) ([]HashElement, error) {
	out := make([]HashElement, 0, count)
	for i := uint64(0); i < count; i++ {
		key, err := d.readString()
		if err != nil {
			return nil, err
		}
		val, err := d.readPtr()
		if err != nil {
			return nil, err
		}
		out = append(out, HashElement{Key: key, Value: val})
	}
	return out, nil
}

func (d *Decoder) readHashBody(sv *SV) error {
	b := &HashBody{}
	var err error
	if b.Count, err = d.readUint(); err != nil {
		return err
	}
	if b.Backrefs, err = d.readPtr(); err != nil {
		return err
	}
	if b.Elements, err = d.readHashElements(b.Count); err != nil {
		return err
	}
	sv.Hash = b
	return nil
}

// readStashBody follows the wire order pneumatic's detail.h actually
// decodes (count, backrefs, the four MRO pointers, then name), which
// precedes the key/value pairs rather than following the prose order
// suggested by "HASH body, then MRO pointers and a name string" in the
// format description.
func (d *Decoder) readStashBody(sv *SV) error {
	b := &StashBody{}
	var err error
	if b.Count, err = d.readUint(); err != nil {
		return err
	}
	if b.Backrefs, err = d.readPtr(); err != nil {
		return err
	}
	if b.MROLinearAll, err = d.readPtr(); err != nil {
		return err
	}
	if b.MROLinearCurrent, err = d.readPtr(); err != nil {
		return err
	}
	if b.MRONextMethod, err = d.readPtr(); err != nil {
		return err
	}
	if b.MROISA, err = d.readPtr(); err != nil {
		return err
	}
	if b.Name, err = d.readString(); err != nil {
		return err
	}
	if b.Elements, err = d.readHashElements(b.Count); err != nil {
		return err
	}
	sv.Stash = b
	return nil
}

func (d *Decoder) readRefBody(sv *SV) error {
	b := &RefBody{}
	var err error
	if b.Flags, err = d.readUint8(); err != nil {
		return err
	}
	if b.Target, err = d.readPtr(); err != nil {
		return err
	}
	if b.Stash, err = d.readPtr(); err != nil {
		return err
	}
	sv.Ref = b
	return nil
}

func (d *Decoder) readIOBody(sv *SV) error {
	b := &IOBody{}
	var err error
	if b.IFileNo, err = d.readUint(); err != nil {
		return err
	}
	if b.OFileNo, err = d.readUint(); err != nil {
		return err
	}
	if b.Top, err = d.readPtr(); err != nil {
		return err
	}
	if b.Format, err = d.readPtr(); err != nil {
		return err
	}
	if b.Bottom, err = d.readPtr(); err != nil {
		return err
	}
	sv.IO = b
	return nil
}

func (d *Decoder) readLValueBody(sv *SV) error {
	b := &LValueBody{}
	var err error
	if b.Type, err = d.readUint8(); err != nil {
		return err
	}
	if b.Offset, err = d.readUint(); err != nil {
		return err
	}
	if b.Length, err = d.readUint(); err != nil {
		return err
	}
	if b.Target, err = d.readPtr(); err != nil {
		return err
	}
	sv.LValue = b
	return nil
}

func (d *Decoder) readCodeBody(sv *SV) error {
	b := &CodeBody{}
	var err error
	if b.Line, err = d.readUint(); err != nil {
		return err
	}
	if b.Flags, err = d.readUint8(); err != nil {
		return err
	}
	if b.OpRoot, err = d.readPtr(); err != nil {
		return err
	}
	if b.Stash, err = d.readPtr(); err != nil {
		return err
	}
	if b.Glob, err = d.readPtr(); err != nil {
		return err
	}
	if b.Outside, err = d.readPtr(); err != nil {
		return err
	}
	if b.PadList, err = d.readPtr(); err != nil {
		return err
	}
	if b.ConstVal, err = d.readPtr(); err != nil {
		return err
	}
	if b.File, err = d.readString(); err != nil {
		return err
	}
	if err := d.readCodeTrailer(b); err != nil {
		return err
	}
	sv.Code = b
	return nil
}

// readCodeTrailer runs the CODE trailer state machine: read tag, read
// the tag's body, repeat until the terminating zero tag. An unrecognized
// sub-tag is fatal (see SPEC_FULL.md's Open Questions decisions) rather
// than logged-and-desynchronized, since there is no way to know how many
// bytes an unrecognized sub-record occupies.
func (d *Decoder) readCodeTrailer(b *CodeBody) error {
	for {
		tagByte, err := d.readUint8()
		if err != nil {
			return err
		}
		tag := codeTag(tagByte)
		if tag == codeTagEnd {
			return nil
		}
		switch tag {
		case codeTagConstSV:
			if b.ConstSV, err = d.readPtr(); err != nil {
				return err
			}
		case codeTagConstIx:
			if b.ConstIx, err = d.readUint(); err != nil {
				return err
			}
		case codeTagGVSV:
			if b.GVSV, err = d.readPtr(); err != nil {
				return err
			}
		case codeTagGVIx:
			if b.GVIx, err = d.readUint(); err != nil {
				return err
			}
		case codeTagPadNames:
			if b.PadNames, err = d.readPtr(); err != nil {
				return err
			}
		case codeTagPad:
			depth, err := d.readUint()
			if err != nil {
				return err
			}
			ptr, err := d.readPtr()
			if err != nil {
				return err
			}
			if depth >= uint64(len(b.Pads)) {
				grown := make([]uint64, depth+1)
				copy(grown, b.Pads)
				b.Pads = grown
			}
			b.Pads[depth] = ptr
		default:
			return fmt.Errorf("%w: unknown CODE trailer tag %d", ErrInvalidFormat, tag)
		}
	}
}
