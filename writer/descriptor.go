// Package writer assembles an output subfile from a preamble (header,
// delay table, udpmap, margin) plus a data section produced by one of
// the repoint/remap/resample engines or, for a plain copy, a
// passthrough engine — implementing the write protocol of spec.md
// §4.9.
package writer

import (
	"fmt"
	"os"

	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/metadata"
	"github.com/icrar/subtool/remap"
)

// ContentKind tags which representation a SectionContent holds.
type ContentKind uint8

const (
	KindBuffer ContentKind = iota
	KindObject
	KindFile
	KindRemap
)

// SectionContent is the tagged variant spec.md §9 calls out for a
// section's content: a ready-made buffer, a delay-table object
// (serialised at write time), an open file to copy length bytes from
// at a given offset, or (carried for completeness, unused by
// header/dt/udpmap/margin) a remap mapping.
type SectionContent struct {
	Kind ContentKind

	Buffer []byte
	Table  *delaytable.Table
	File   *os.File
	Offset int64
	Remap  *remap.Mapping
}

// ContentBuffer wraps a ready-made buffer.
func ContentBuffer(b []byte) SectionContent { return SectionContent{Kind: KindBuffer, Buffer: b} }

// ContentObject wraps a delay table, serialised on resolve.
func ContentObject(t *delaytable.Table) SectionContent {
	return SectionContent{Kind: KindObject, Table: t}
}

// ContentFile reads length bytes at offset from f on resolve.
func ContentFile(f *os.File, offset int64) SectionContent {
	return SectionContent{Kind: KindFile, File: f, Offset: offset}
}

// resolve produces exactly wantLen bytes of section content.
func (c SectionContent) resolve(wantLen int64) ([]byte, error) {
	switch c.Kind {
	case KindBuffer:
		if int64(len(c.Buffer)) != wantLen {
			return nil, fmt.Errorf("%w: section content is %d bytes, expected %d", errs.ErrInvalidFormat, len(c.Buffer), wantLen)
		}

		return c.Buffer, nil

	case KindObject:
		buf, err := c.Table.Bytes()
		if err != nil {
			return nil, err
		}

		if int64(len(buf)) != wantLen {
			return nil, fmt.Errorf("%w: serialised delay table is %d bytes, expected %d", errs.ErrInvalidFormat, len(buf), wantLen)
		}

		return buf, nil

	case KindFile:
		buf := make([]byte, wantLen)

		n, err := c.File.ReadAt(buf, c.Offset)
		if err != nil {
			return nil, fmt.Errorf("%w: reading section content at offset %d: %v", errs.ErrIoFailure, c.Offset, err)
		}

		if int64(n) != wantLen {
			return nil, fmt.Errorf("%w: short read of section content: got %d bytes, wanted %d", errs.ErrIoFailure, n, wantLen)
		}

		return buf, nil

	default:
		return nil, fmt.Errorf("%w: section content kind %d has no byte representation", errs.ErrInvalidArgument, c.Kind)
	}
}

// BlockEngine produces the data bytes for block idx on demand. It is
// satisfied by repoint.Engine, remap.Engine, resample.Engine, and
// Passthrough (below) — the write protocol's four mutually-exclusive
// data-section modes.
type BlockEngine interface {
	Block(idx int64) ([]byte, error)
}

// OutputDescriptor carries everything Write needs to assemble one
// output subfile: the target geometry, the four preamble sections'
// content, and (optionally) a data-producing engine. A nil Data stops
// after the preamble is written, per write protocol step 2.
type OutputDescriptor struct {
	Meta metadata.Metadata

	Header SectionContent
	DT     SectionContent
	UDPMap SectionContent
	Margin SectionContent

	Data BlockEngine
}
