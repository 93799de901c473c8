package writer

import (
	"fmt"
	"os"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/internal/pool"
	"github.com/icrar/subtool/metadata"
	"github.com/icrar/subtool/reader"
)

// Passthrough is the BlockEngine for a plain copy: it returns blocks
// unmodified from an existing Reader, for an output that carries no
// transform of its own.
type Passthrough struct {
	r *reader.Reader
}

// NewPassthrough wraps r as a BlockEngine that serves blocks as-is.
func NewPassthrough(r *reader.Reader) *Passthrough {
	return &Passthrough{r: r}
}

// Block returns block idx's bytes unmodified.
func (p *Passthrough) Block(idx int64) ([]byte, error) {
	return p.r.ReadBlock(idx)
}

// Write assembles and writes one output subfile at path per spec.md
// §4.9: the header_length+block_length preamble is built in memory
// with header/dt/udpmap/margin copied to their declared offsets and
// written first; if desc.Data is nil, writing stops there (the
// preamble-only case some commands use to rewrite header/table
// metadata without touching the data section). Otherwise every block
// 1..BlocksPerSub is produced by desc.Data.Block and appended in
// ascending order.
func Write(path string, desc OutputDescriptor) error {
	m := desc.Meta

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", errs.ErrIoFailure, path, err)
	}
	defer f.Close()

	if err := writePreamble(f, desc); err != nil {
		return err
	}

	if desc.Data == nil {
		return nil
	}

	for idx := int64(1); idx <= m.BlocksPerSub; idx++ {
		block, err := desc.Data.Block(idx)
		if err != nil {
			return err
		}

		if int64(len(block)) != m.BlockLength {
			return fmt.Errorf("%w: block %d is %d bytes, expected %d", errs.ErrInvalidFormat, idx, len(block), m.BlockLength)
		}

		off := m.DataOffset + (idx-1)*m.BlockLength
		if _, err := f.WriteAt(block, off); err != nil {
			return fmt.Errorf("%w: writing block %d at offset %d: %v", errs.ErrIoFailure, idx, off, err)
		}
	}

	return nil
}

// writePreamble assembles the header_length+block_length preamble
// region (header, delay table, udpmap, margin, at their declared
// offsets, zero-filled between them) in a pooled scratch buffer and
// writes it in one call. The preamble is built once per Write, sized
// to a single block — squarely the "big, short-lived buffer" case
// internal/pool's preamble pool exists for.
func writePreamble(f *os.File, desc OutputDescriptor) error {
	m := desc.Meta
	size := int(m.DataOffset) // header_length + block_length

	bb := pool.GetPreambleBuffer()
	defer pool.PutPreambleBuffer(bb)

	bb.ExtendOrGrow(size)
	buf := bb.Bytes()
	for i := range buf {
		buf[i] = 0
	}

	if err := place(buf, desc.Header, 0, metadata.HeaderLength); err != nil {
		return err
	}

	if err := place(buf, desc.DT, m.DTOffset, m.DTLength); err != nil {
		return err
	}

	if err := place(buf, desc.UDPMap, m.UDPMapOffset, m.UDPMapLength); err != nil {
		return err
	}

	if err := place(buf, desc.Margin, m.MarginOffset, m.MarginLength); err != nil {
		return err
	}

	if _, err := f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("%w: writing preamble: %v", errs.ErrIoFailure, err)
	}

	return nil
}

// place resolves content and copies it into buf at [offset, offset+length).
func place(buf []byte, content SectionContent, offset, length int64) error {
	section, err := content.resolve(length)
	if err != nil {
		return err
	}

	copy(buf[offset:offset+length], section)

	return nil
}
