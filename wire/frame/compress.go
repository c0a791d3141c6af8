package frame

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// maxDictWindow is the largest back-reference window DEFLATE can use; the
// inflater keeps this many trailing decompressed bytes around so a
// Z_SYNC_FLUSH-delimited chunk can still resolve back-references into data
// produced before the flush, even though each chunk is decoded through a
// freshly Reset reader.
const maxDictWindow = 32 << 10

// zlibHeader is the 2-byte CMF/FLG header RFC 1950 (zlib) prepends to a raw
// DEFLATE (RFC 1951) stream, matching the CPython zlib module's defaults
// (compressobj()'s implicit level=Z_DEFAULT_COMPRESSION, wbits=15): CMF=0x78
// selects the deflate method with a 32K window, FLG=0x9c carries no preset
// dictionary and the check bits that make (CMF<<8|FLG) a multiple of 31.
// Both the real iPhone client and Apple's server exchange zlib streams, not
// raw DEFLATE (see connection.py's zlib.compressobj()/decompressobj()), so
// this header has to appear on the wire exactly once per connection.
var zlibHeader = [2]byte{0x78, 0x9c}

func checkZlibHeader(cmf, flg byte) error {
	if cmf&0x0f != 8 {
		return fmt.Errorf("frame: not a zlib stream (CMF 0x%02x)", cmf)
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return fmt.Errorf("frame: invalid zlib header check bits (0x%02x%02x)", cmf, flg)
	}
	return nil
}

// inflater decompresses a zlib stream (RFC 1950) that is flushed
// (Z_SYNC_FLUSH) after every record. The 2-byte zlib header precedes only
// the very first flushed chunk of the connection; every chunk after that is
// a bare DEFLATE continuation, which is why the header is peeled off by
// hand here instead of going through compress/zlib — zlib.Reader's own
// Resetter re-expects a fresh header on every Reset, one per connection
// rather than one per flush, so it doesn't fit this incremental model.
// Z_SYNC_FLUSH byte-aligns the DEFLATE stream without resetting the
// compression window, so the decoder can still be fed one flushed chunk at
// a time as long as it carries the trailing decompressed bytes forward as a
// preset dictionary across calls — compress/flate's Resetter interface
// exists for exactly this.
type inflater struct {
	fr   io.ReadCloser
	dict []byte

	headerBuf []byte // accumulates until the 2-byte zlib header is complete
	sawHeader bool
}

func newInflater() *inflater {
	return &inflater{fr: flate.NewReader(bytes.NewReader(nil))}
}

// write decompresses exactly the bytes in p (one or more flushed chunks)
// and returns whatever plaintext that yields. It is valid for p to end
// exactly on a flush boundary, which is the normal case for this protocol.
func (z *inflater) write(p []byte) ([]byte, error) {
	if !z.sawHeader {
		z.headerBuf = append(z.headerBuf, p...)
		if len(z.headerBuf) < len(zlibHeader) {
			return nil, nil // wait for the rest of the header
		}
		if err := checkZlibHeader(z.headerBuf[0], z.headerBuf[1]); err != nil {
			return nil, err
		}
		p = z.headerBuf[len(zlibHeader):]
		z.headerBuf = nil
		z.sawHeader = true
	}

	resetter := z.fr.(flate.Resetter)
	if err := resetter.Reset(bytes.NewReader(p), z.dict); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, err := z.fr.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if err != nil {
			// io.ErrUnexpectedEOF/io.EOF here just means "no more complete
			// output from this chunk yet" — not a framing error. Anything
			// else (a corrupt deflate stream) is.
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return out.Bytes(), err
		}
	}

	z.dict = trailingWindow(z.dict, out.Bytes())
	return out.Bytes(), nil
}

func trailingWindow(prev, produced []byte) []byte {
	combined := append(append([]byte(nil), prev...), produced...)
	if len(combined) > maxDictWindow {
		combined = combined[len(combined)-maxDictWindow:]
	}
	return combined
}

// deflater compresses outgoing bytes with a sync-flush after every write so
// an injected record becomes visible to the peer's decoder immediately. It
// prepends the 2-byte zlib header to the very first flushed chunk, since
// compress/flate only ever produces the bare DEFLATE body.
type deflater struct {
	buf         bytes.Buffer
	fw          *flate.Writer
	wroteHeader bool
}

func newDeflater() *deflater {
	d := &deflater{}
	fw, _ := flate.NewWriter(&d.buf, flate.DefaultCompression)
	d.fw = fw
	return d
}

func (d *deflater) writeSyncFlush(p []byte) ([]byte, error) {
	if _, err := d.fw.Write(p); err != nil {
		return nil, err
	}
	if err := d.fw.Flush(); err != nil {
		return nil, err
	}

	var out []byte
	if !d.wroteHeader {
		out = append(out, zlibHeader[:]...)
		d.wroteHeader = true
	}
	out = append(out, d.buf.Bytes()...)
	d.buf.Reset()
	return out, nil
}
