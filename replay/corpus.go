// Package replay feeds a captured byte stream into the wire-protocol
// stack the same way a live connection does: line mode until the header
// terminator, then raw mode, one recorded chunk at a time. It is grounded
// on packetPlayer.py's Player, which re-fed a saved connection's bytes
// through the same protocol object used for live traffic, generalized
// into an on-disk corpus format instead of a raw byte dump split on a
// sentinel string.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package replay

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v3"
	"github.com/tinylib/msgp/msgp"
)

// Mode names the protocol phase a recorded Chunk was captured in, mirroring
// packetPlayer.py's Modes.Line/Modes.Raw.
type Mode string

const (
	ModeLine Mode = "line"
	ModeRaw  Mode = "raw"
)

// Chunk is one recorded write: a mode tag plus the raw bytes that arrived
// on the wire at that point in the captured session.
type Chunk struct {
	Mode Mode   `msg:"mode"`
	Data []byte `msg:"data"`
}

// EncodeMsg writes Chunk in the field-name-keyed shape msgp's generator
// produces for a two-field struct.
func (c *Chunk) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteMapHeader(2); err != nil {
		return err
	}
	if err = en.WriteString("mode"); err != nil {
		return err
	}
	if err = en.WriteString(string(c.Mode)); err != nil {
		return err
	}
	if err = en.WriteString("data"); err != nil {
		return err
	}
	return en.WriteBytes(c.Data)
}

// DecodeMsg reads a Chunk back, tolerating unknown extra fields the way
// generated decoders do (forward compatibility with a newer writer).
func (c *Chunk) DecodeMsg(dc *msgp.Reader) (err error) {
	var n uint32
	if n, err = dc.ReadMapHeader(); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		var key []byte
		if key, err = dc.ReadMapKeyPtr(); err != nil {
			return err
		}
		switch string(key) {
		case "mode":
			var s string
			if s, err = dc.ReadString(); err != nil {
				return err
			}
			c.Mode = Mode(s)
		case "data":
			if c.Data, err = dc.ReadBytes(c.Data); err != nil {
				return err
			}
		default:
			if err = dc.Skip(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Corpus is an ordered recording of an entire captured session.
type Corpus []Chunk

// EncodeMsg writes the corpus as a msgp array of Chunks.
func (cs Corpus) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteArrayHeader(uint32(len(cs))); err != nil {
		return err
	}
	for i := range cs {
		if err := cs[i].EncodeMsg(en); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsg reads a corpus back from a msgp array of Chunks.
func (cs *Corpus) DecodeMsg(dc *msgp.Reader) error {
	n, err := dc.ReadArrayHeader()
	if err != nil {
		return err
	}
	out := make(Corpus, n)
	for i := range out {
		if err := out[i].DecodeMsg(dc); err != nil {
			return err
		}
	}
	*cs = out
	return nil
}

// Save writes the corpus to w, msgp-encoded and lz4-compressed. The lz4
// framing here is purely a test-fixture storage choice: it has nothing to
// do with the zlib sync-flush stream wire/frame speaks on the wire.
func Save(w io.Writer, cs Corpus) error {
	lzw := lz4.NewWriter(w)
	mw := msgp.NewWriter(lzw)
	if err := cs.EncodeMsg(mw); err != nil {
		return fmt.Errorf("replay: encode corpus: %w", err)
	}
	if err := mw.Flush(); err != nil {
		return fmt.Errorf("replay: flush corpus: %w", err)
	}
	if err := lzw.Close(); err != nil {
		return fmt.Errorf("replay: close corpus compressor: %w", err)
	}
	return nil
}

// Load reads a corpus previously written by Save.
func Load(r io.Reader) (Corpus, error) {
	lzr := lz4.NewReader(r)
	mr := msgp.NewReader(lzr)
	var cs Corpus
	if err := cs.DecodeMsg(mr); err != nil {
		return nil, fmt.Errorf("replay: decode corpus: %w", err)
	}
	return cs, nil
}
