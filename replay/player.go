package replay

import (
	"fmt"

	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/wire/frame"
	"github.com/kelsonai/voxrelay/wire/plist"
)

// Result accumulates everything a replayed Corpus produced: the header
// lines observed, the handshake preamble(s) consumed, every frame.Record
// extracted, and the subset of those that decoded into payload objects.
type Result struct {
	Headers   []frame.HeaderLine
	Preambles [][]byte
	Records   []frame.Record
	Objects   []objects.Object
}

// Play drives a fresh frame.Codec through every chunk of cs in order, the
// same line-mode-then-raw-mode transition a live connection goes through,
// and decodes every payload record's plist blob into an Object exactly as
// proxy.Pair does. A chunk's Mode tag is cross-checked against the
// codec's actual state rather than trusted blindly, so a corpus that
// doesn't match the protocol it claims to replay is reported rather than
// silently misinterpreted.
func Play(cs Corpus) (*Result, error) {
	codec := frame.NewCodec()
	res := &Result{}

	for i, c := range cs {
		switch c.Mode {
		case ModeLine:
			if codec.Headers() {
				return res, fmt.Errorf("replay: chunk %d tagged line but header block already closed", i)
			}
			lines, rest, switched := codec.FeedLines(c.Data)
			res.Headers = append(res.Headers, lines...)
			if switched && len(rest) > 0 {
				if err := res.consumeRaw(codec, rest); err != nil {
					return res, err
				}
			}
		case ModeRaw:
			if !codec.Headers() {
				return res, fmt.Errorf("replay: chunk %d tagged raw but header block not yet closed", i)
			}
			if err := res.consumeRaw(codec, c.Data); err != nil {
				return res, err
			}
		default:
			return res, fmt.Errorf("replay: chunk %d: unrecognized mode %q", i, c.Mode)
		}
	}
	return res, nil
}

func (res *Result) consumeRaw(codec *frame.Codec, data []byte) error {
	preamble, records, err := codec.FeedRaw(data)
	if err != nil {
		return fmt.Errorf("replay: framing: %w", err)
	}
	if len(preamble) > 0 {
		res.Preambles = append(res.Preambles, preamble)
	}
	for _, rec := range records {
		res.Records = append(res.Records, rec)
		if rec.Kind != frame.KindPayload {
			continue
		}
		m, err := plist.Decode(rec.Payload)
		if err != nil {
			return fmt.Errorf("replay: payload decode: %w", err)
		}
		res.Objects = append(res.Objects, objects.FromMap(m))
	}
	return nil
}
