package frame_test

import (
	"github.com/kelsonai/voxrelay/wire/frame"
	"github.com/pkg/errors"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Codec", func() {
	var enc, dec *frame.Codec

	BeforeEach(func() {
		enc = frame.NewCodec()
		dec = frame.NewCodec()

		// drive both codecs past the header block and handshake so only
		// the compressed record stream remains to exercise.
		_, _, switched := enc.FeedLines([]byte("Host: relay.example.test\r\n\r\n"))
		Expect(switched).To(BeTrue())
		_, _, switched = dec.FeedLines([]byte("Host: relay.example.test\r\n\r\n"))
		Expect(switched).To(BeTrue())
	})

	It("round-trips a payload record through compress/decompress", func() {
		blob := []byte("hello, this is an encoded object payload")
		compressed, err := enc.EncodePayload(blob)
		Expect(err).NotTo(HaveOccurred())

		wire := append([]byte{0xAA, 0xBB, 0xCC, 0xDD}, compressed...) // handshake + stream
		_, records, err := dec.FeedRaw(wire)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Kind).To(Equal(frame.KindPayload))
		Expect(records[0].Payload).To(Equal(blob))
	})

	It("compresses with a zlib stream, not bare DEFLATE", func() {
		blob := []byte("hello, this is an encoded object payload")
		compressed, err := enc.EncodePayload(blob)
		Expect(err).NotTo(HaveOccurred())

		// the first flushed chunk of the connection carries the 2-byte
		// zlib (RFC 1950) header ahead of the record prefix: CMF 0x78
		// selects the deflate method, and CMF*256+FLG must be a multiple
		// of 31 per the format's own check-bits requirement.
		Expect(compressed[0]).To(Equal(byte(0x78)))
		header := uint16(compressed[0])<<8 | uint16(compressed[1])
		Expect(header % 31).To(BeEquivalentTo(0))
	})

	It("passes ping/pong control records through untouched", func() {
		ping, err := enc.EncodeControl(frame.KindPing, 42)
		Expect(err).NotTo(HaveOccurred())
		pong, err := enc.EncodeControl(frame.KindPong, 42)
		Expect(err).NotTo(HaveOccurred())

		wire := append([]byte{0, 0, 0, 0}, append(ping, pong...)...)
		_, records, err := dec.FeedRaw(wire)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0]).To(Equal(frame.Record{Kind: frame.KindPing, Seq: 42}))
		Expect(records[1]).To(Equal(frame.Record{Kind: frame.KindPong, Seq: 42}))
	})

	It("is chunk-invariant: splitting input differently yields the same records", func() {
		blob := []byte("a somewhat longer object payload to compress across chunks")
		compressed, err := enc.EncodePayload(blob)
		Expect(err).NotTo(HaveOccurred())
		wire := append([]byte{1, 2, 3, 4}, compressed...)

		whole := frame.NewCodec()
		whole.FeedLines([]byte("\r\n"))
		_, wholeRecs, err := whole.FeedRaw(wire)
		Expect(err).NotTo(HaveOccurred())

		chunked := frame.NewCodec()
		chunked.FeedLines([]byte("\r\n"))
		var chunkedRecs []frame.Record
		for i := 0; i < len(wire); i += 3 {
			end := i + 3
			if end > len(wire) {
				end = len(wire)
			}
			_, recs, err := chunked.FeedRaw(wire[i:end])
			Expect(err).NotTo(HaveOccurred())
			chunkedRecs = append(chunkedRecs, recs...)
		}
		Expect(chunkedRecs).To(Equal(wholeRecs))
	})

	It("treats a rogue-packet kind byte as a truncated tail, not an error", func() {
		records, rest, err := frame.ExtractRecords([]byte{0x15, 0, 0, 0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
		Expect(rest).To(Equal([]byte{0x15, 0, 0, 0, 0}))
	})

	It("rejects an unrecognized kind byte outside the rogue-packet recovery class", func() {
		_, _, err := frame.ExtractRecords([]byte{0x7A, 0, 0, 0, 0})
		Expect(err).To(HaveOccurred())
		var ferr *frame.FramingError
		Expect(errors.As(err, &ferr)).To(BeTrue())
		Expect(ferr.Fatal()).To(BeTrue())
	})

	It("yields no lines and no switch when fed nothing after the header block closed", func() {
		lines, rest, switched := enc.FeedLines(nil) // already switched in BeforeEach
		Expect(lines).To(BeEmpty())
		Expect(rest).To(BeNil())
		Expect(switched).To(BeFalse())
	})
})

var _ = Describe("line mode", func() {
	It("emits one HeaderLine per CRLF and switches on the empty line", func() {
		c := frame.NewCodec()
		lines, rest, switched := c.FeedLines([]byte("Host: relay.example.test\r\nX-Ace-Host: foo\r\n\r\ntrailing"))
		Expect(lines).To(HaveLen(2))
		Expect(lines[0].Text).To(Equal("Host: relay.example.test"))
		Expect(lines[1].Text).To(Equal("X-Ace-Host: foo"))
		Expect(switched).To(BeTrue())
		Expect(rest).To(Equal([]byte("trailing")))
	})
})
