package replay_test

import (
	"bytes"

	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/replay"
	"github.com/kelsonai/voxrelay/wire/frame"
	"github.com/kelsonai/voxrelay/wire/plist"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func sampleCorpus() replay.Corpus {
	enc := frame.NewCodec()
	req := objects.StartRequest("hello", false)
	blob, err := plist.Encode(plist.Map(req.ToMap()))
	Expect(err).NotTo(HaveOccurred())
	compressed, err := enc.EncodePayload(blob)
	Expect(err).NotTo(HaveOccurred())

	header := []byte("Host: relay.example.test\r\n\r\n")
	handshake := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	return replay.Corpus{
		{Mode: replay.ModeLine, Data: append(header, handshake...)},
		{Mode: replay.ModeRaw, Data: compressed},
	}
}

var _ = Describe("Play", func() {
	It("replays a captured session through the same codec machinery live traffic uses", func() {
		res, err := replay.Play(sampleCorpus())
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Headers).To(HaveLen(1))
		Expect(res.Headers[0].Text).To(Equal("Host: relay.example.test"))
		Expect(res.Preambles).To(HaveLen(1))
		Expect(res.Records).To(HaveLen(1))
		Expect(res.Records[0].Kind).To(Equal(frame.KindPayload))
		Expect(res.Objects).To(HaveLen(1))
		Expect(res.Objects[0].Class).To(Equal(objects.ClassStartRequest))
		Expect(res.Objects[0].Properties["utterance"]).To(Equal("hello"))
	})

	It("rejects a raw-tagged chunk arriving before the header block closes", func() {
		cs := replay.Corpus{{Mode: replay.ModeRaw, Data: []byte{0, 0, 0, 0}}}
		_, err := replay.Play(cs)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Save and Load", func() {
	It("round-trips a corpus through the lz4/msgp fixture format", func() {
		cs := sampleCorpus()

		var buf bytes.Buffer
		Expect(replay.Save(&buf, cs)).To(Succeed())

		got, err := replay.Load(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(cs))
	})
})
