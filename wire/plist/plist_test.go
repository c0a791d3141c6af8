package plist_test

import (
	"time"

	"github.com/kelsonai/voxrelay/wire/plist"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Encode/Decode", func() {
	It("round-trips ASCII-printable strings, ints, floats and bools", func() {
		m := plist.Map{
			"class": "AssistantUtteranceView",
			"count": int64(3),
			"ratio": 1.5,
			"ok":    true,
		}
		blob, err := plist.Encode(m)
		Expect(err).NotTo(HaveOccurred())

		back, err := plist.Decode(blob)
		Expect(err).NotTo(HaveOccurred())
		Expect(back["class"]).To(Equal("AssistantUtteranceView"))
		Expect(back["count"]).To(Equal(int64(3)))
		Expect(back["ok"]).To(Equal(true))
	})

	It("wraps a string containing non-printable bytes as opaque data", func() {
		m := plist.Map{"rawPayload": string([]byte{0x00, 0x01, 0xFE})}
		blob, err := plist.Encode(m)
		Expect(err).NotTo(HaveOccurred())

		back, err := plist.Decode(blob)
		Expect(err).NotTo(HaveOccurred())
		raw, ok := back["rawPayload"].([]byte)
		Expect(ok).To(BeTrue())
		Expect(raw).To(Equal([]byte{0x00, 0x01, 0xFE}))
	})

	It("keeps pure ASCII-printable text as a text string", func() {
		m := plist.Map{"text": "hello world"}
		blob, err := plist.Encode(m)
		Expect(err).NotTo(HaveOccurred())

		back, err := plist.Decode(blob)
		Expect(err).NotTo(HaveOccurred())
		Expect(back["text"]).To(Equal("hello world"))
	})

	It("applies the 31-year date-epoch offset on both sides of the wire", func() {
		wantDisplay := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
		m := plist.Map{"dueDate": wantDisplay}
		blob, err := plist.Encode(m)
		Expect(err).NotTo(HaveOccurred())

		back, err := plist.Decode(blob)
		Expect(err).NotTo(HaveOccurred())
		got, ok := back["dueDate"].(time.Time)
		Expect(ok).To(BeTrue())
		Expect(got.Unix()).To(BeNumerically("~", wantDisplay.Unix(), 1))
	})
})
