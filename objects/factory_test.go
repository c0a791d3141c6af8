package objects_test

import (
	"strings"

	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/wire/plist"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("factory helpers", func() {
	It("wraps an utterance in AddViews the way a say() injection expects", func() {
		u := objects.Utterance("hello", "", false, "")
		wrapped := objects.AddViews([]objects.Object{u}, "", nil)
		wrapped.RefID = objects.NewRefID()
		wrapped.Version = objects.ProtocolVersion

		m := wrapped.ToMap()
		Expect(m["class"]).To(Equal(objects.ClassAddViews))
		Expect(m["v"]).To(Equal(objects.ProtocolVersion))

		blob, err := plist.Encode(m)
		Expect(err).NotTo(HaveOccurred())

		back, err := plist.Decode(blob)
		Expect(err).NotTo(HaveOccurred())
		got := objects.FromMap(back)
		Expect(got.Class).To(Equal(objects.ClassAddViews))
		Expect(got.RefID).To(Equal(wrapped.RefID))
	})

	It("generates correctly cased correlation ids", func() {
		refID := objects.NewRefID()
		aceID := objects.NewAceID()
		Expect(refID).To(Equal(strings.ToUpper(refID)))
		Expect(aceID).To(Equal(strings.ToLower(aceID)))
	})
})
