package cos_test

import (
	"errors"

	"github.com/kelsonai/voxrelay/cmn/cos"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("trace IDs", func() {
	BeforeEach(func() {
		cos.InitShortID(1)
	})

	It("generates alpha-nice IDs", func() {
		id := cos.GenTraceID()
		Expect(cos.IsValidTraceID(id)).To(BeTrue())
		Expect(cos.IsAlphaNice(id)).To(BeTrue())
	})

	It("derives a stable session ID from a remote address", func() {
		a := cos.GenSessionID("10.0.0.5:51234")
		b := cos.GenSessionID("10.0.0.5:51234")
		Expect(a).To(Equal(b))
	})
})

var _ = Describe("Errs", func() {
	It("deduplicates and bounds accumulated errors", func() {
		var errs cos.Errs
		errs.Add(errors.New("boom"))
		errs.Add(errors.New("boom"))
		errs.Add(errors.New("bang"))
		Expect(errs.Cnt()).To(Equal(2))
	})
})
