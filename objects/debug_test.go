package objects_test

import (
	"github.com/kelsonai/voxrelay/objects"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("DebugJSON", func() {
	It("renders class and properties as JSON", func() {
		o := objects.StartRequest("what time is it", false)
		line := objects.DebugJSON(o)
		Expect(line).To(ContainSubstring(`"class":"StartRequest"`))
		Expect(line).To(ContainSubstring("what time is it"))
	})
})
