package cfg_test

import (
	"os"
	"path/filepath"

	"github.com/kelsonai/voxrelay/cfg"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("supplies a working default", func() {
		c := cfg.Default()
		Expect(c.Validate()).To(Succeed())
		Expect(c.Server.Host).NotTo(BeEmpty())
	})

	It("loads overrides from YAML on top of the default", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "voxrelay.yaml")
		body := "server:\n  host: relay.example.test\n  port: 4443\n"
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())

		c, err := cfg.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Server.Host).To(Equal("relay.example.test"))
		Expect(c.Server.Port).To(Equal(4443))
		Expect(c.IPhone.Port).To(Equal(443)) // inherited from Default()
	})

	It("rejects an out-of-range port", func() {
		c := cfg.Default()
		c.IPhone.Port = 70000
		Expect(c.Validate()).To(HaveOccurred())
	})
})
