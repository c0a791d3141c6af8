package session_test

import (
	"github.com/kelsonai/voxrelay/session"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type fakeContinuation struct {
	closed   bool
	resumes  []string
	doneNext bool
}

func (f *fakeContinuation) Resume(u string) bool {
	f.resumes = append(f.resumes, u)
	return f.doneNext
}
func (f *fakeContinuation) Close() { f.closed = true }

var _ = Describe("Engine", func() {
	var client, upstream *session.Engine

	BeforeEach(func() {
		client = session.New()
		upstream = session.New()
		session.Pair(client, upstream)
	})

	It("drops an upstream object matching a blocked refId (invariant 4)", func() {
		client.AdoptAceID("req-1")
		client.Claim()
		Expect(client.ShouldDrop("req-1")).To(BeTrue())
		Expect(client.ShouldDrop("req-2")).To(BeFalse())
	})

	It("clears the block when a new aceId arrives while blocking (invariant 5)", func() {
		client.AdoptAceID("req-1")
		client.Claim()
		Expect(client.Blocking()).To(BeTrue())

		client.AdoptAceID("req-2")
		Expect(client.Blocking()).To(BeFalse())
		Expect(client.LastRefID()).To(Equal("req-2"))
	})

	It("keeps the block when the same aceId repeats", func() {
		client.AdoptAceID("req-1")
		client.Claim()
		client.AdoptAceID("req-1")
		Expect(client.Blocking()).To(BeTrue())
	})

	It("propagates an adopted aceId to the paired engine", func() {
		client.AdoptAceID("req-9")
		Expect(upstream.LastRefID()).To(Equal("req-9"))
	})

	It("installs and resumes a pending continuation, clearing it on completion", func() {
		fc := &fakeContinuation{doneNext: false}
		client.SetPending(fc)
		Expect(client.Pending()).To(Equal(session.Continuation(fc)))

		consumed := client.ResumePending("maybe")
		Expect(consumed).To(BeTrue())
		Expect(fc.resumes).To(Equal([]string{"maybe"}))
		Expect(client.Pending()).NotTo(BeNil()) // not done yet

		fc.doneNext = true
		client.ResumePending("yes")
		Expect(client.Pending()).To(BeNil())
	})

	It("resets last_ref_id, block, and closes pending on ClearContext (scenario C)", func() {
		client.AdoptAceID("req-1")
		client.Claim()
		fc := &fakeContinuation{}
		client.SetPending(fc)

		client.ClearContext()

		Expect(client.LastRefID()).To(BeEmpty())
		Expect(client.Blocking()).To(BeFalse())
		Expect(client.Pending()).To(BeNil())
		Expect(fc.closed).To(BeTrue())
	})

	It("closes a pending continuation on teardown", func() {
		fc := &fakeContinuation{}
		client.SetPending(fc)
		client.Teardown()
		Expect(fc.closed).To(BeTrue())
	})
})
