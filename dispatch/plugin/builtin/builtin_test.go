package builtin_test

import (
	"github.com/kelsonai/voxrelay/dispatch"
	"github.com/kelsonai/voxrelay/dispatch/plugin/builtin"
	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/session"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type recordingSink struct {
	injected []objects.Object
}

func (s *recordingSink) InjectObject(_ dispatch.Direction, o objects.Object) error {
	s.injected = append(s.injected, o)
	return nil
}

type staticErrResp struct{}

func (staticErrResp) ErrorResponse() string { return "Sorry, something went wrong." }

var _ = Describe("ButtonTest", func() {
	It("replies when a custom-command button is pressed", func() {
		client, upstream := session.New(), session.New()
		session.Pair(client, upstream)
		client.AdoptAceID("REQ-3")

		sink := &recordingSink{}
		inj := dispatch.NewInjector(client, upstream, sink)
		d, err := dispatch.NewDispatcher(staticErrResp{}, builtin.NewButtonTest())
		Expect(err).NotTo(HaveOccurred())

		press := objects.StartRequest("Command 2", false)
		_, drop := d.RunFilters(inj, press, dispatch.FromClient)
		Expect(drop).To(BeFalse()) // ignored, not dropped, per the source's semantics

		Expect(sink.injected).To(HaveLen(2))
		Expect(sink.injected[0].Class).To(Equal(objects.ClassAddViews))
		Expect(sink.injected[1].Class).To(Equal(objects.ClassRequestCompleted))
	})

	It("leaves an unrecognized StartRequest utterance untouched", func() {
		client, upstream := session.New(), session.New()
		session.Pair(client, upstream)

		sink := &recordingSink{}
		inj := dispatch.NewInjector(client, upstream, sink)
		d, _ := dispatch.NewDispatcher(staticErrResp{}, builtin.NewButtonTest())

		press := objects.StartRequest("some other text", false)
		out, drop := d.RunFilters(inj, press, dispatch.FromClient)
		Expect(drop).To(BeFalse())
		Expect(out).To(Equal(press))
		Expect(sink.injected).To(BeEmpty())
	})
})

var _ = Describe("LocationTest", func() {
	It("claims 'Create map location' and shows a map item snippet", func() {
		client, upstream := session.New(), session.New()
		session.Pair(client, upstream)
		client.AdoptAceID("REQ-4")

		sink := &recordingSink{}
		inj := dispatch.NewInjector(client, upstream, sink)
		d, _ := dispatch.NewDispatcher(staticErrResp{}, builtin.NewLocationTest())

		claimed := d.RunSpeechRules(inj, client, "Create map location")
		Expect(claimed).To(BeTrue())
		Expect(sink.injected).To(HaveLen(2))
		Expect(sink.injected[0].Class).To(Equal(objects.ClassAddViews))
	})

	It("claims 'Create directions' and shows driving directions", func() {
		client, upstream := session.New(), session.New()
		session.Pair(client, upstream)
		client.AdoptAceID("REQ-5")

		sink := &recordingSink{}
		inj := dispatch.NewInjector(client, upstream, sink)
		d, _ := dispatch.NewDispatcher(staticErrResp{}, builtin.NewLocationTest())

		claimed := d.RunSpeechRules(inj, client, "Create directions")
		Expect(claimed).To(BeTrue())
		Expect(sink.injected).To(HaveLen(1))
		Expect(sink.injected[0].Class).To(Equal(objects.ClassRequestCompleted))
	})
})

var _ = Describe("ResetPlugin", func() {
	It("resets context on ClearContext", func() {
		client, upstream := session.New(), session.New()
		session.Pair(client, upstream)
		client.AdoptAceID("REQ-6")
		client.Claim()

		sink := &recordingSink{}
		inj := dispatch.NewInjector(client, upstream, sink)
		d, _ := dispatch.NewDispatcher(staticErrResp{}, builtin.NewResetPlugin())

		_, drop := d.RunFilters(inj, objects.ClearContext(), dispatch.FromServer)
		Expect(drop).To(BeFalse())
		Expect(client.Blocking()).To(BeFalse())
		Expect(client.LastRefID()).To(BeEmpty())
	})
})
