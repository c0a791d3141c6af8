package dispatch_test

import (
	"github.com/kelsonai/voxrelay/dispatch"
	"github.com/kelsonai/voxrelay/dispatch/plugin/builtin"
	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/session"
	"github.com/kelsonai/voxrelay/wire/plist"
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

type staticErrResp struct{ text string }

func (s staticErrResp) ErrorResponse() string { return s.text }

var _ = Describe("Dispatcher filter pipeline", func() {
	It("drops an object when a filter returns Drop", func() {
		p := fakePlugin{
			name: "dropper",
			filters: []dispatch.FilterSpec{{
				Fn: func(*dispatch.Injector, objects.Object, dispatch.Direction) dispatch.FilterResult {
					return dispatch.FilterResult{Action: dispatch.Drop}
				},
			}},
		}
		d, err := dispatch.NewDispatcher(staticErrResp{}, p)
		Expect(err).NotTo(HaveOccurred())

		_, drop := d.RunFilters(nil, objects.Object{Class: "Anything"}, dispatch.FromClient)
		Expect(drop).To(BeTrue())
	})

	It("uses the first replacement when multiple filters replace", func() {
		first := objects.Object{Class: "Replaced", Properties: plist.Map{"tag": "first"}}
		second := objects.Object{Class: "Replaced", Properties: plist.Map{"tag": "second"}}
		p := fakePlugin{
			name: "replacer",
			filters: []dispatch.FilterSpec{
				{Fn: func(*dispatch.Injector, objects.Object, dispatch.Direction) dispatch.FilterResult {
					return dispatch.FilterResult{Action: dispatch.Replace, Object: first}
				}},
				{Fn: func(*dispatch.Injector, objects.Object, dispatch.Direction) dispatch.FilterResult {
					return dispatch.FilterResult{Action: dispatch.Replace, Object: second}
				}},
			},
		}
		d, _ := dispatch.NewDispatcher(staticErrResp{}, p)
		out, drop := d.RunFilters(nil, objects.Object{Class: "Orig"}, dispatch.FromClient)
		Expect(drop).To(BeFalse())
		Expect(out.Properties["tag"]).To(Equal("first"))
	})

	It("treats a panicking filter as ignore rather than aborting dispatch", func() {
		p := fakePlugin{
			name: "panicker",
			filters: []dispatch.FilterSpec{{
				Fn: func(*dispatch.Injector, objects.Object, dispatch.Direction) dispatch.FilterResult {
					panic("boom")
				},
			}},
		}
		d, _ := dispatch.NewDispatcher(staticErrResp{}, p)
		out, drop := d.RunFilters(nil, objects.Object{Class: "Orig"}, dispatch.FromClient)
		Expect(drop).To(BeFalse())
		Expect(out.Class).To(Equal("Orig"))
	})
})

var _ = Describe("Dispatcher speech-rule pipeline (scenario A)", func() {
	It("claims an exact-match utterance and injects say + complete_request", func() {
		client, upstream := session.New(), session.New()
		session.Pair(client, upstream)
		client.AdoptAceID("REQ-1")

		sink := &recordingSink{}
		inj := dispatch.NewInjector(client, upstream, sink)
		d, err := dispatch.NewDispatcher(staticErrResp{}, builtin.NewTestPlugin())
		Expect(err).NotTo(HaveOccurred())

		claimed := d.RunSpeechRules(inj, client, "Test Siri Proxy")
		Expect(claimed).To(BeTrue())

		Expect(sink.injected).To(HaveLen(2))
		Expect(sink.injected[0].Class).To(Equal(objects.ClassAddViews))
		Expect(sink.injected[0].RefID).To(Equal("REQ-1"))
		Expect(sink.injected[1].Class).To(Equal(objects.ClassRequestCompleted))
	})
})

var _ = Describe("Dispatcher speech-rule pipeline (scenario B)", func() {
	It("suspends on a confirmation regex and resolves via ResponseList", func() {
		client, upstream := session.New(), session.New()
		session.Pair(client, upstream)
		client.AdoptAceID("REQ-2")

		sink := &recordingSink{}
		inj := dispatch.NewInjector(client, upstream, sink)
		d, _ := dispatch.NewDispatcher(staticErrResp{}, builtin.NewTestPlugin())

		claimed := d.RunSpeechRules(inj, client, "Please give me Confirmation.")
		Expect(claimed).To(BeTrue())
		Expect(client.Pending()).NotTo(BeNil())
		Expect(sink.injected).To(HaveLen(2)) // ask's Say + complete_request(no reset)

		claimed = d.RunSpeechRules(inj, client, "maybe")
		Expect(claimed).To(BeTrue())
		Expect(client.Pending()).NotTo(BeNil())
		Expect(sink.injected).To(HaveLen(5)) // unknown say + re-ask's (say+complete)

		claimed = d.RunSpeechRules(inj, client, "yes")
		Expect(claimed).To(BeTrue())
		Expect(client.Pending()).To(BeNil())

		last := sink.injected[len(sink.injected)-1]
		Expect(last.Class).To(Equal(objects.ClassRequestCompleted))
	})
})

type fakePlugin struct {
	name    string
	filters []dispatch.FilterSpec
	rules   []dispatch.SpeechRule
}

func (p fakePlugin) Name() string                  { return p.name }
func (fakePlugin) Init() error                     { return nil }
func (p fakePlugin) Filters() []dispatch.FilterSpec { return p.filters }
func (p fakePlugin) Rules() []dispatch.SpeechRule   { return p.rules }
func (fakePlugin) CustomCommands() map[string]dispatch.CustomCommandFn { return nil }
