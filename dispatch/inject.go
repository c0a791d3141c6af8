package dispatch

import (
	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/session"
)

// Sink delivers an injected object toward dir, encoded and framed. proxy.Pair
// implements this over its two wire/frame codecs; tests use a recording
// fake.
type Sink interface {
	InjectObject(dir Direction, o objects.Object) error
}

// Injector is the injection contract §4.4 exposes to plugins: say, ask,
// make_view, show_directions and its specializations, complete_request, and
// reset_context. It is handed to every filter and speech rule invocation
// rather than letting plugins reach into the engine or sink directly.
type Injector struct {
	engine *session.Engine
	peer   *session.Engine
	sink   Sink
}

// NewInjector builds an Injector over the client-facing engine (whose
// refId drives every injected object) and its paired upstream engine, both
// of which complete_request/reset_context touch.
func NewInjector(client, upstream *session.Engine, sink Sink) *Injector {
	return &Injector{engine: client, peer: upstream, sink: sink}
}

func (inj *Injector) refID() string {
	if r := inj.engine.LastRefID(); r != "" {
		return r
	}
	return objects.NewRefID()
}

// inject roots obj with the current refId and protocol version, then hands
// it to the sink toward the client. It also feeds the refId back into the
// engine so a later ShouldDrop/block check sees the id an injected object
// claims, matching §4.3's "for injected objects" clause.
func (inj *Injector) inject(obj objects.Object) error {
	obj.RefID = inj.refID()
	obj.Version = objects.ProtocolVersion
	inj.engine.AdoptInjectedRefID(obj.RefID)
	return inj.sink.InjectObject(FromServer, obj)
}

// Say commands Siri to speak text, optionally with separate spoken text and
// a follow-up listen prompt.
func (inj *Injector) Say(text, spoken string, prompt bool) error {
	utterance := objects.Utterance(text, spoken, prompt, "")
	return inj.inject(objects.AddViews([]objects.Object{utterance}, "Completion", nil))
}

// Ask says the question with prompt=true, then completes the request
// without resetting context, so Siri doesn't keep spinning while it waits
// for the next utterance.
func (inj *Injector) Ask(question, spoken string) error {
	if err := inj.Say(question, spoken, true); err != nil {
		return err
	}
	return inj.CompleteRequest(false)
}

// MakeView emits a composite view built from the given sub-objects.
func (inj *Injector) MakeView(views []objects.Object) error {
	return inj.inject(objects.AddViews(views, "Completion", nil))
}

// ShowDirections emits a ShowMapPoints of the given kind between the two
// locations, optionally narrated by utterance.
func (inj *Injector) ShowDirections(kind objects.DirectionsType, source, destination objects.Object, utterance *objects.Object) error {
	return inj.inject(objects.Directions(kind, source, destination, utterance))
}

func (inj *Injector) ShowDrivingDirections(source, destination objects.Object, utterance *objects.Object) error {
	return inj.ShowDirections(objects.DirectionsByCar, source, destination, utterance)
}

func (inj *Injector) ShowWalkingDirections(source, destination objects.Object, utterance *objects.Object) error {
	return inj.ShowDirections(objects.DirectionsWalking, source, destination, utterance)
}

func (inj *Injector) ShowPublicTransitDirections(source, destination objects.Object, utterance *objects.Object) error {
	return inj.ShowDirections(objects.DirectionsByPublicTransit, source, destination, utterance)
}

// CompleteRequest emits a RequestCompleted and, if resetContext, resets
// both paired engines (clearing last_ref_id/block/pending on each).
func (inj *Injector) CompleteRequest(resetContext bool) error {
	err := inj.inject(objects.RequestCompleted(nil))
	if resetContext {
		inj.engine.ClearContext()
		inj.peer.ClearContext()
	}
	return err
}

// ResetContext resets both paired engines and discards any pending
// continuation, without emitting anything toward the client.
func (inj *Injector) ResetContext() {
	inj.engine.ClearContext()
	inj.peer.ClearContext()
}
