package objects

import (
	"fmt"

	"github.com/kelsonai/voxrelay/wire/plist"
)

// Views, requests, and data objects are constructed through these
// functions rather than factory.py's ObjectFactory/ResponseFactory class
// methods; Go has no classmethod-on-a-namespace idiom, so each becomes a
// free function returning a populated Object. RefID/root-ness is applied by
// the caller (the dispatch injection contract, not the factory) since only
// the session engine knows the current refId.

// Utterance builds an AssistantUtteranceView with the given display and
// spoken text.
func Utterance(displayText, spokenText string, listenAfterSpeaking bool, identifier string) Object {
	if identifier == "" {
		identifier = "Misc#ident"
	}
	if spokenText == "" {
		spokenText = displayText
	}
	return Object{
		Class: ClassAssistantUtteranceView,
		Group: GroupAssistant,
		Properties: plist.Map{
			"text":                 displayText,
			"speakableText":        spokenText,
			"dialogIdentifier":     identifier,
			"listenAfterSpeaking":  listenAfterSpeaking,
		},
	}
}

// AddViews wraps one or more sub-objects (typically an Utterance) in an
// AddViews envelope, the form the client actually expects to receive.
func AddViews(views []Object, dialogPhase string, callbacks []Object) Object {
	if dialogPhase == "" {
		dialogPhase = "Completion"
	}
	viewMaps := make([]any, len(views))
	for i, v := range views {
		viewMaps[i] = v.ToMap()
	}
	cbMaps := make([]any, len(callbacks))
	for i, c := range callbacks {
		cbMaps[i] = c.ToMap()
	}
	return Object{
		Class: ClassAddViews,
		Group: GroupAssistant,
		Properties: plist.Map{
			"scrollToTop": false,
			"temporary":   false,
			"dialogPhase": dialogPhase,
			"views":       viewMaps,
			"callbacks":   cbMaps,
		},
	}
}

// RequestCompleted builds a RequestCompleted object with the given
// callbacks (may be empty).
func RequestCompleted(callbacks []Object) Object {
	cbMaps := make([]any, len(callbacks))
	for i, c := range callbacks {
		cbMaps[i] = c.ToMap()
	}
	return Object{
		Class:      ClassRequestCompleted,
		Group:      GroupSystem,
		Properties: plist.Map{"callbacks": cbMaps},
	}
}

// ResultCallback wraps a list of commands with a result code, the shape the
// client expects a callback entry to take.
func ResultCallback(commands []Object, code int64) Object {
	cmdMaps := make([]any, len(commands))
	for i, c := range commands {
		cmdMaps[i] = c.ToMap()
	}
	return Object{
		Class:      ClassResultCallback,
		Group:      GroupSystem,
		Properties: plist.Map{"commands": cmdMaps, "code": code},
	}
}

// CancelRequest builds a CancelRequest object. The source's direction-pair
// constructor referenced an undefined identifier for its request id
// argument (see the design notes' open question); this signature requires
// requestID explicitly rather than guessing at a default.
func CancelRequest(requestID string) Object {
	return Object{
		Class:      ClassCancelRequest,
		Group:      GroupSystem,
		Properties: plist.Map{"request_id": requestID},
	}
}

// Button builds an assistant Button with the given label and commands to
// run when tapped.
func Button(text string, commands []Object) Object {
	cmdMaps := make([]any, len(commands))
	for i, c := range commands {
		cmdMaps[i] = c.ToMap()
	}
	return Object{
		Class:      ClassButton,
		Group:      GroupAssistant,
		Properties: plist.Map{"text": text, "commands": cmdMaps},
	}
}

// CustomCommandButton builds a Button whose press sends a StartRequest
// carrying command as its utterance, the shape Plugin.CustomCommands
// dispatches on: a button wired to a named custom command rather than a
// literal spoken phrase.
func CustomCommandButton(text, command string) Object {
	return Button(text, []Object{StartRequest(command, false)})
}

// WebSearchButton builds a Button whose press performs a web search for
// query, using the magic utterance encoding Siri's own web-search
// fallback recognizes.
func WebSearchButton(text, query string) Object {
	utterance := fmt.Sprintf("^webSearchQuery^=^%s^^webSearchConfirmation^=^Yes^", query)
	return Button(text, []Object{StartRequest(utterance, false)})
}

// ConfirmationOptions builds the confirm/cancel button set for a
// confirmation dialog.
func ConfirmationOptions(confirmLabel, cancelLabel string, confirmCommands, cancelCommands []Object) Object {
	confirmMaps := make([]any, len(confirmCommands))
	for i, c := range confirmCommands {
		confirmMaps[i] = c.ToMap()
	}
	cancelMaps := make([]any, len(cancelCommands))
	for i, c := range cancelCommands {
		cancelMaps[i] = c.ToMap()
	}
	return Object{
		Class: ClassConfirmationOptions,
		Group: GroupAssistant,
		Properties: plist.Map{
			"confirmLabel":    confirmLabel,
			"cancelLabel":     cancelLabel,
			"confirmCommands": confirmMaps,
			"cancelCommands":  cancelMaps,
		},
	}
}

// Location builds a system Location data object.
func Location(label, street, city, stateCode, countryCode, postalCode string, latitude, longitude float64) Object {
	return Object{
		Class: ClassLocation,
		Group: GroupSystem,
		Properties: plist.Map{
			"label":       label,
			"street":      street,
			"city":        city,
			"stateCode":   stateCode,
			"countryCode": countryCode,
			"postalCode":  postalCode,
			"latitude":    latitude,
			"longitude":   longitude,
		},
	}
}

// MapItem pins a single location on the map, as used by MapItemSnippet.
func MapItem(label string, location Object) Object {
	return Object{
		Class: ClassMapItem,
		Group: GroupLocalSearch,
		Properties: plist.Map{
			"label":    label,
			"location": location.ToMap(),
		},
	}
}

// MapItemSnippet wraps a list of MapItems for display.
func MapItemSnippet(useCurrentLocation bool, items []Object) Object {
	itemMaps := make([]any, len(items))
	for i, it := range items {
		itemMaps[i] = it.ToMap()
	}
	return Object{
		Class: ClassMapItemSnippet,
		Group: GroupLocalSearch,
		Properties: plist.Map{
			"useCurrentLocation": useCurrentLocation,
			"items":              itemMaps,
		},
	}
}

// ShowMapPoints requests turn-by-turn directions between two locations.
func ShowMapPoints(kind DirectionsType, source, destination Object) Object {
	return Object{
		Class: ClassShowMapPoints,
		Group: GroupLocalSearch,
		Properties: plist.Map{
			"showDirections": true,
			"showTraffic":    false,
			"directionsType": string(kind),
			"itemSource":     source.ToMap(),
			"itemDestination": destination.ToMap(),
		},
	}
}

// Directions composes the ShowMapPoints/ResultCallback/AddViews/
// RequestCompleted chain the injection contract's show_directions sends:
// an optional spoken utterance plus the map points, as a single
// RequestCompleted ready to be made root and encoded.
func Directions(kind DirectionsType, source, destination Object, utterance *Object) Object {
	mapPoints := ShowMapPoints(kind, source, destination)
	resultCB := ResultCallback([]Object{mapPoints}, 0)

	var views []Object
	if utterance != nil {
		views = append(views, *utterance)
	}
	added := AddViews(views, "Completion", []Object{resultCB})

	outerCB := ResultCallback([]Object{added}, 0)
	return RequestCompleted([]Object{outerCB})
}

// StartRequest builds the request the client sends to kick off a session;
// used by tests and the replay harness to synthesize fixtures.
func StartRequest(utterance string, handsFree bool) Object {
	return Object{
		Class: ClassStartRequest,
		Group: GroupSystem,
		Properties: plist.Map{
			"utterance": utterance,
			"handsFree": handsFree,
		},
	}
}

// SendCommands wraps a list of commands for direct injection.
func SendCommands(commands []Object) Object {
	cmdMaps := make([]any, len(commands))
	for i, c := range commands {
		cmdMaps[i] = c.ToMap()
	}
	return Object{
		Class:      ClassSendCommands,
		Group:      GroupSystem,
		Properties: plist.Map{"commands": cmdMaps},
	}
}

// ClearContext builds a context-reset marker object (distinct from the
// frame-level KindClearContext control record, but carrying the same
// meaning when it appears as a decoded payload).
func ClearContext() Object {
	return Object{Class: ClassClearContext, Group: GroupSystem, Properties: plist.Map{}}
}
