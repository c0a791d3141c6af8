// Package objects implements the wire object model: the small set of
// well-known classes the frame payload codec must produce and consume
// correctly, plus the generic Object envelope (class/group/properties/
// refId/aceId/v) every payload decodes into.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package objects

import (
	"strings"

	"github.com/google/uuid"
	"github.com/kelsonai/voxrelay/wire/plist"
)

// Group names, per §4.6.
const (
	GroupSystem      = "com.apple.ace.system"
	GroupAssistant   = "com.apple.ace.assistant"
	GroupLocalSearch = "com.apple.ace.localsearch"
)

// ProtocolVersion is the version string carried on the root object of an
// injected tree only; nested objects never carry it.
const ProtocolVersion = "2.0"

// Object is the generic envelope every decoded payload is represented as.
// Well-known classes are produced/consumed through the constructors in
// factory.go, which populate Properties with the right shape; callers that
// only need pass-through behavior can read/write Properties directly.
type Object struct {
	Class      string
	Group      string
	Properties plist.Map
	RefID      string // uppercase UUID, set on responses/continuations
	AceID      string // lowercase UUID, set on requests
	Version    string // ProtocolVersion, root objects only
}

// NewRefID returns a fresh uppercase-UUID correlation id, as required for
// response/continuation objects.
func NewRefID() string { return strings.ToUpper(uuid.NewString()) }

// NewAceID returns a fresh lowercase-UUID correlation id, as required for
// request objects.
func NewAceID() string { return strings.ToLower(uuid.NewString()) }

// ToMap flattens an Object into the plist.Map shape the wire codec expects:
// reserved fields at top level alongside a nested "properties" mapping.
func (o Object) ToMap() plist.Map {
	m := plist.Map{
		"class":      o.Class,
		"group":      o.Group,
		"properties": map[string]any(o.Properties),
	}
	if o.RefID != "" {
		m["refId"] = o.RefID
	}
	if o.AceID != "" {
		m["aceId"] = o.AceID
	}
	if o.Version != "" {
		m["v"] = o.Version
	}
	return m
}

// FromMap reconstructs an Object from a decoded plist.Map.
func FromMap(m plist.Map) Object {
	o := Object{
		Class: stringField(m, "class"),
		Group: stringField(m, "group"),
		RefID: stringField(m, "refId"),
		AceID: stringField(m, "aceId"),
	}
	o.Version = stringField(m, "v")
	if props, ok := m["properties"].(map[string]any); ok {
		o.Properties = plist.Map(props)
	} else if props, ok := m["properties"].(plist.Map); ok {
		o.Properties = props
	} else {
		o.Properties = plist.Map{}
	}
	return o
}

func stringField(m plist.Map, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
