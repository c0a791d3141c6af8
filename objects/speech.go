package objects

import (
	"errors"
	"strings"

	"github.com/kelsonai/voxrelay/wire/plist"
)

// ErrNotRecognizedSpeech is returned by ExtractSpeech when the object isn't
// a SpeechRecognized event.
var ErrNotRecognizedSpeech = errors.New("objects: not a SpeechRecognized object")

// ExtractSpeech walks a SpeechRecognized object's phrases → first
// interpretation → tokens structure and reassembles the spoken utterance,
// per §4.6: each token contributes its text, honoring removeSpaceBefore
// (trims one trailing space already accumulated) and removeSpaceAfter
// (suppresses the default trailing space this token would otherwise add).
func ExtractSpeech(o Object) (string, error) {
	if o.Class != ClassSpeechRecognized {
		return "", ErrNotRecognizedSpeech
	}
	// plist.Decode yields nested mappings as plist.Map; objects built in
	// Go may hold plain map[string]any. Both are accepted.
	asMap := func(v any) (map[string]any, bool) {
		switch m := v.(type) {
		case map[string]any:
			return m, true
		case plist.Map:
			return m, true
		}
		return nil, false
	}
	recognition, _ := asMap(o.Properties["recognition"])
	phrases, _ := recognition["phrases"].([]any)

	var b strings.Builder
	for _, p := range phrases {
		phrase, ok := asMap(p)
		if !ok {
			continue
		}
		interpretations, _ := phrase["interpretations"].([]any)
		if len(interpretations) == 0 {
			continue
		}
		first, ok := asMap(interpretations[0])
		if !ok {
			continue
		}
		tokens, _ := first["tokens"].([]any)
		for _, t := range tokens {
			tok, ok := asMap(t)
			if !ok {
				continue
			}
			text, _ := tok["text"].(string)
			removeBefore, _ := tok["removeSpaceBefore"].(bool)
			removeAfter, _ := tok["removeSpaceAfter"].(bool)

			if removeBefore {
				s := b.String()
				if strings.HasSuffix(s, " ") {
					b.Reset()
					b.WriteString(s[:len(s)-1])
				}
			}
			b.WriteString(text)
			if !removeAfter {
				b.WriteString(" ")
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
