package objects_test

import (
	"github.com/kelsonai/voxrelay/objects"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func token(text string, removeBefore, removeAfter bool) map[string]any {
	return map[string]any{"text": text, "removeSpaceBefore": removeBefore, "removeSpaceAfter": removeAfter}
}

var _ = Describe("ExtractSpeech", func() {
	It("suppresses and restores spaces per token flags (scenario E)", func() {
		o := objects.Object{
			Class: objects.ClassSpeechRecognized,
			Properties: map[string]any{
				"recognition": map[string]any{
					"phrases": []any{
						map[string]any{
							"interpretations": []any{
								map[string]any{
									"tokens": []any{
										token("what", false, false),
										token("'s", true, false),
										token("up", false, true),
									},
								},
							},
						},
					},
				},
			},
		}
		text, err := objects.ExtractSpeech(o)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("what's up"))
	})

	It("joins simple tokens word by word (Test Siri Proxy)", func() {
		o := objects.Object{
			Class: objects.ClassSpeechRecognized,
			Properties: map[string]any{
				"recognition": map[string]any{
					"phrases": []any{
						map[string]any{
							"interpretations": []any{
								map[string]any{
									"tokens": []any{
										token("Test", false, false),
										token("Siri", false, false),
										token("Proxy", false, true),
									},
								},
							},
						},
					},
				},
			},
		}
		text, err := objects.ExtractSpeech(o)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Test Siri Proxy"))
	})

	It("rejects non-SpeechRecognized objects", func() {
		_, err := objects.ExtractSpeech(objects.Object{Class: "StartRequest"})
		Expect(err).To(Equal(objects.ErrNotRecognizedSpeech))
	})
})
