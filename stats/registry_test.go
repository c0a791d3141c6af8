package stats_test

import (
	"net/http/httptest"

	"github.com/kelsonai/voxrelay/stats"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	It("serves every registered metric name", func() {
		stats.SessionOpened()
		stats.FrameDecoded("payload")
		stats.ObjectDispatched("from-client", "StartRequest")
		stats.FilterError()
		stats.PendingResponseOpened()
		stats.SessionClosed()
		stats.PendingResponseClosed()

		req := httptest.NewRequest("GET", "/metrics", nil)
		rec := httptest.NewRecorder()
		stats.Handler().ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(200))
		body := rec.Body.String()
		Expect(body).To(ContainSubstring("voxrelay_sessions_active"))
		Expect(body).To(ContainSubstring("voxrelay_frames_total"))
		Expect(body).To(ContainSubstring("voxrelay_objects_dispatched_total"))
		Expect(body).To(ContainSubstring("voxrelay_filter_errors_total"))
		Expect(body).To(ContainSubstring("voxrelay_pending_responses"))
	})
})
