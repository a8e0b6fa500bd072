package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryCountsOutcomes(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveIssuance("success")
	r.ObserveIssuance("success")
	r.ObserveRedemption("forbidden")
	r.ObserveSubmission("lead", "success")

	if got := testutil.ToFloat64(r.issuance.WithLabelValues("success")); got != 2 {
		t.Fatalf("issuance success = %v", got)
	}
	if got := testutil.ToFloat64(r.redemption.WithLabelValues("forbidden")); got != 1 {
		t.Fatalf("redemption forbidden = %v", got)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "site_form_submissions_total") {
		t.Fatal("submission counter not exported")
	}
}
