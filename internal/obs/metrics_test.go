package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	const id = "3f1c2a9e-8b7d-4c6e-9f10-2a3b4c5d6e7f"
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/users/" + id:                  "/users/:id",
		"/roles/" + id + "/permissions": "/roles/:id/permissions",
		"/users/" + id + "/active":      "/users/:id/active",
		"/users/admin/stats":            "/users/admin/stats",
		"/roles?limit=10":               "/roles",
		"/users/not-a-uuid":             "/users/not-a-uuid",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentCountsRequests(t *testing.T) {
	Init()
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/instrument-test", "202"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/instrument-test", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/instrument-test", "202"))
	if after-before != 1 {
		t.Fatalf("expected one counted request, got %v", after-before)
	}
}

func TestObserveDecision(t *testing.T) {
	Init()
	before := testutil.ToFloat64(authzDecisions.WithLabelValues("http", "forbidden"))
	ObserveDecision("http", "forbidden")
	if got := testutil.ToFloat64(authzDecisions.WithLabelValues("http", "forbidden")); got-before != 1 {
		t.Fatalf("decision not counted: %v", got-before)
	}
}
