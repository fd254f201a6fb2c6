package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// value reads a counter or gauge from the registry. labels are name/value
// pairs that must all match.
func value(m *Metrics, name string, labels ...string) float64 {
	mfs, err := m.Registry().Gather()
	if err != nil {
		return -1
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range metric.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labels); i += 2 {
				if got[labels[i]] != labels[i+1] {
					continue next
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}

func TestMetricsCounters(t *testing.T) {
	Convey("Given a metrics instance", t, func() {
		m := New()

		Convey("When results are recorded", func() {
			m.Registration(ResultOK)
			m.Registration(ResultExists)
			m.Registration(ResultOK)
			m.Submission(ResultImproved)
			m.BatchFlush(nil)
			m.BatchFlush(errors.New("boom"))
			m.LiveClientConnected()
			m.LiveClientConnected()
			m.LiveClientDisconnected()

			Convey("Then each label is counted separately", func() {
				So(value(m, "reaction_registrations_total", "result", ResultOK), ShouldEqual, 2)
				So(value(m, "reaction_registrations_total", "result", ResultExists), ShouldEqual, 1)
				So(value(m, "reaction_time_submissions_total", "result", ResultImproved), ShouldEqual, 1)
				So(value(m, "reaction_submission_batch_flushes_total", "result", ResultError), ShouldEqual, 1)
				So(value(m, "reaction_live_clients"), ShouldEqual, 1)
			})
		})

		Convey("When two instances exist", func() {
			So(func() { New() }, ShouldNotPanic)
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given a handler wrapped by the middleware", t, func() {
		m := New()
		h := m.Middleware("time", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/time", nil))

		Convey("Then the status code is passed through and counted", func() {
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(value(m, "reaction_http_requests_total", "endpoint", "time", "method", "POST", "status", "400"), ShouldEqual, 1)
		})

		Convey("Then the handler exposes the metric", func() {
			srv := httptest.NewServer(m.Handler())
			defer srv.Close()
			resp, err := http.Get(srv.URL)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			So(strings.Contains(string(body), "reaction_http_requests_total"), ShouldBeTrue)
		})
	})
}
