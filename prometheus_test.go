// Copyright 2026 The Salome Launcher Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launcher

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPrometheusMetricsCollector(t *testing.T) {
	Convey("Events show up as metrics", t, func() {
		pmc := NewPrometheusMetricsCollector("test")
		pmc.StateTransition(StateIdle, StateStaging)
		pmc.StateTransition(StateStaging, StateStarting)
		pmc.ServiceStarted("naming", 2*time.Millisecond)
		pmc.ServiceExited("naming", StatusExitedError)
		pmc.CleanupWarning("tree")
		pmc.PollError(true)

		So(testutil.ToFloat64(pmc.state), ShouldEqual, float64(StateStarting))
		So(testutil.ToFloat64(pmc.starts.WithLabelValues("naming")), ShouldEqual, 1)
		So(testutil.ToFloat64(pmc.exits.WithLabelValues("naming", "failed")), ShouldEqual, 1)
		So(testutil.ToFloat64(pmc.cleanup.WithLabelValues("tree")), ShouldEqual, 1)

		n, e := testutil.GatherAndCount(pmc.Registry(), "test_session_state_transitions_total")
		So(e, ShouldBeNil)
		So(n, ShouldEqual, 2)

		rec := httptest.NewRecorder()
		pmc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		So(rec.Code, ShouldEqual, 200)
		So(strings.Contains(rec.Body.String(), "test_poll_errors_total"), ShouldBeTrue)
	})
}
