package profiler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/msgcacheperf/config"
	"github.com/pitabwire/msgcacheperf/profiler"
)

type ProfilerTestSuite struct {
	suite.Suite
}

func TestProfilerTestSuite(t *testing.T) {
	suite.Run(t, new(ProfilerTestSuite))
}

func (s *ProfilerTestSuite) TestStartIfEnabled() {
	testCases := []struct {
		name          string
		enable        bool
		expectRunning bool
	}{
		{name: "disabled", enable: false, expectRunning: false},
		{name: "enabled", enable: true, expectRunning: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			ctx := s.T().Context()
			cfg := &config.ConfigurationDefault{ProfilerEnable: tc.enable, ProfilerPortAddr: "127.0.0.1:0"}

			srv := profiler.NewServer()
			s.Require().NoError(srv.StartIfEnabled(ctx, cfg))
			s.Equal(tc.expectRunning, srv.IsRunning())

			if tc.expectRunning {
				resp, err := http.Get("http://" + srv.Addr() + "/debug/pprof/") //nolint:noctx // test probe
				s.Require().NoError(err)
				s.Equal(http.StatusOK, resp.StatusCode)
				s.Require().NoError(resp.Body.Close())
			}

			s.Require().NoError(srv.Stop(ctx))
			s.False(srv.IsRunning())
			s.Empty(srv.Addr())
		})
	}
}

func (s *ProfilerTestSuite) TestHandlerOnlyServesPprof() {
	rec := httptest.NewRecorder()
	profiler.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	s.Equal(http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	profiler.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))
	s.Equal(http.StatusOK, rec.Code)
}
