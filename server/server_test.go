package server_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/msgcacheperf"
	"github.com/pitabwire/msgcacheperf/cache"
	"github.com/pitabwire/msgcacheperf/localization"
	"github.com/pitabwire/msgcacheperf/matcher"
	"github.com/pitabwire/msgcacheperf/messages"
	"github.com/pitabwire/msgcacheperf/registry"
	"github.com/pitabwire/msgcacheperf/server"
)

type ServerTestSuite struct {
	suite.Suite

	store *cache.CountingStore
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) handler(debug bool) http.Handler {
	ctx := s.T().Context()

	lm, err := localization.NewManager("../localization/test_data", "en", "de")
	s.Require().NoError(err)

	prefixes := matcher.MustNew("tooltip-", "oasis-view-")
	engines := msgcacheperf.NewEngines(registry.NewLocales(lm),
		msgcacheperf.WithPrefixMatcher(prefixes),
		msgcacheperf.WithSkipObserver(msgcacheperf.ContextSkipObserver{}),
		msgcacheperf.WithDebugOutput(debug),
	)

	inner := cache.NewInMemoryCache()
	s.T().Cleanup(func() { _ = inner.Close() })
	s.store = cache.Counting(inner)

	resolver := messages.NewResolver(engines, s.store, lm, messages.WithContentLanguage("en"))
	s.Require().NoError(resolver.Customize(ctx, "acme", "en", "sidebar", "<b>acme</b>", 0))

	return server.New(resolver, engines,
		server.WithContentLanguage("en"),
		server.WithPrefixes(prefixes),
		server.WithStoreStats(s.store.Stats),
	)
}

func (s *ServerTestSuite) do(h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) TestGetMessage() {
	testCases := []struct {
		name       string
		target     string
		header     http.Header
		wantStatus int
		wantText   string
		wantSource string
	}{
		{name: "catalog", target: "/api/messages/mainpage", wantStatus: http.StatusOK, wantText: "Main Page", wantSource: "catalog"},
		{name: "query language", target: "/api/messages/Mainpage?lang=de", wantStatus: http.StatusOK, wantText: "Hauptseite", wantSource: "catalog"},
		{name: "accept language", target: "/api/messages/mainpage", header: http.Header{"Accept-Language": {"de;q=0.9"}}, wantStatus: http.StatusOK, wantText: "Hauptseite", wantSource: "catalog"},
		{name: "tenant override via header", target: "/api/messages/sidebar", header: http.Header{"X-Tenant": {"acme"}}, wantStatus: http.StatusOK, wantText: "<b>acme</b>", wantSource: "override"},
		{name: "tenant override via query", target: "/api/messages/sidebar?tenant=acme", wantStatus: http.StatusOK, wantText: "<b>acme</b>", wantSource: "override"},
		{name: "short-circuited", target: "/api/messages/oasis-view-home", wantStatus: http.StatusNotFound},
		{name: "unknown", target: "/api/messages/nothing-here", wantStatus: http.StatusNotFound},
	}

	h := s.handler(true)
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			rec := s.do(h, tc.target, tc.header)
			s.Equal(tc.wantStatus, rec.Code)
			s.Equal("application/json", rec.Header().Get("Content-Type"))
			s.NotContains(rec.Body.String(), "MessageCachePerformance")

			if tc.wantStatus != http.StatusOK {
				return
			}
			var msg messages.Message
			s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &msg))
			s.Equal(tc.wantText, msg.Text)
			s.Equal(tc.wantSource, msg.Source)
		})
	}
}

func (s *ServerTestSuite) TestRender() {
	testCases := []struct {
		name        string
		debug       bool
		wantComment string
	}{
		{name: "debug", debug: true, wantComment: "\n<!-- MessageCachePerformance skipped messages: tooltip-nothing, oasis-view-x -->\n"},
		{name: "no debug", debug: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			h := s.handler(tc.debug)
			rec := s.do(h, "/render?tenant=acme&keys=mainpage,tooltip-search,tooltip-nothing,sidebar,oasis-view-x,tooltip-nothing", nil)

			s.Equal(http.StatusOK, rec.Code)
			body := rec.Body.String()
			s.Contains(body, `<li data-key="mainpage">Main Page</li>`)
			s.Contains(body, `<li data-key="tooltip-search">Search this wiki</li>`)
			s.Contains(body, `<li data-key="sidebar">&lt;b&gt;acme&lt;/b&gt;</li>`)
			s.Contains(body, `<li data-key="tooltip-nothing">⧼tooltip-nothing⧽</li>`)

			if tc.wantComment != "" {
				s.Contains(body, tc.wantComment)
			} else {
				s.NotContains(body, "MessageCachePerformance")
			}

			// mainpage, tooltip-search and sidebar reach the store; skipped keys never do.
			s.Equal(int64(3), s.store.Stats().Gets)
		})
	}
}

func (s *ServerTestSuite) TestRenderKeepsSkippedKeysInsideComment() {
	h := s.handler(true)
	key := "tooltip---!><script>alert(1)</script>"
	rec := s.do(h, "/render?keys="+url.QueryEscape(key), nil)

	s.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.NotContains(body, "--!><script>alert(1)</script>")
	s.Contains(body, `<li data-key="tooltip---!&gt;&lt;script&gt;alert(1)&lt;/script&gt;">`)
	s.True(strings.HasSuffix(body,
		"\n<!-- MessageCachePerformance skipped messages: tooltip-&#45;-!><script>alert(1)</script> -->\n"))
}

func (s *ServerTestSuite) TestStatus() {
	h := s.handler(false)
	s.do(h, "/api/messages/mainpage", nil)

	rec := s.do(h, "/status", nil)
	s.Equal(http.StatusOK, rec.Code)

	var st server.Status
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &st))
	s.Equal("en", st.ContentLanguage)
	s.Equal([]string{"tooltip-", "oasis-view-"}, st.Prefixes)
	s.Require().Len(st.Registries, 1)
	s.Equal("en", st.Registries[0].Locale)
	s.True(st.Registries[0].Loaded)
	s.Equal(5, st.Registries[0].Keys)
	s.Require().NotNil(st.Store)
	s.Equal(int64(1), st.Store.Gets)
}

func (s *ServerTestSuite) TestUnitOfWork() {
	var logs []*msgcacheperf.SkippedKeyLog
	h := server.UnitOfWork(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		log := msgcacheperf.SkippedLogFromContext(r.Context())
		log.Record("tooltip-x")
		logs = append(logs, log)
	}))

	s.do(h, "/", nil)
	s.do(h, "/", nil)

	s.Require().Len(logs, 2)
	s.NotSame(logs[0], logs[1])
	s.NotEqual(logs[0].ID(), logs[1].ID())
	s.Equal(1, logs[1].Len())
}

func (s *ServerTestSuite) TestRunShutsDown() {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	addr := listener.Addr().String()
	s.Require().NoError(listener.Close())

	ctx, cancel := context.WithCancel(s.T().Context())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, addr, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
	}()

	s.Eventually(func() bool {
		resp, getErr := http.Get("http://" + addr + "/") //nolint:noctx // test probe
		if getErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err = <-done:
		s.Require().NoError(err)
	case <-time.After(15 * time.Second):
		s.Fail("server did not stop")
	}
}
