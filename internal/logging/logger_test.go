package logging_test

import (
	"bytes"
	"testing"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/msgcacheperf/config"
	"github.com/pitabwire/msgcacheperf/internal/logging"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerTestSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (s *LoggerTestSuite) TestLevelFromConfig() {
	testCases := []struct {
		name      string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{name: "debug", level: "debug", wantDebug: true, wantInfo: true},
		{name: "info", level: "info", wantDebug: false, wantInfo: true},
		{name: "warn", level: "warn", wantDebug: false, wantInfo: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			cfg := &config.ConfigurationDefault{
				LogLevel:      tc.level,
				LogTimeFormat: "2006-01-02T15:04:05Z07:00",
			}

			var buf bytes.Buffer
			log := logging.New(s.T().Context(), cfg, util.WithLogOutput(&buf))
			log.Debug("debug line")
			log.Info("info line")

			s.Equal(tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			s.Equal(tc.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func (s *LoggerTestSuite) TestWithService() {
	var buf bytes.Buffer
	log := logging.New(s.T().Context(), nil, util.WithLogOutput(&buf), util.WithLogNoColor(true))

	cfg := &config.ConfigurationDefault{ServiceName: "wiki-edge", ServiceVersion: "1.2.3"}
	ctx := logging.WithService(s.T().Context(), log, cfg)
	util.Log(ctx).Info("hello")

	s.Contains(buf.String(), "hello")
	s.Contains(buf.String(), "wiki-edge")
	s.Contains(buf.String(), "1.2.3")
}
