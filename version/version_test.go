package version_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/msgcacheperf/version"
)

type VersionTestSuite struct {
	suite.Suite
}

func TestVersionTestSuite(t *testing.T) {
	suite.Run(t, new(VersionTestSuite))
}

func (s *VersionTestSuite) TestString() {
	defer func(v, c, d string) { version.Version, version.Commit, version.Date = v, c, d }(
		version.Version, version.Commit, version.Date)

	version.Version, version.Commit, version.Date = "", "", ""
	s.Equal("dev", version.Get())
	s.Equal("dev", version.String())

	version.Version, version.Commit, version.Date = "v1.4.0", "3e56fb9", "2026-04-03"
	s.Equal("v1.4.0", version.Get())
	s.Equal("v1.4.0 (3e56fb9) built 2026-04-03", version.String())
}
