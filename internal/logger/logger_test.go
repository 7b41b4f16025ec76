// Copyright 2026 The Capisuite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	textDebugString = `severity=DEBUG message=debugExample`
	textInfoString  = `severity=INFO message=infoExample`
	textWarnString  = `severity=WARNING message=warnExample`
	textErrorString = `severity=ERROR message=errorExample`

	jsonDebugString = `"severity":"DEBUG","message":"debugExample"`
	jsonInfoString  = `"severity":"INFO","message":"infoExample"`
	jsonErrorString = `"severity":"ERROR","message":"errorExample"`
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func redirectToBuffer(buf *bytes.Buffer, level slog.Level, format string) {
	debugFactory = newFactory("")
	debugFactory.format = format
	debugFactory.sysWriter = buf
	debugFactory.level.Set(level)
	defaultLogger = debugFactory.build()
}

func fireAll() {
	Debugf("debugExample")
	Infof("infoExample")
	Warnf("warnExample")
}

func (s *LoggerTestSuite) TestTextLevelFiltering() {
	var buf bytes.Buffer
	redirectToBuffer(&buf, LevelWarn, "text")

	fireAll()
	out := buf.String()

	assert.NotContains(s.T(), out, "debugExample")
	assert.NotContains(s.T(), out, "infoExample")
	assert.Regexp(s.T(), regexp.MustCompile(textWarnString), out)
}

func (s *LoggerTestSuite) TestTextLevelDebug() {
	var buf bytes.Buffer
	redirectToBuffer(&buf, LevelDebug, "text")

	Debugf("debugExample")
	assert.Regexp(s.T(), regexp.MustCompile(textDebugString), buf.String())
}

func (s *LoggerTestSuite) TestJSONFormat() {
	var buf bytes.Buffer
	redirectToBuffer(&buf, LevelInfo, "json")

	Infof("infoExample")
	assert.Regexp(s.T(), regexp.MustCompile(regexp.QuoteMeta(jsonInfoString)), buf.String())
}

func (s *LoggerTestSuite) TestErrorfGoesToErrorSink() {
	var buf bytes.Buffer
	errorFactory = newFactory("")
	errorFactory.format = "json"
	errorFactory.sysWriter = &buf
	errorFactory.level.Set(LevelError)
	errorLogger = errorFactory.build()

	Errorf("errorExample")
	assert.Regexp(s.T(), regexp.MustCompile(regexp.QuoteMeta(jsonErrorString)), buf.String())
}

func TestLevelForConfig(t *testing.T) {
	assert.Equal(t, LevelError, LevelForConfig(0))
	assert.Equal(t, LevelWarn, LevelForConfig(1))
	assert.Equal(t, LevelInfo, LevelForConfig(2))
	assert.Equal(t, LevelTrace, LevelForConfig(3))
	assert.Equal(t, LevelTrace, LevelForConfig(99))
	assert.Equal(t, LevelError, LevelForConfig(-1))
}
