// MIT License
//
// Copyright (c) 2022-2026 Arsene Tochemey Gandote
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	t.Run("with info level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer)

		logger.Info("hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "info", record["level"])
		assert.Equal(t, InfoLevel, logger.LogLevel())
	})
	t.Run("with formatted message", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(DebugLevel, buffer)

		logger.Debugf("service=(%s) started", "web")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
		assert.Equal(t, "service=(web) started", record["msg"])
		assert.Equal(t, "debug", record["level"])
	})
	t.Run("with level filtering", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(ErrorLevel, buffer)

		logger.Info("filtered out")
		assert.Zero(t, buffer.Len())

		logger.Error("kept")
		assert.NotZero(t, buffer.Len())
	})
	t.Run("with multiple writers", func(t *testing.T) {
		first := new(bytes.Buffer)
		second := new(bytes.Buffer)
		logger := New(WarningLevel, first, second)

		logger.Warn("fan out")

		assert.NotZero(t, first.Len())
		assert.Equal(t, first.String(), second.String())
	})
}
