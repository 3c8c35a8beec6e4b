// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jsonutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lk2023060901/jsonify-go/pkg/log"
	"github.com/lk2023060901/jsonify-go/pkg/util/merr"
)

type DecodeSuite struct {
	suite.Suite
	dir string
}

func (s *DecodeSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *DecodeSuite) writeFile(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *DecodeSuite) TestDecode() {
	v, err := Decode(`{"a":[1,2.5,"x",true,null],"b":{}}`)
	s.NoError(err)
	s.Equal(map[string]any{
		"a": []any{1.0, 2.5, "x", true, nil},
		"b": map[string]any{},
	}, v)

	v, err = Decode([]byte(" [1] \n"))
	s.NoError(err)
	s.Equal([]any{1.0}, v)

	v, err = Decode(`"世"`)
	s.NoError(err)
	s.Equal("世", v)
}

func (s *DecodeSuite) TestDecodeDoesNotAliasInput() {
	buf := []byte(`{"k":"value"}`)
	v, err := Decode(buf)
	s.Require().NoError(err)
	copy(buf, `{"k":"XXXXX"}`)
	s.Equal(map[string]any{"k": "value"}, v)
}

func (s *DecodeSuite) TestMalformed() {
	payloads := []string{
		"{invalid",
		"",
		"   ",
		`{"a":1} x`,
		`[1,2,]`,
		`{"a":1,}`,
		`"unterminated`,
		"\"raw\x01control\"",
		`{'a':1}`,
		`NaN`,
		"\"\xff\"",
		"{\"k\":\"ok\xc3\"}",
	}
	for _, payload := range payloads {
		_, err := Decode(payload)
		s.ErrorIs(err, merr.ErrMalformedPayload, "payload %q", payload)
	}
}

func (s *DecodeSuite) TestLoadFile() {
	path := s.writeFile("ok.json", `{"name":"ann","tags":["a"],"n":1}`)
	v, err := LoadFile(path)
	s.NoError(err)
	s.Equal(map[string]any{
		"name": "ann",
		"tags": []any{"a"},
		"n":    1.0,
	}, v)

	path = s.writeFile("scalar.json", "42\n")
	v, err = LoadFile(path)
	s.NoError(err)
	s.Equal(42.0, v)
}

func (s *DecodeSuite) TestLoadFileMissing() {
	_, err := LoadFile(filepath.Join(s.dir, "missing.json"))
	s.ErrorIs(err, merr.ErrIoFailed)
	s.Contains(err.Error(), "missing.json")

	_, err = LoadFile(s.dir)
	s.ErrorIs(err, merr.ErrIoFailed)
}

func (s *DecodeSuite) TestLoadFileMalformed() {
	for name, content := range map[string]string{
		"broken.json":   `{"a":`,
		"empty.json":    "",
		"trailing.json": `{"a":1} {"b":2}`,
		"latin1.json":   "[\"caf\xe9\"]",
	} {
		_, err := LoadFile(s.writeFile(name, content))
		s.ErrorIs(err, merr.ErrMalformedPayload, name)
	}
}

func (s *DecodeSuite) TestLoadFileCtx() {
	ctx := log.WithModule(context.Background(), "jsonutil-test")
	v, err := LoadFileCtx(ctx, s.writeFile("ctx.json", `[true]`))
	s.NoError(err)
	s.Equal([]any{true}, v)
}

func (s *DecodeSuite) TestLoadFileFailureLogRated() {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := context.WithValue(context.Background(), log.CtxLogKey, &log.MLogger{Logger: zap.New(core)})

	missing := filepath.Join(s.dir, "missing.json")
	for i := 0; i < 3*loadFailMaxBalance; i++ {
		_, err := LoadFileCtx(ctx, missing)
		s.ErrorIs(err, merr.ErrIoFailed)
	}
	// 限流分组为进程级，之前的失败也会消耗额度，只校验上界
	s.LessOrEqual(logs.Len(), loadFailMaxBalance+1)
	for _, entry := range logs.All() {
		s.Equal("failed to read json file", entry.Message)
		s.Equal(missing, entry.ContextMap()["path"])
	}
}

func (s *DecodeSuite) TestLoadFileZstd() {
	value := map[string]any{"name": "ann", "tags": []any{"a", "b"}}
	packet, err := EncodeCompressed(value)
	s.Require().NoError(err)

	path := filepath.Join(s.dir, "data.json.zst")
	s.Require().NoError(os.WriteFile(path, packet, 0o600))
	v, err := LoadFile(path)
	s.NoError(err)
	s.Equal(value, v)

	// 只有魔数没有合法帧
	path = s.writeFile("broken.zst", "\x28\xb5\x2f\xfdgarbage")
	_, err = LoadFile(path)
	s.ErrorIs(err, merr.ErrMalformedPayload)
}

func TestDecode(t *testing.T) {
	suite.Run(t, new(DecodeSuite))
}

func BenchmarkDecode(b *testing.B) {
	payload := []byte(`{"id":1,"name":"bench","tags":["a","b","c"],"nested":{"x":[1,2,3]}}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(payload); err != nil {
			b.Fatal(err)
		}
	}
}
