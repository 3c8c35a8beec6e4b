package main

import (
	"bytes"
	"context"
	stdlog "log"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/jsonify-go/application"
	"github.com/lk2023060901/jsonify-go/pkg/util/jsonutil"
)

type CLISuite struct {
	suite.Suite
	dir    string
	config string
}

func (s *CLISuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.T().Setenv(application.EnvConfigFilePath, "")
	s.config = s.write("jsonify.yaml", "log:\n  level: error\n  stderr: false\n")
}

func (s *CLISuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *CLISuite) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--config", s.config}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (s *CLISuite) TestEncode() {
	a := s.write("a.json", `{"b": 1, "a": [true, null]}`)
	b := s.write("b.json", `"x"`)

	code, out, _ := s.run("encode", a, b)
	s.Equal(0, code)
	s.Equal("{\"a\":[true,null],\"b\":1}\n\"x\"\n", out)

	code, out, _ = s.run("encode", "--pretty", b)
	s.Equal(0, code)
	s.Equal("\"x\"\n", out)
}

func (s *CLISuite) TestEncodeZstd() {
	a := s.write("a.json", `{"k":"v"}`)
	code, out, _ := s.run("encode", "--zstd", a)
	s.Equal(0, code)

	packed := s.write("a.json.zst", out)
	v, err := jsonutil.LoadFile(packed)
	s.NoError(err)
	s.Equal(map[string]any{"k": "v"}, v)

	code, _, _ = s.run("encode", "--zstd", "--pretty", a)
	s.Equal(1, code)
}

func (s *CLISuite) TestClassify() {
	a := s.write("a.json", `{"s":"x","n":1,"o":{},"l":[],"b":false,"z":null}`)
	code, out, _ := s.run("classify", a)
	s.Equal(0, code)
	s.Equal(a+"\tobject\n"+
		"\tb\tboolean\n"+
		"\tl\tarray\n"+
		"\tn\tnumber\n"+
		"\to\tobject\n"+
		"\ts\tstring\n"+
		"\tz\tnull\n", out)
}

func (s *CLISuite) TestExpand() {
	obj := s.write("obj.json", `{"a":"{\"x\":1}","b":"plain","c":"[1]"}`)
	code, out, _ := s.run("expand", obj)
	s.Equal(0, code)
	s.Equal("{\"a\":{\"x\":1},\"b\":\"plain\",\"c\":[1]}\n", out)

	code, out, _ = s.run("expand", "--keys", " a, ", obj)
	s.Equal(0, code)
	s.Equal("{\"a\":{\"x\":1},\"b\":\"plain\",\"c\":\"[1]\"}\n", out)

	list := s.write("list.json", `[{"p":"{\"i\":1}"},"{\"skip\":true}",{"p":"{\"i\":2}"}]`)
	code, out, _ = s.run("expand", "--keys", "p", list)
	s.Equal(0, code)
	s.Equal("[{\"p\":{\"i\":1}},\"{\\\"skip\\\":true}\",{\"p\":{\"i\":2}}]\n", out)
}

func (s *CLISuite) TestExpandKeysFromConfig() {
	s.config = s.write("keys.yaml", "log:\n  stderr: false\nexpand:\n  keys: [a]\noutput:\n  pretty: true\n")
	obj := s.write("obj.json", `{"a":"[1]","b":"[2]"}`)
	code, out, _ := s.run("expand", obj)
	s.Equal(0, code)
	s.Equal("{\n  \"a\": [\n    1\n  ],\n  \"b\": \"[2]\"\n}\n", out)
}

func (s *CLISuite) TestErrors() {
	code, _, stderr := s.run("encode")
	s.Equal(1, code)
	s.Contains(stderr, "FILE")

	code, _, stderr = s.run("encode", filepath.Join(s.dir, "missing.json"))
	s.Equal(1, code)
	s.Contains(stderr, "missing.json")

	bad := s.write("bad.json", `{"a":`)
	code, _, stderr = s.run("classify", bad)
	s.Equal(1, code)
	s.Contains(stderr, "malformed JSON payload")

	code, _, _ = s.run("nope")
	s.Equal(2, code)

	code, _, _ = s.run("encode", "--unknown-flag")
	s.Equal(1, code)

	var stdout, stderr2 bytes.Buffer
	s.Equal(2, run(context.Background(), nil, &stdout, &stderr2))
	s.Contains(stderr2.String(), "usage")

	stdout.Reset()
	stderr2.Reset()
	s.Equal(1, run(context.Background(), []string{"--config", filepath.Join(s.dir, "none.yaml"), "encode", bad}, &stdout, &stderr2))
}

func (s *CLISuite) TestInterrupted() {
	a := s.write("a.json", `{"k":"v"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--config", s.config, "encode", a}, &stdout, &stderr)
	s.Equal(exitInterrupted, code)
	s.Empty(stdout.String())
	s.Contains(stderr.String(), "context canceled")
}

func (s *CLISuite) TestSetMaxProcsQuiet() {
	var buf bytes.Buffer
	stdlog.SetOutput(&buf)
	defer stdlog.SetOutput(os.Stderr)

	setMaxProcs()
	s.Empty(buf.String())
	s.GreaterOrEqual(runtime.GOMAXPROCS(0), 1)
}

func (s *CLISuite) TestVersion() {
	code, out, _ := s.run("version")
	s.Equal(0, code)
	s.Equal("jsonify "+version+"\n", out)
}

func TestCLI(t *testing.T) {
	suite.Run(t, new(CLISuite))
}
