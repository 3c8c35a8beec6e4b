// jsonify 加载 JSON 文件并重新编码、判定类型或展开嵌套的 JSON 字符串。
//
//	jsonify [--config path] encode [--pretty] [--zstd] FILE...
//	jsonify [--config path] classify FILE...
//	jsonify [--config path] expand [--keys a,b] [--pretty] FILE...
//	jsonify version
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/blang/semver/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/lk2023060901/jsonify-go/application"
	"github.com/lk2023060901/jsonify-go/pkg/log"
	"github.com/lk2023060901/jsonify-go/pkg/util/merr"
)

// exitInterrupted 为收到中断信号后的退出码。
const exitInterrupted = 130

// version 可以在构建时通过 -ldflags "-X main.version=..." 覆盖。
var version = "0.1.0"

const usage = `usage: jsonify [--config path] <command> [options] FILE...

commands:
  encode    load files and print them re-encoded
  classify  print the JSON type of each file and of its top-level keys
  expand    decode string members that hold JSON documents
  version   print the version
`

func main() {
	setMaxProcs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	_ = log.Sync()
	os.Exit(code)
}

// setMaxProcs 按容器 CPU 配额设置 GOMAXPROCS，输出走 zap 而不是标准库 log。
func setMaxProcs() {
	if _, err := maxprocs.Set(maxprocs.Logger(log.S().Debugf)); err != nil {
		log.S().Debugf("failed to set GOMAXPROCS: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("jsonify", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "config file path (yaml or json)")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}
	name, cmdArgs := rest[0], rest[1:]

	if name == "version" {
		v, err := semver.Parse(version)
		if err != nil {
			fmt.Fprintf(stderr, "jsonify: invalid build version %q: %v\n", version, err)
			return 1
		}
		fmt.Fprintf(stdout, "jsonify %s\n", v)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "jsonify: unknown command %q\n", name)
		global.Usage()
		return 2
	}

	app := application.New()
	if err := app.Init(*configPath); err != nil {
		fmt.Fprintf(stderr, "jsonify: %v\n", err)
		return 1
	}

	ctx = log.WithModule(ctx, name)
	if err := cmd(ctx, app, cmdArgs, stdout, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		app.Logger().Debug("command failed",
			zap.String("command", name),
			zap.Int32("code", merr.Code(err)),
			zap.Stringer("type", merr.GetErrorType(err)),
			zap.Error(err))
		fmt.Fprintf(stderr, "jsonify %s: %v\n", name, err)
		if merr.IsCanceledOrTimeout(err) {
			return exitInterrupted
		}
		return 1
	}
	return 0
}
