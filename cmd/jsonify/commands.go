package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/jsonify-go/application"
	"github.com/lk2023060901/jsonify-go/pkg/log"
	"github.com/lk2023060901/jsonify-go/pkg/util/jsonutil"
	"github.com/lk2023060901/jsonify-go/pkg/util/merr"
	"github.com/lk2023060901/jsonify-go/pkg/util/typeutil"
)

type command func(ctx context.Context, app *application.Application, args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"encode":   runEncode,
	"classify": runClassify,
	"expand":   runExpand,
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("jsonify "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runEncode(ctx context.Context, app *application.Application, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("encode", stderr)
	pretty := fs.Bool("pretty", app.Settings().Output.Pretty, "indent output with two spaces")
	compressed := fs.Bool("zstd", false, "write zstd-compressed compact output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pretty && *compressed {
		return merr.WrapErrParameterInvalidMsg("--pretty and --zstd are mutually exclusive")
	}

	values, err := loadAll(ctx, fs.Args())
	if err != nil {
		return err
	}
	for _, v := range values {
		if *compressed {
			out, err := jsonutil.EncodeCompressed(v)
			if err != nil {
				return err
			}
			if _, err := stdout.Write(out); err != nil {
				return err
			}
			continue
		}
		if err := writeValue(stdout, v, *pretty); err != nil {
			return err
		}
	}
	return nil
}

func runClassify(ctx context.Context, app *application.Application, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("classify", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	values, err := loadAll(ctx, paths)
	if err != nil {
		return err
	}
	for i, v := range values {
		fmt.Fprintf(stdout, "%s\t%s\n", paths[i], jsonutil.Classify(v))
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range typeutil.Sorted(typeutil.NewSetFromMapKeys(obj)) {
			fmt.Fprintf(stdout, "\t%s\t%s\n", key, jsonutil.Classify(obj[key]))
		}
	}
	return nil
}

func runExpand(ctx context.Context, app *application.Application, args []string, stdout, stderr io.Writer) error {
	settings := app.Settings()
	fs := newFlagSet("expand", stderr)
	pretty := fs.Bool("pretty", settings.Output.Pretty, "indent output with two spaces")
	keysFlag := fs.String("keys", strings.Join(settings.Expand.Keys, ","), "comma separated keys to expand, empty means all keys")
	if err := fs.Parse(args); err != nil {
		return err
	}
	keys := splitKeys(*keysFlag)

	values, err := loadAll(ctx, fs.Args())
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := writeValue(stdout, expand(v, keys), *pretty); err != nil {
			return err
		}
	}
	return nil
}

// expand 展开对象，或数组中每个对象元素的字符串成员。
func expand(v any, keys []string) any {
	switch val := v.(type) {
	case map[string]any:
		jsonutil.TryDecodeKeys(val, keys...)
	case []any:
		records := lo.FilterMap(val, func(item any, _ int) (map[string]any, bool) {
			obj, ok := item.(map[string]any)
			return obj, ok
		})
		jsonutil.TryDecodeRecords(records, keys...)
	}
	return v
}

func splitKeys(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(key string, _ int) string {
		return strings.TrimSpace(key)
	}))
}

// loadAll 并发加载 paths，结果与参数顺序一致，任一失败即取消其余加载。
func loadAll(ctx context.Context, paths []string) ([]any, error) {
	if len(paths) == 0 {
		return nil, merr.WrapErrParameterMissing("FILE")
	}

	values := make([]any, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := jsonutil.LoadFileCtx(gctx, path)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).Debug("load files failed", log.FieldPath(strings.Join(paths, ",")))
		return nil, err
	}
	return values, nil
}

func writeValue(w io.Writer, v any, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = jsonutil.EncodePretty(v)
	} else {
		out, err = jsonutil.Encode(v)
	}
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
