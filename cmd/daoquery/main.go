/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command daoquery runs one query against a configured datasource and
// prints the rows as JSON lines.
//
//	daoquery -config dao.yaml [-ds key] [-offset n -size n] [-count] (-sql "..." | -key template.key) [name=value ...]
//
// Trailing name=value arguments are bound to :name placeholders. Values that
// parse as integers or floats are bound as numbers. Statements that write
// print the number of affected rows instead.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/go-juicedev/dao"
	"github.com/go-juicedev/dao/config"
	sqllib "github.com/go-juicedev/dao/sql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(os.Stderr, "daoquery:", err)
		}
		os.Exit(2)
	}
}

type options struct {
	config     string
	datasource string
	query      string
	key        string
	offset     int64
	size       int64
	count      bool
	debug      bool
	params     map[string]any
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("daoquery", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", "dao.yaml", "configuration file")
	fs.StringVar(&opts.datasource, "ds", "", "datasource key, ? for any and ?! for any but the default")
	fs.StringVar(&opts.query, "sql", "", "SQL text")
	fs.StringVar(&opts.key, "key", "", "template key")
	fs.Int64Var(&opts.offset, "offset", -1, "index of the first row")
	fs.Int64Var(&opts.size, "size", -1, "maximum number of rows")
	fs.BoolVar(&opts.count, "count", false, "print the total count of the unpaged query")
	fs.BoolVar(&opts.debug, "debug", false, "log the statements")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if (opts.query == "") == (opts.key == "") {
		return nil, errors.New("exactly one of -sql and -key is required")
	}
	for _, arg := range fs.Args() {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q is not name=value", arg)
		}
		if opts.params == nil {
			opts.params = make(map[string]any)
		}
		opts.params[name] = parseValue(value)
	}
	return opts, nil
}

func parseValue(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func (o *options) page() *dao.Page[dao.Row] {
	page := new(dao.Page[dao.Row])
	if o.offset >= 0 {
		page.SetOffset(o.offset)
	}
	if o.size >= 0 {
		page.SetPageSize(o.size)
	}
	page.AutoCount = o.count
	return page
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	cfg.Logger.Writer = stderr
	engine, err := dao.Open(cfg, dao.WithDebug(cfg.Debug || opts.debug))
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	op, err := engine.Compile(dao.Declaration{
		Name:        "daoquery",
		SQL:         opts.query,
		TemplateKey: opts.key,
		Datasource:  opts.datasource,
	})
	if err != nil {
		return err
	}
	var params dao.Params
	if opts.params != nil {
		params = dao.Named(opts.params)
	}

	query := opts.query
	if query == "" {
		query, _ = engine.Templates().Lookup(opts.key)
	}
	enc := json.NewEncoder(stdout)
	if sqllib.ActionOf(query).ForWrite() {
		result, err := dao.Execution(op)(ctx, params)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		return enc.Encode(map[string]int64{"rowsAffected": affected})
	}

	page, err := dao.Paged[dao.Row](op)(ctx, opts.page(), params)
	if err != nil {
		return err
	}
	for _, row := range page.RawResult {
		if err = enc.Encode(row); err != nil {
			return err
		}
	}
	if opts.count {
		return enc.Encode(map[string]int64{"total": page.TotalCount})
	}
	return nil
}
