/*
Copyright 2025, 2026 Dima Krasner

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

// calico-resolve fetches one ActivityPub object, validates it and prints
// it, ingesting posts and actors into the database on the way.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/calico-social/calico/cfg"
	"github.com/calico-social/calico/fed"
	"github.com/calico-social/calico/ingest"
	"github.com/calico-social/calico/store"
	_ "github.com/mattn/go-sqlite3"
)

var (
	domain  = flag.String("domain", "localhost.localdomain:8443", "domain name")
	dbPath  = flag.String("db", "db.sqlite3", "database path")
	cfgPath = flag.String("cfg", "", "configuration file")
	asNote  = flag.Bool("note", false, "ingest the object as a post")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] URI\n\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
	}

	var config cfg.Config
	if *cfgPath != "" {
		f, err := os.Open(*cfgPath)
		if err != nil {
			slog.Error("Failed to open configuration file", "path", *cfgPath, "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&config); err != nil {
			slog.Error("Failed to parse configuration file", "path", *cfgPath, "error", err)
			os.Exit(1)
		}
		f.Close()
	}
	config.FillDefaults()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?%s", *dbPath, config.DatabaseOptions))
	if err != nil {
		slog.Error("Failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.Init(ctx, db); err != nil {
		slog.Error("Failed to create tables", "error", err)
		os.Exit(1)
	}

	policy, err := fed.NewPolicy(&config)
	if err != nil {
		slog.Error("Failed to load federation policy", "error", err)
		os.Exit(1)
	}
	defer policy.Close()

	resolver := fed.NewResolver(policy, *domain, &config, fed.NewClient(&config), db)

	pool := fed.NewContextPool(resolver, int64(config.MaxResolverRequests))
	rctx, err := pool.Borrow(ctx)
	if err != nil {
		slog.Error("Failed to acquire a resolution slot", "error", err)
		os.Exit(1)
	}
	defer pool.Return(rctx)

	uri := flag.Arg(0)

	if *asNote {
		persons := ingest.Persons{Domain: *domain, Config: &config, DB: db, Resolver: resolver}
		notes := ingest.NewNotes(*domain, &config, db, resolver, &persons)

		note, err := notes.ResolveNote(ctx, rctx, uri)
		if err != nil {
			slog.Error("Failed to ingest post", "uri", uri, "error", err, "visited", rctx.History())
			os.Exit(1)
		}
		if note == nil {
			return
		}

		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "\t")
		if err := e.Encode(&note.Object); err != nil {
			slog.Error("Failed to print post", "uri", uri, "error", err)
			os.Exit(1)
		}
		return
	}

	resolved, err := resolver.Resolve(ctx, rctx, uri)
	if err != nil {
		slog.Error("Failed to resolve object", "uri", uri, "error", err, "visited", rctx.History())
		os.Exit(1)
	}

	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "\t")
	if err := e.Encode(resolved); err != nil {
		slog.Error("Failed to print object", "uri", uri, "error", err)
		os.Exit(1)
	}
}
