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

// Package store persists federation objects in SQLite.
package store

import (
	"context"
	"database/sql"
)

var schema = []string{
	`create table if not exists persons(
		id text primary key,
		actor blob not null,
		host text not null,
		suspended integer not null default 0,
		privkey text,
		inserted integer not null default (unixepoch()),
		updated integer not null default (unixepoch()),
		fetched integer
	)`,
	`create index if not exists personshost on persons(host)`,
	`create table if not exists notes(
		id text primary key,
		author text not null,
		object blob not null,
		public integer not null default 0,
		error text,
		inserted integer not null default (unixepoch()),
		updated integer not null default (unixepoch())
	)`,
	`create index if not exists notesauthor on notes(author)`,
	`create table if not exists hashtags(
		note text not null references notes(id),
		hashtag text not null,
		unique(note, hashtag)
	)`,
	`create index if not exists hashtagshashtag on hashtags(hashtag)`,
	`create table if not exists polls(
		note text primary key references notes(id),
		multiple integer not null default 0,
		expires integer,
		choices blob not null,
		votes blob not null
	)`,
	`create table if not exists pollvotes(
		poll text references polls(note),
		voter text not null,
		choice integer not null,
		inserted integer not null default (unixepoch()),
		unique(poll, voter, choice)
	)`,
	`create table if not exists reactions(
		id text primary key,
		note text not null,
		author text not null,
		name text
	)`,
	`create table if not exists outbox(
		activity blob not null,
		sender text not null,
		attempts integer not null default 0,
		sent integer not null default 0,
		inserted integer not null default (unixepoch())
	)`,
	`create table if not exists follows(
		id text primary key,
		follower text not null,
		followed text not null,
		accepted integer
	)`,
}

// Init creates missing tables and indexes.
func Init(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
