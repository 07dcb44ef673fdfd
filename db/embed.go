// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema is the idempotent DDL for the items, orders, and carts tables.
//
//go:embed migrations/001_schema.sql
var Schema string
