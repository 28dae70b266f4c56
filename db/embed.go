// Package db embeds the catalog schema applied on startup.
package db

import _ "embed"

// Schema holds the DDL for the products and product_sizes tables.
//
//go:embed migrations/001_schema.sql
var Schema string
