// Package postgres provides the project and tag stores on PostgreSQL, using
// the pgx driver through database/sql. Schema changes ship as embedded goose
// migrations applied on Open.
package postgres
