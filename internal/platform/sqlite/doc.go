// Package sqlite provides the embedded project and tag stores backed by a
// single SQLite file, using the pure-Go modernc driver.
package sqlite
