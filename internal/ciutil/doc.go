// Package ciutil detects CI environments and resolves the database used by
// integration tests.
package ciutil
