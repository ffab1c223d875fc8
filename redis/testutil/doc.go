// Package testutil provides a miniredis-backed Redis component for tests.
package testutil
