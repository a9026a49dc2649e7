// Package testutil holds helpers shared by the package tests.
//
//   - Isolate points every XDG directory at a temporary tree and clears
//     HEAINSTALL_ overrides, so a developer's own configuration never
//     leaks into a test.
//   - WriteFiles and ReadFile seed and inspect an afero filesystem in one
//     line, failing the test on error.
package testutil
