// Package catalog turns the configuration tables into concrete commands.
//
// Probe inspects the host once (operating system, package manager on
// PATH, login shell, python environment) and returns the InstallContext
// every later component reads. Resolve and Plan then map a stage and that
// context to the argument vectors the runners execute. Resolution is pure:
// the same context always yields identical CommandSpecs.
package catalog
