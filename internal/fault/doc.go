// Package fault defines the shared failure taxonomy used by the probe,
// health, and chat packages. Every failed operation in the connectivity
// core carries a fault.Kind so the status aggregator and the UI can react
// to categories ("backend down" vs "proxy misrouted") instead of raw
// error strings.
package fault
