// Package wren infers TypeScript parameter types from call sites.
package wren

// Version is the wren release.
const Version = "0.1.0"
