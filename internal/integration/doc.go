// Package integration exercises the keeper end to end over a scripted
// platform with the real clock, including signal-driven shutdown of a
// separate process.
package integration
