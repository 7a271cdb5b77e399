// Package model is the Ludo rule engine: movability, move application, the
// turn state machine and AI token selection. Everything here is pure value
// code with no I/O, so a Game can be copied, persisted and replayed freely.
package model
