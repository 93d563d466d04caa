// Package pipeline drives a simulated deployment run: an ordered step
// catalog executed strictly one step at a time, an append-only log that
// screens observe, and a completion callback fired once per run.
//
// The engine is single-threaded in effect: exactly one scheduled timer is
// outstanding while a run is active, so step i+1 can never begin before
// step i's log entry is completed.
package pipeline
