// Package stream decodes the newline-delimited JSON protocol read from the
// game process: one Config record followed by an unbounded run of frames.
//
// Frame lines that fail to parse are dropped and decoding continues; only a
// missing or malformed Config is fatal.
package stream
