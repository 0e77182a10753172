// Package engines contains the speech synthesizers used for narration.
// GTTS is the network engine; Espeak and Piper run offline. Each one runs a
// fresh process per request and implements narrate.Synthesizer.
package engines
