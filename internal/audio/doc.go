// Package audio holds narration clips and plays them back. It decodes MP3
// and WAV payloads to 16-bit mono PCM, resamples them to the device rate
// and streams them through oto/v3.
package audio
