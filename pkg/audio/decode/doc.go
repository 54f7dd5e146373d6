// Package decode turns audio files into the 16-bit PCM the mixer plays.
//
// Supports: MP3, FLAC, Ogg Vorbis, WAV and raw PCM files, plus Opus packets
// for network streams.
//
// File decoders implement Decoder, whose Pull method matches the mixer's
// music contract, so a decoder can be handed straight to PlayMusic. Short
// sounds are usually decoded up front with Load.
//
// Example:
//
//	dec, err := decode.Open("theme.ogg")
//	if err != nil {
//		return err
//	}
//	player, err := manager.PlayMusic(dec)
package decode
