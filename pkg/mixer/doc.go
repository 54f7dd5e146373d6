// Package mixer schedules logical playback requests onto a bounded pool of
// playback sources.
//
// A Manager owns a SourcePool of N sources, each with a fixed ring of
// buffers, and a playback queue of every known Player. Producers call the
// Play* methods from any goroutine. A render goroutine calls Tick once per
// period, which services every queued player exactly once: queued players are
// admitted when a source is free or can be taken from a lower-priority
// player, active players fill one buffer, and exhausted or stopped players
// give their source back. The output device pulls mixed audio with Render.
//
// Example:
//
//	m, err := mixer.NewManager(mixer.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	m.Start()
//	defer m.Stop()
//
//	p, err := m.PlaySound(sound, mixer.SoundParameters{
//		Identifier:       3,
//		SourceIdentifier: 17,
//		Volume:           0.6,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if p == nil {
//		// inaudible, nothing was queued
//	}
package mixer
