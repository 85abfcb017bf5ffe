// Package comfoair implements the serial protocol of Zehnder ComfoAir
// ventilation units.
//
// The unit speaks a framed binary protocol over RS-232: each frame is
// bracketed by start and end sequences, carries a 16-bit command, a
// length-prefixed payload with 0x07 byte doubling, and a checksum.
// Every frame the unit sends must be acknowledged.
//
// The package provides:
//   - Frame encoding, scanning, and checksum validation (frame.go)
//   - Attribute decoding for ventilation and temperature responses
//     (attributes.go)
//   - CC Ease display segment decoding (display.go)
//   - A connection client with ordered dispatch, polling, and
//     automatic serial reconnection (client.go)
//
// Usage:
//
//	client, err := comfoair.Connect(ctx, comfoair.Config{
//		Device: "/dev/ttyUSB0",
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	sub := client.AddReadingListener(comfoair.AttrFanSpeed, func(r comfoair.Reading) {
//		log.Printf("fan speed: %v", r.Value)
//	})
//	defer client.RemoveReadingListener(sub)
//
//	if err := client.SetSpeed(ctx, 3); err != nil {
//		return err
//	}
//
// Listeners are invoked from a single dispatch goroutine, so each
// listener observes frames in strict arrival order. Listener handles
// returned by the Add methods are opaque tokens; removing one never
// affects other registrations of the same function.
package comfoair
