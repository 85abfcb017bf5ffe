// Package bridge connects a ComfoAir ventilation unit to an MQTT
// broker following the Home Assistant conventions.
//
// The bridge owns the broker session lifecycle. On every connection it
// publishes Home Assistant discovery documents, marks the unit
// available, clears its publish baseline, attaches device listeners
// and subscribes to the fan command topics; when the session dies it
// tears everything down and retries at a fixed interval, forever. The
// serial connection is owned by the comfoair package and survives
// broker outages.
//
// State flowing device-to-broker is deduplicated: a value is published
// once and repeated only after the baseline is cleared by a broker or
// device reconnection. The binary fan state topic is derived from
// speed transitions: any move out of "off" publishes a retained "on",
// a move to "off" publishes a retained "off", and automatic mode only
// updates the baseline since Home Assistant's fan model has no "auto"
// speed.
//
// Commands flowing broker-to-device are validated against a fixed
// vocabulary and translated to ventilation levels; unknown payloads
// are logged and dropped rather than failing the session.
package bridge
