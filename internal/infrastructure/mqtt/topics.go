package mqtt

import "fmt"

// Topic prefixes for the ComfoAir bridge.
//
// Sensor and command topics live under a flat comfoair/ hierarchy.
// Discovery documents go under the Home Assistant discovery prefix.
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "comfoair"

	// DiscoveryPrefix is the Home Assistant MQTT discovery prefix.
	DiscoveryPrefix = "homeassistant"

	// DeviceName is the node identifier used in discovery topics.
	DeviceName = "ComfoAir"
)

// Availability payloads. Home Assistant's MQTT integration expects these
// exact strings by default.
const (
	PayloadOnline  = "Online"
	PayloadOffline = "Offline"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.FanSpeed() // "comfoair/fan/speed"
type Topics struct{}

// =============================================================================
// Sensor Topics
// =============================================================================

// TempOutside returns the topic for outside air temperature readings.
//
// Example: comfoair/temp/outside
func (Topics) TempOutside() string {
	return fmt.Sprintf("%s/temp/outside", TopicPrefix)
}

// AirflowExhaust returns the topic for exhaust fan duty readings.
//
// Example: comfoair/airflow/exhaust
func (Topics) AirflowExhaust() string {
	return fmt.Sprintf("%s/airflow/exhaust", TopicPrefix)
}

// AirflowSupply returns the topic for supply fan duty readings.
//
// Example: comfoair/airflow/supply
func (Topics) AirflowSupply() string {
	return fmt.Sprintf("%s/airflow/supply", TopicPrefix)
}

// =============================================================================
// Fan Topics
// =============================================================================

// FanSpeed returns the topic for named fan speed updates (non-retained).
//
// Example: comfoair/fan/speed
func (Topics) FanSpeed() string {
	return fmt.Sprintf("%s/fan/speed", TopicPrefix)
}

// FanState returns the topic for on/off fan state updates (retained).
//
// Example: comfoair/fan/state
func (Topics) FanState() string {
	return fmt.Sprintf("%s/fan/state", TopicPrefix)
}

// FanSpeedSet returns the inbound command topic for named speed requests.
//
// Example: comfoair/fan/speed/set
func (Topics) FanSpeedSet() string {
	return fmt.Sprintf("%s/fan/speed/set", TopicPrefix)
}

// FanStateSet returns the inbound command topic for on/off requests.
//
// Example: comfoair/fan/state/set
func (Topics) FanStateSet() string {
	return fmt.Sprintf("%s/fan/state/set", TopicPrefix)
}

// =============================================================================
// Availability
// =============================================================================

// Availability returns the LWT availability topic (retained Online/Offline).
//
// Example: comfoair/LWT
func (Topics) Availability() string {
	return fmt.Sprintf("%s/LWT", TopicPrefix)
}

// =============================================================================
// Home Assistant Discovery
// =============================================================================

// DiscoveryFan returns the discovery config topic for the fan entity.
//
// Example: homeassistant/fan/ComfoAir/config
func (Topics) DiscoveryFan() string {
	return fmt.Sprintf("%s/fan/%s/config", DiscoveryPrefix, DeviceName)
}

// DiscoverySensor returns the discovery config topic for a named sensor.
//
// Example: homeassistant/sensor/ComfoAir_temp/config
func (Topics) DiscoverySensor(suffix string) string {
	return fmt.Sprintf("%s/sensor/%s_%s/config", DiscoveryPrefix, DeviceName, suffix)
}
