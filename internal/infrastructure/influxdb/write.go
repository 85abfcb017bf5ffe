package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// unitTag identifies the ventilation unit in every point, so one
// bucket can hold several bridges.
const unitTag = "comfoair350"

// WriteReading records a single decoded attribute value.
//
// This is the primary method for ventilation telemetry. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - attribute: The attribute name (e.g. "temp_outside", "fan_speed")
//   - value: The numeric value to record
//   - at: Timestamp of the reading
//
// Example:
//
//	client.WriteReading("temp_outside", 12.5, time.Now())
//	client.WriteReading("airflow_supply", 55, time.Now())
func (c *Client) WriteReading(attribute string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"ventilation",
		map[string]string{
			"unit":      unitTag,
			"attribute": attribute,
		},
		map[string]interface{}{
			"value": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteBridgeStats records bridge operational counters.
//
// Called periodically so frame loss and reconnect churn show up in
// dashboards alongside the readings they affect.
//
// Parameters:
//   - fields: Counter name to value (e.g. "frames_rx", "reconnects")
func (c *Client) WriteBridgeStats(fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bridge_stats",
		map[string]string{"unit": unitTag},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
