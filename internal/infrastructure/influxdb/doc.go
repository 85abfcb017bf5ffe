// Package influxdb provides optional time-series telemetry for the
// bridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, reading writes, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Decoded ventilation readings (temperatures, airflow, fan level)
//   - Bridge operational counters (frames, drops, reconnects)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "home",
//	    Bucket:  "ventilation",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteReading("temp_outside", 12.5, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via
// a callback. Connection and health check errors are returned directly.
// A disabled configuration yields ErrDisabled from Connect; the bridge
// treats that as "run without telemetry".
package influxdb
