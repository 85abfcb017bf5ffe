// Package mqtt provides MQTT client connectivity for the ComfoAir bridge.
//
// This package manages:
//   - Connection to the broker (single session, supervisor-driven retries)
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) on the availability topic
//   - Connection health monitoring
//
// # Architecture
//
// The bridge speaks to home automation (Home Assistant) over MQTT:
//
//	ComfoAir unit (RS-232) ↔ comfobridge ↔ MQTT Broker ↔ Home Assistant
//
// Paho's built-in auto-reconnect is disabled on purpose. After a connection
// loss the bridge supervisor reconnects itself so that discovery documents,
// the retained Online availability message and all device listeners are
// re-established in a deterministic order.
//
// # Security Considerations
//
//   - TLS is recommended for non-local brokers (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// React to inbound speed commands
//	err = client.Subscribe(mqtt.Topics{}.FanSpeedSet(), 0,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a sensor reading
//	client.PublishString(mqtt.Topics{}.TempOutside(), "12.5", false)
package mqtt
