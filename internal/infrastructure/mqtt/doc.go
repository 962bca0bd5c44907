// Package mqtt provides MQTT client connectivity for Medcab Core.
//
// This package manages:
//   - Connection to the household broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The event bus is optional and one-directional in spirit: Core publishes
// medication events (reminders fired, check-ins confirmed, alert changes)
// for other household automation to consume, and subscribes to the cabinet's
// environmental sensor feed to keep the system status block current.
//
//	Medcab Core ↔ MQTT Broker ↔ Cabinet sensors / home automation
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to the cabinet's sensor feed
//	err = client.Subscribe(mqtt.Topics{}.SensorStatus(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish an event
//	client.Publish(mqtt.Topics{}.ReminderFired(), payload, 1, false)
package mqtt
