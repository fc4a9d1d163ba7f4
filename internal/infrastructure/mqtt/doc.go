// Package mqtt provides MQTT client connectivity for Cooker Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained cooker status publishing
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is an optional fan-out path: every cooker state update received
// from the vendor relay is republished to a retained status topic, so
// home automation systems can follow the cook without speaking the
// relay protocol.
//
//	Vendor Relay → Cooker Core → MQTT Broker → Subscribers
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
//	client.PublishCookerStatus(mqtt.CookerStatusMessage{
//	    CookerID:  "anova sim-0000000000",
//	    State:     "COOKING",
//	    WaterTemp: 62.4,
//	})
package mqtt
