package mqtt

import "fmt"

// Topic prefixes for the Cooker Core MQTT hierarchy.
//
// All topics use the flat scheme: cookerd/{category}/{id}
const (
	// TopicPrefix is the base for all Cooker Core topics.
	TopicPrefix = "cookerd"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "cookerd/system"
)

// Topics provides builders for Cooker Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.CookerStatus("anova sim-0000000000")
//	// Returns: "cookerd/status/anova sim-0000000000"
type Topics struct{}

// CookerStatus returns the topic for a cooker's state snapshots.
// Published retained so new subscribers see the current state.
//
// Example: cookerd/status/anova sim-0000000000
func (Topics) CookerStatus(cookerID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, cookerID)
}

// CookerDevices returns the topic for the announced device list.
//
// Example: cookerd/devices
func (Topics) CookerDevices() string {
	return fmt.Sprintf("%s/devices", TopicPrefix)
}

// SystemStatus returns the service liveness topic, used for both the
// retained online/offline announcements and the LWT.
//
// Example: cookerd/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
