package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/airlogic/comfobridge/internal/infrastructure/mqtt"
)

// Home Assistant discovery payloads, published on every MQTT
// (re)connection so a restarted broker or HA instance rediscovers the
// unit without manual configuration.

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
}

type fanDiscovery struct {
	Name                string          `json:"name"`
	Device              discoveryDevice `json:"device"`
	UniqueID            string          `json:"unique_id"`
	StateTopic          string          `json:"state_topic"`
	CommandTopic        string          `json:"command_topic"`
	SpeedStateTopic     string          `json:"speed_state_topic"`
	SpeedCommandTopic   string          `json:"speed_command_topic"`
	AvailabilityTopic   string          `json:"availability_topic"`
	PayloadAvailable    string          `json:"payload_available"`
	PayloadNotAvailable string          `json:"payload_not_available"`
	QoS                 int             `json:"qos"`
	PayloadOn           string          `json:"payload_on"`
	PayloadOff          string          `json:"payload_off"`
	PayloadLowSpeed     string          `json:"payload_low_speed"`
	PayloadMediumSpeed  string          `json:"payload_medium_speed"`
	PayloadHighSpeed    string          `json:"payload_high_speed"`
	Speeds              []string        `json:"speeds"`
	Platform            string          `json:"platform"`
}

type sensorDiscovery struct {
	Platform            string          `json:"platform"`
	Name                string          `json:"name"`
	Icon                string          `json:"icon"`
	Device              discoveryDevice `json:"device"`
	UniqueID            string          `json:"unique_id"`
	StateTopic          string          `json:"state_topic"`
	AvailabilityTopic   string          `json:"availability_topic"`
	PayloadAvailable    string          `json:"payload_available"`
	PayloadNotAvailable string          `json:"payload_not_available"`
	UnitOfMeasurement   string          `json:"unit_of_measurement"`
}

func unitDevice() discoveryDevice {
	return discoveryDevice{
		Identifiers:  []string{"ComfoAir350"},
		Name:         "ComfoAir 350",
		Manufacturer: "Zehnder",
	}
}

// publishDiscovery announces the fan entity and the three sensors.
func (b *Bridge) publishDiscovery(broker Broker) error {
	topics := mqtt.Topics{}
	device := unitDevice()

	fan := fanDiscovery{
		Name:                "ComfoAir Fan",
		Device:              device,
		UniqueID:            "ComfoAir350_fan",
		StateTopic:          topics.FanState(),
		CommandTopic:        topics.FanStateSet(),
		SpeedStateTopic:     topics.FanSpeed(),
		SpeedCommandTopic:   topics.FanSpeedSet(),
		AvailabilityTopic:   topics.Availability(),
		PayloadAvailable:    mqtt.PayloadOnline,
		PayloadNotAvailable: mqtt.PayloadOffline,
		QoS:                 0,
		PayloadOn:           "on",
		PayloadOff:          "off",
		PayloadLowSpeed:     "low",
		PayloadMediumSpeed:  "medium",
		PayloadHighSpeed:    "high",
		Speeds:              []string{"off", "low", "medium", "high"},
		Platform:            "mqtt",
	}

	sensors := []struct {
		topic   string
		payload sensorDiscovery
	}{
		{topics.DiscoverySensor("temp"), sensorDiscovery{
			Platform:            "mqtt",
			Name:                "Outside Temperature",
			Icon:                "mdi:thermometer",
			Device:              device,
			UniqueID:            "ComfoAir350_outside_temp",
			StateTopic:          topics.TempOutside(),
			AvailabilityTopic:   topics.Availability(),
			PayloadAvailable:    mqtt.PayloadOnline,
			PayloadNotAvailable: mqtt.PayloadOffline,
			UnitOfMeasurement:   "C",
		}},
		{topics.DiscoverySensor("airflow_supply"), sensorDiscovery{
			Platform:            "mqtt",
			Name:                "Supply Airflow",
			Icon:                "mdi:fan",
			Device:              device,
			UniqueID:            "ComfoAir350_airflow_supply",
			StateTopic:          topics.AirflowSupply(),
			AvailabilityTopic:   topics.Availability(),
			PayloadAvailable:    mqtt.PayloadOnline,
			PayloadNotAvailable: mqtt.PayloadOffline,
			UnitOfMeasurement:   "%",
		}},
		{topics.DiscoverySensor("airflow_exhaust"), sensorDiscovery{
			Platform:            "mqtt",
			Name:                "Exhaust Airflow",
			Icon:                "mdi:fan",
			Device:              device,
			UniqueID:            "ComfoAir350_airflow_exhaust",
			StateTopic:          topics.AirflowExhaust(),
			AvailabilityTopic:   topics.Availability(),
			PayloadAvailable:    mqtt.PayloadOnline,
			PayloadNotAvailable: mqtt.PayloadOffline,
			UnitOfMeasurement:   "%",
		}},
	}

	if err := publishJSON(broker, topics.DiscoveryFan(), fan); err != nil {
		return err
	}
	for _, s := range sensors {
		if err := publishJSON(broker, s.topic, s.payload); err != nil {
			return err
		}
	}
	return nil
}

func publishJSON(broker Broker, topic string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal discovery %s: %w", topic, err)
	}
	if err := broker.PublishString(topic, string(raw), false); err != nil {
		return fmt.Errorf("publish discovery %s: %w", topic, err)
	}
	return nil
}
