package mqtt

import (
	"context"
	"errors"
	"testing"
)

// Unit tests that do not require a running broker. Connection round-trips
// live in integration_test.go behind the integration build tag.

// =============================================================================
// Zero-Value Client Tests
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestSubscriptionCount_Empty(t *testing.T) {
	client := &Client{}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestHasSubscription_NotSubscribed(t *testing.T) {
	client := &Client{}

	if client.HasSubscription("nonexistent/topic") {
		t.Error("HasSubscription() should be false for unsubscribed topic")
	}
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestPublishEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Publish("", []byte("test"), 0, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	client := &Client{}

	err := client.Publish("test/topic", []byte("test"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishDisconnected(t *testing.T) {
	client := &Client{}

	err := client.Publish("test/topic", []byte("test"), 0, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("", 0, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeInvalidQoS(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("test/topic", 3, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("test/topic", 0, nil)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSubscribeDisconnected(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("test/topic", 0, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestUnsubscribeEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Unsubscribe("")
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestUnsubscribeDisconnected(t *testing.T) {
	client := &Client{}

	err := client.Unsubscribe("test/topic")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheckCancelled(t *testing.T) {
	client := &Client{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := client.HealthCheck(ctx)
	if err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := &Client{}

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "TempOutside",
			builder: func() string {
				return Topics{}.TempOutside()
			},
			expected: "comfoair/temp/outside",
		},
		{
			name: "AirflowExhaust",
			builder: func() string {
				return Topics{}.AirflowExhaust()
			},
			expected: "comfoair/airflow/exhaust",
		},
		{
			name: "AirflowSupply",
			builder: func() string {
				return Topics{}.AirflowSupply()
			},
			expected: "comfoair/airflow/supply",
		},
		{
			name: "FanSpeed",
			builder: func() string {
				return Topics{}.FanSpeed()
			},
			expected: "comfoair/fan/speed",
		},
		{
			name: "FanState",
			builder: func() string {
				return Topics{}.FanState()
			},
			expected: "comfoair/fan/state",
		},
		{
			name: "FanSpeedSet",
			builder: func() string {
				return Topics{}.FanSpeedSet()
			},
			expected: "comfoair/fan/speed/set",
		},
		{
			name: "FanStateSet",
			builder: func() string {
				return Topics{}.FanStateSet()
			},
			expected: "comfoair/fan/state/set",
		},
		{
			name: "Availability",
			builder: func() string {
				return Topics{}.Availability()
			},
			expected: "comfoair/LWT",
		},
		{
			name: "DiscoveryFan",
			builder: func() string {
				return Topics{}.DiscoveryFan()
			},
			expected: "homeassistant/fan/ComfoAir/config",
		},
		{
			name: "DiscoverySensor temp",
			builder: func() string {
				return Topics{}.DiscoverySensor("temp")
			},
			expected: "homeassistant/sensor/ComfoAir_temp/config",
		},
		{
			name: "DiscoverySensor airflow_supply",
			builder: func() string {
				return Topics{}.DiscoverySensor("airflow_supply")
			},
			expected: "homeassistant/sensor/ComfoAir_airflow_supply/config",
		},
		{
			name: "DiscoverySensor airflow_exhaust",
			builder: func() string {
				return Topics{}.DiscoverySensor("airflow_exhaust")
			},
			expected: "homeassistant/sensor/ComfoAir_airflow_exhaust/config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestAvailabilityPayloads(t *testing.T) {
	// Home Assistant defaults expect these exact strings.
	if PayloadOnline != "Online" {
		t.Errorf("PayloadOnline = %q, want %q", PayloadOnline, "Online")
	}
	if PayloadOffline != "Offline" {
		t.Errorf("PayloadOffline = %q, want %q", PayloadOffline, "Offline")
	}
}
