package bridge

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/airlogic/comfobridge/internal/comfoair"
	"github.com/airlogic/comfobridge/internal/infrastructure/mqtt"
)

// Fan speed vocabulary, indexed by the unit's level code. Level 0 is
// reported when a CC Ease panel runs the unit in automatic mode.
var speedNames = []string{"auto", "off", "low", "medium", "high"}

// speedName maps a level code to its MQTT payload.
func speedName(level int) (string, bool) {
	if level < 0 || level >= len(speedNames) {
		return "", false
	}
	return speedNames[level], true
}

// speedIndex maps an MQTT payload back to a level code.
func speedIndex(name string) (int, bool) {
	for i, s := range speedNames {
		if s == name {
			return i, true
		}
	}
	return 0, false
}

// session is the per-connection wiring between device and broker. All
// handlers run under mu so device readings and broker commands observe
// a consistent fan baseline.
type session struct {
	b      *Bridge
	broker Broker
	ctx    context.Context

	mu sync.Mutex

	frameSub   comfoair.Subscription
	readingSub []comfoair.Subscription

	errc chan error
}

func newSession(ctx context.Context, b *Bridge, broker Broker) *session {
	return &session{
		b:      b,
		broker: broker,
		ctx:    ctx,
		errc:   make(chan error, 1),
	}
}

// fail reports the first session error; later ones are dropped.
func (s *session) fail(err error) {
	select {
	case s.errc <- err:
	default:
	}
}

// attachDeviceListeners wires the unit's frames and readings into the
// session. The raw frame listener feeds dedup logging and display
// decoding; reading listeners feed the publish pipeline.
func (s *session) attachDeviceListeners() {
	s.frameSub = s.b.device.AddFrameListener(s.handleFrame)

	published := []comfoair.Attribute{
		comfoair.AttrAirflowExhaust,
		comfoair.AttrAirflowSupply,
		comfoair.AttrFanSpeed,
		comfoair.AttrTempOutside,
	}
	for _, attr := range published {
		s.readingSub = append(s.readingSub,
			s.b.device.AddReadingListener(attr, s.handleReading))
	}

	// Remaining temperatures are observed for logging and history only
	logged := []comfoair.Attribute{
		comfoair.AttrTempComfort,
		comfoair.AttrTempReturn,
		comfoair.AttrTempExhaust,
		comfoair.AttrTempSupply,
	}
	for _, attr := range logged {
		s.readingSub = append(s.readingSub,
			s.b.device.AddReadingListener(attr, s.handleLoggedReading))
	}
}

// teardown detaches all device listeners.
func (s *session) teardown() {
	s.b.device.SetOnReconnect(nil)
	s.b.device.RemoveFrameListener(s.frameSub)
	for _, sub := range s.readingSub {
		s.b.device.RemoveReadingListener(sub)
	}
	s.readingSub = nil
}

// subscribeCommands attaches the two command topic handlers.
func (s *session) subscribeCommands() error {
	topics := mqtt.Topics{}
	qos := byte(s.b.cfg.MQTT.QoS)

	err := s.broker.Subscribe(topics.FanSpeedSet(), qos, func(_ string, payload []byte) error {
		s.handleSetSpeed(string(payload))
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topics.FanSpeedSet(), err)
	}

	err = s.broker.Subscribe(topics.FanStateSet(), qos, func(_ string, payload []byte) error {
		s.handleSetFanState(string(payload))
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topics.FanStateSet(), err)
	}

	return nil
}

// publish sends a payload and routes failures into session teardown,
// so a dead broker connection triggers a full reconnect cycle.
func (s *session) publish(topic, payload string, retained bool) {
	s.b.logInfo("publishing", "topic", topic, "payload", payload, "retained", retained)
	if err := s.broker.PublishString(topic, payload, retained); err != nil {
		s.fail(fmt.Errorf("publish %s: %w", topic, err))
	}
}

// handleFrame logs each distinct frame and decodes display broadcasts.
func (s *session) handleFrame(f comfoair.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("frame:%#06x", f.Command)
	if !s.b.cache.Changed(key, fmt.Sprintf("%X", f.Data)) {
		return
	}

	s.b.logDebug("frame received", "frame", f.String())

	if f.Command != comfoair.CmdDisplay {
		return
	}
	segments, err := comfoair.DecodeDisplay(f.Data)
	if err != nil {
		s.b.logWarn("display decode failed", "error", err)
		return
	}
	if segments != nil {
		s.b.logInfo("display state", "segments", segments)
	}
}

// handleReading publishes a changed attribute value.
func (s *session) handleReading(r comfoair.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Attribute == comfoair.AttrFanSpeed {
		level, ok := r.Value.(int)
		if !ok {
			return
		}
		s.handleFanSpeed(level)
		return
	}

	value := formatValue(r.Value)
	if !s.b.cache.Changed(string(r.Attribute), value) {
		return
	}

	topics := mqtt.Topics{}
	switch r.Attribute {
	case comfoair.AttrTempOutside:
		s.publish(topics.TempOutside(), value, false)
	case comfoair.AttrAirflowExhaust:
		s.publish(topics.AirflowExhaust(), value, false)
	case comfoair.AttrAirflowSupply:
		s.publish(topics.AirflowSupply(), value, false)
	}

	s.b.record(r)
}

// handleLoggedReading observes attributes that have no MQTT topic.
// They still reach history and telemetry when enabled.
func (s *session) handleLoggedReading(r comfoair.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := formatValue(r.Value)
	if !s.b.cache.Changed(string(r.Attribute), value) {
		return
	}

	s.b.logInfo("attribute", "name", r.Attribute, "value", value)
	s.b.record(r)
}

// handleFanSpeed publishes the fan speed and derives the binary on/off
// state from level transitions.
//
// The state topic is retained so Home Assistant restores the switch
// position across restarts; the speed topic is not, since the unit
// broadcasts it continuously. Automatic mode updates the baseline
// without publishing: HA's fan model has no "auto" speed.
func (s *session) handleFanSpeed(level int) {
	speed, ok := speedName(level)
	if !ok {
		s.b.logWarn("ignoring unknown fan level", "level", level)
		return
	}

	prev, _ := s.b.cache.Get(cacheKeySpeed)
	if prev == speed {
		return
	}

	topics := mqtt.Topics{}
	switch speed {
	case "auto":
		// Baseline only
	case "off":
		s.b.cache.Put(cacheKeyState, "off")
		s.publish(topics.FanState(), "off", true)
	default:
		if prev == "" || prev == "off" {
			s.b.cache.Put(cacheKeyState, "on")
			s.publish(topics.FanState(), "on", true)
		}
		s.publish(topics.FanSpeed(), speed, false)
	}

	s.b.cache.Put(cacheKeySpeed, speed)
	s.b.record(comfoair.Reading{Attribute: comfoair.AttrFanSpeed, Value: level})
}

// handleSetSpeed applies a speed command from the broker.
//
// Unknown payloads are dropped with a log line. "auto" is accepted but
// writes nothing: the unit only reports automatic mode, it cannot be
// commanded into it. "off" maps to level 1 (away).
func (s *session) handleSetSpeed(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := speedIndex(payload)
	if !ok {
		s.b.logWarn("invalid fan speed command", "payload", payload)
		return
	}
	if pos < 1 || pos > 4 {
		return
	}

	if err := s.b.device.SetSpeed(s.ctx, pos); err != nil {
		s.b.logError("set speed failed", err)
	}
}

// handleSetFanState applies an on/off command from the broker.
//
// "off" selects level 1 (away). "on" selects level 2 (low), but only
// when the unit is not already running at some speed, so turning an
// already-running fan "on" does not knock it down to low.
func (s *session) handleSetFanState(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload != "on" && payload != "off" {
		s.b.logWarn("invalid fan state command", "payload", payload)
		return
	}

	if payload == "off" {
		if err := s.b.device.SetSpeed(s.ctx, 1); err != nil {
			s.b.logError("set speed failed", err)
		}
		return
	}

	speed, _ := s.b.cache.Get(cacheKeySpeed)
	if speed == "" || speed == "off" {
		if err := s.b.device.SetSpeed(s.ctx, 2); err != nil {
			s.b.logError("set speed failed", err)
		}
	}
}

// record forwards a reading to history and telemetry when configured.
func (b *Bridge) record(r comfoair.Reading) {
	now := time.Now()

	if b.history != nil {
		if err := b.history.Record(string(r.Attribute), formatValue(r.Value), now); err != nil {
			b.logWarn("history record failed", "attribute", r.Attribute, "error", err)
		}
	}

	if b.telemetry != nil {
		if v, ok := numericValue(r.Value); ok {
			b.telemetry.WriteReading(string(r.Attribute), v, now)
		}
	}
}

// formatValue renders a reading value as an MQTT payload. Temperatures
// always carry one decimal since the unit reports half degrees.
func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
