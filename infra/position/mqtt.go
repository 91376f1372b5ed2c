// Package position provides implementations of the device geolocation
// capability: an MQTT-backed watcher for real position feeds and a simulated
// watcher for development fixtures.
package position

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/tracking"
	"github.com/respondhq/respond/infra/logger"
)

// ErrNoFix is returned by Current before any position has been received.
var ErrNoFix = errors.New("no position fix received yet")

// Config defines the connection parameters for the MQTT position feed.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	DeviceID    string `json:"device_id"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "respond"
	}
	if c.ClientID == "" {
		c.ClientID = "respond-" + uuid.NewString()
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	return nil
}

type fix struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracy_m"`
	UnixMS    int64   `json:"ts"`
}

// MQTTWatcher implements tracking.Watcher over an MQTT position topic. The
// device publishes JSON fixes to <prefix>/position/<device_id>.
type MQTTWatcher struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger

	mu      sync.Mutex
	last    *tracking.Position
	onError func(error)
}

var newMQTTClient = func(opts *paho.ClientOptions) paho.Client {
	return paho.NewClient(opts)
}

// NewMQTTWatcher connects to the broker.
func NewMQTTWatcher(cfg Config) (*MQTTWatcher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New("position-watcher")
	w := &MQTTWatcher{
		topic: fmt.Sprintf("%s/position/%s", cfg.TopicPrefix, cfg.DeviceID),
		qos:   cfg.QoS,
		log:   log,
	}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
		w.mu.Lock()
		cb := w.onError
		w.mu.Unlock()
		if cb != nil {
			cb(err)
		}
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	w.cli = c
	return w, nil
}

// Watch subscribes to the device position topic and forwards fixes until the
// returned stop func is called or ctx is done.
func (w *MQTTWatcher) Watch(ctx context.Context, onPosition func(tracking.Position), onError func(error)) (func(), error) {
	w.mu.Lock()
	w.onError = onError
	w.mu.Unlock()

	handler := func(_ paho.Client, msg paho.Message) {
		var f fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			w.log.Warnf("decode fix: %v", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		p := tracking.Position{
			Point:     geo.Point{Lat: f.Lat, Lng: f.Lng},
			AccuracyM: f.AccuracyM,
			Time:      time.UnixMilli(f.UnixMS),
		}
		if f.UnixMS == 0 {
			p.Time = time.Now()
		}
		w.mu.Lock()
		last := p
		w.last = &last
		w.mu.Unlock()
		if onPosition != nil {
			onPosition(p)
		}
	}
	if token := w.cli.Subscribe(w.topic, w.qos, handler); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if token := w.cli.Unsubscribe(w.topic); token.Wait() && token.Error() != nil {
				w.log.Warnf("unsubscribe: %v", token.Error())
			}
			w.mu.Lock()
			w.onError = nil
			w.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop, nil
}

// Current returns the most recent fix.
func (w *MQTTWatcher) Current(_ context.Context) (tracking.Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return tracking.Position{}, ErrNoFix
	}
	return *w.last, nil
}

// Close disconnects from the broker.
func (w *MQTTWatcher) Close() {
	w.cli.Disconnect(250)
}
