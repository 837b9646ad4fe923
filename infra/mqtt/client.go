package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/voltonic/campusgrid/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled      bool            `json:"enabled" koanf:"enabled"`
	Broker       string          `json:"broker" koanf:"broker"`
	ClientID     string          `json:"client_id" koanf:"client_id"`
	Username     string          `json:"username" koanf:"username"`
	Password     string          `json:"password" koanf:"password"`
	GridTopic    string          `json:"grid_topic" koanf:"grid_topic"`
	ControlTopic string          `json:"control_topic" koanf:"control_topic"`
	ResultTopic  string          `json:"result_topic" koanf:"result_topic"`
	UseTLS       bool            `json:"use_tls" koanf:"use_tls"`
	ClientCert   string          `json:"client_cert" koanf:"client_cert"`
	ClientKey    string          `json:"client_key" koanf:"client_key"`
	CABundle     string          `json:"ca_bundle" koanf:"ca_bundle"`
	AuthMethod   string          `json:"auth_method" koanf:"auth_method"`
	QoS          map[string]byte `json:"qos" koanf:"qos"`
	TLSConfig    *tls.Config     `json:"-" koanf:"-"`
}

// SetDefaults fills topic names and the client id when unset.
func (c *Config) SetDefaults() {
	if c.GridTopic == "" {
		c.GridTopic = "campus/grid/status"
	}
	if c.ControlTopic == "" {
		c.ControlTopic = "campus/rooms/power"
	}
	if c.ResultTopic == "" {
		c.ResultTopic = "campus/commands/result"
	}
	if c.ClientID == "" {
		c.ClientID = "campusgrid-" + uuid.NewString()[:8]
	}
}

// CommandSink receives validated external commands. The engine applies them
// at the next tick boundary.
type CommandSink interface {
	SetGridStatus(available bool, reason string) error
	ManualPowerControl(roomID, action string, value *float64) error
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// TriggerSource subscribes to the external trigger topics and forwards grid
// changes and manual overrides to the engine. Rejections are published on
// the result topic.
type TriggerSource struct {
	cli          pahoClient
	sink         CommandSink
	gridTopic    string
	controlTopic string
	resultTopic  string
	qos          map[string]byte
	logger       logger.Logger
}

// NewTriggerSource connects to the broker and subscribes to both trigger
// topics.
func NewTriggerSource(cfg Config, sink CommandSink) (*TriggerSource, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_trigger")
	ts := &TriggerSource{
		sink:         sink,
		gridTopic:    cfg.GridTopic,
		controlTopic: cfg.ControlTopic,
		resultTopic:  cfg.ResultTopic,
		qos:          cfg.QoS,
		logger:       log,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(ts.gridTopic, ts.qosFor("grid"), ts.onGridStatus); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", ts.gridTopic, token.Error())
		}
		if token := c.Subscribe(ts.controlTopic, ts.qosFor("control"), ts.onPowerControl); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", ts.controlTopic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	ts.cli = c
	return ts, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (t *TriggerSource) qosFor(key string) byte {
	if q, ok := t.qos[key]; ok {
		return q
	}
	return 0
}

type gridStatusMessage struct {
	RequestID string `json:"request_id"`
	Available *bool  `json:"available"`
	Reason    string `json:"reason"`
}

type powerControlMessage struct {
	RequestID string   `json:"request_id"`
	RoomID    string   `json:"room_id"`
	Action    string   `json:"action"`
	Value     *float64 `json:"value"`
}

type commandResult struct {
	RequestID string `json:"request_id"`
	Accepted  bool   `json:"accepted"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (t *TriggerSource) onGridStatus(_ paho.Client, msg paho.Message) {
	var m gridStatusMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		t.logger.Errorf("decode grid status: %v", err)
		t.publishResult("", fmt.Errorf("malformed payload"))
		return
	}
	if m.Available == nil {
		t.publishResult(m.RequestID, fmt.Errorf("available is required"))
		return
	}
	err := t.sink.SetGridStatus(*m.Available, m.Reason)
	if err != nil {
		t.logger.Warnf("grid status rejected: %v", err)
	}
	t.publishResult(m.RequestID, err)
}

func (t *TriggerSource) onPowerControl(_ paho.Client, msg paho.Message) {
	var m powerControlMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		t.logger.Errorf("decode power control: %v", err)
		t.publishResult("", fmt.Errorf("malformed payload"))
		return
	}
	err := t.sink.ManualPowerControl(m.RoomID, m.Action, m.Value)
	if err != nil {
		t.logger.Warnf("power control rejected: %v", err)
	}
	t.publishResult(m.RequestID, err)
}

func (t *TriggerSource) publishResult(requestID string, cmdErr error) {
	res := commandResult{
		RequestID: requestID,
		Accepted:  cmdErr == nil,
		Timestamp: time.Now().UnixMilli(),
	}
	if cmdErr != nil {
		res.Error = cmdErr.Error()
	}
	payload, err := json.Marshal(res)
	if err != nil {
		t.logger.Errorf("encode result: %v", err)
		return
	}
	token := t.cli.Publish(t.resultTopic, t.qosFor("result"), false, payload)
	token.Wait()
	if token.Error() != nil {
		t.logger.Errorf("publish result: %v", token.Error())
	}
}

// Disconnect gracefully closes the MQTT connection.
func (t *TriggerSource) Disconnect() {
	if t.cli != nil && t.cli.IsConnected() {
		t.cli.Disconnect(250)
	}
}
