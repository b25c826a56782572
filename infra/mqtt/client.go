package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/kilianp07/dayplan/core/monitoring"
	coremqtt "github.com/kilianp07/dayplan/core/mqtt"
	"github.com/kilianp07/dayplan/infra/logger"
)

// Auth methods accepted in Config.AuthMethod. An empty method behaves like
// AuthPassword.
const (
	AuthPassword    = "username_password"
	AuthCertificate = "certificate"
	AuthBoth        = "both"
)

// Config holds the broker connection used to publish schedule notifications.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	AuthMethod  string `json:"auth_method"`

	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	// CABundle alone enables server verification without a client
	// certificate.
	CABundle  string      `json:"ca_bundle"`
	TLSConfig *tls.Config `json:"-"`

	QoS        byte   `json:"qos"`
	Retain     bool   `json:"retain"`
	LWTTopic   string `json:"lwt_topic"`
	LWTPayload string `json:"lwt_payload"`
	LWTQoS     byte   `json:"lwt_qos"`
	LWTRetain  bool   `json:"lwt_retain"`

	KeepAlive      time.Duration `json:"keep_alive"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	MaxRetries     int           `json:"max_retries"`
	BackoffMS      int           `json:"backoff_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dayplan"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "dayplan"
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 30 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields of an enabled client.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.QoS > 2 || c.LWTQoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	switch c.AuthMethod {
	case "", AuthPassword, AuthCertificate, AuthBoth:
	default:
		return fmt.Errorf("mqtt auth_method %q is not one of %s, %s, %s", c.AuthMethod, AuthPassword, AuthCertificate, AuthBoth)
	}
	if c.usesCertificate() && !c.UseTLS {
		return fmt.Errorf("mqtt auth_method %s requires use_tls", c.AuthMethod)
	}
	return nil
}

func (c Config) usesPassword() bool {
	return c.AuthMethod == "" || c.AuthMethod == AuthPassword || c.AuthMethod == AuthBoth
}

func (c Config) usesCertificate() bool {
	return c.AuthMethod == AuthCertificate || c.AuthMethod == AuthBoth
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoClient publishes payloads through Eclipse Paho with bounded retries.
type PahoClient struct {
	cli        pahoClient
	qos        byte
	retain     bool
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var _ coremqtt.Publisher = (*PahoClient)(nil)

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker, waiting at most
// cfg.ConnectTimeout for the handshake.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	opts.OnConnect = func(paho.Client) {
		log.Infof("connected to %s as %s", cfg.Broker, cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warnf("lost connection to %s: %v", cfg.Broker, err)
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Infof("reconnecting to %s", cfg.Broker)
	}

	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return &PahoClient{
		cli:        c,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}, nil
}

// NewClientOptions maps cfg onto paho options. Credentials are set only for
// password-based auth methods.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.usesPassword() {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("mqtt tls: %w", err)
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig builds the client TLS settings. A preset TLSConfig wins.
// Otherwise ClientCert and ClientKey must be given together, CABundle must
// hold at least one PEM certificate, and at least one of the two is
// required.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if (c.ClientCert == "") != (c.ClientKey == "") {
		return nil, fmt.Errorf("client_cert and client_key must be set together")
	}
	if c.ClientCert == "" && c.CABundle == "" {
		return nil, fmt.Errorf("use_tls needs a ca_bundle or a client certificate")
	}
	if c.usesCertificate() && c.ClientCert == "" {
		return nil, fmt.Errorf("auth_method %s needs client_cert and client_key", c.AuthMethod)
	}

	out := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.ClientCert != "" {
		pair, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		out.Certificates = []tls.Certificate{pair}
	}
	if c.CABundle != "" {
		pem, err := os.ReadFile(c.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca bundle %s holds no PEM certificate", c.CABundle)
		}
		out.RootCAs = pool
	}
	return out, nil
}

// Publish sends payload to topic, retrying with exponential backoff. The
// final failure is reported to the monitoring backend.
func (p *PahoClient) Publish(topic string, payload []byte) error {
	if p.cli == nil {
		return coremqtt.ErrNotConnected
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Warnf("publish to %s failed (attempt %d/%d): %v", topic, attempt+1, p.maxRetries+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	coremon.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Disconnect lets in-flight publishes drain for up to 250ms, then closes the
// connection. It is a no-op on a client that never connected.
func (p *PahoClient) Disconnect() {
	if p.cli == nil || !p.cli.IsConnected() {
		return
	}
	p.cli.Disconnect(250)
}
