package mqtt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/dayplan/core/monitoring"
	coremqtt "github.com/kilianp07/dayplan/core/mqtt"
)

const broker = "tcp://localhost:1883"

// writeSelfSigned writes a self-signed certificate, its key and a CA bundle
// holding the same certificate.
func writeSelfSigned(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "dayplan-test"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "client.pem")
	keyFile = filepath.Join(dir, "client.key")
	caFile = filepath.Join(dir, "ca.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o600))
	return certFile, keyFile, caFile
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := writeSelfSigned(t)
	tlsCfg, err := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.NotNil(t, tlsCfg.RootCAs)

	_, err = Config{UseTLS: true, ClientCert: cert}.LoadTLSConfig()
	assert.Error(t, err)

	_, err = Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: filepath.Join(t.TempDir(), "none.pem")}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestLoadTLSConfig_Variants(t *testing.T) {
	cert, key, ca := writeSelfSigned(t)
	junk := filepath.Join(t.TempDir(), "junk.pem")
	require.NoError(t, os.WriteFile(junk, []byte("not a certificate"), 0o600))

	caOnly, err := Config{UseTLS: true, CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Empty(t, caOnly.Certificates)
	assert.NotNil(t, caOnly.RootCAs)

	certOnly, err := Config{UseTLS: true, ClientCert: cert, ClientKey: key}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, certOnly.Certificates, 1)
	assert.Nil(t, certOnly.RootCAs)

	_, err = Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)
	_, err = Config{UseTLS: true, CABundle: junk}.LoadTLSConfig()
	assert.ErrorContains(t, err, "no PEM certificate")
	_, err = Config{UseTLS: true, CABundle: ca, AuthMethod: AuthCertificate}.LoadTLSConfig()
	assert.ErrorContains(t, err, "needs client_cert")
}

func TestNewClientOptions_Auth(t *testing.T) {
	cases := []struct {
		method   string
		wantUser string
	}{
		{method: "", wantUser: "u"},
		{method: "username_password", wantUser: "u"},
		{method: "both", wantUser: "u"},
		{method: AuthCertificate, wantUser: ""},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			opts, err := NewClientOptions(Config{Broker: broker, ClientID: "id", Username: "u", Password: "p", AuthMethod: tc.method})
			require.NoError(t, err)
			assert.Equal(t, tc.wantUser, opts.Username)
			assert.True(t, opts.AutoReconnect)
		})
	}
}

func TestNewPahoClient_PublishesWithQoSAndRetain(t *testing.T) {
	fake := &fakePaho{}
	useFake(t, fake)
	cli, err := NewPahoClient(Config{Broker: broker, QoS: 1, Retain: true})
	require.NoError(t, err)

	topic := "dayplan/u/2025-03-01/committed"
	require.NoError(t, cli.Publish(topic, []byte(`{"user":"u"}`)))
	sent := fake.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, topic, sent[0].topic)
	assert.Equal(t, byte(1), sent[0].qos)
	assert.True(t, sent[0].retained)
	assert.JSONEq(t, `{"user":"u"}`, string(sent[0].payload))
	assert.Equal(t, "dayplan", fake.opts.ClientID)
}

func TestNewPahoClient_LastWill(t *testing.T) {
	fake := &fakePaho{}
	useFake(t, fake)
	cli, err := NewPahoClient(Config{Broker: broker, LWTTopic: "dayplan/status", LWTPayload: "offline", LWTQoS: 1, LWTRetain: true})
	require.NoError(t, err)
	assert.True(t, fake.opts.WillEnabled)
	assert.Equal(t, "dayplan/status", fake.opts.WillTopic)
	assert.Equal(t, "offline", string(fake.opts.WillPayload))
	assert.True(t, fake.opts.WillRetained)

	cli.Disconnect()
	assert.Equal(t, 1, fake.disconnects)
	assert.Empty(t, fake.messages())
}

func TestNewPahoClient_ConnectError(t *testing.T) {
	useFake(t, &fakePaho{connectErr: errors.New("refused")})
	_, err := NewPahoClient(Config{Broker: broker})
	assert.EqualError(t, err, "refused")
}

func TestNewPahoClient_ConnectTimeout(t *testing.T) {
	useFake(t, &fakePaho{connectHang: true})
	_, err := NewPahoClient(Config{Broker: broker, ConnectTimeout: time.Millisecond})
	assert.ErrorContains(t, err, "timed out")
}

func TestPublish_RetriesThenSucceeds(t *testing.T) {
	fake := &fakePaho{publishErrs: []error{errors.New("net fail"), nil}}
	useFake(t, fake)
	cli, err := NewPahoClient(Config{Broker: broker, MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)
	require.NoError(t, cli.Publish("t", []byte("x")))
	assert.Len(t, fake.messages(), 2)
}

type captureMonitor struct {
	coremon.NopMonitor
	err  error
	tags map[string]string
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.err = err
	c.tags = tags
}

func TestPublish_ExhaustedRetriesAreCaptured(t *testing.T) {
	fail := errors.New("net fail")
	fake := &fakePaho{publishErrs: []error{fail, fail}}
	useFake(t, fake)
	mon := &captureMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	cli, err := NewPahoClient(Config{Broker: broker, MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	topic := "dayplan/u1/2025-03-01/rejected"
	err = cli.Publish(topic, []byte("{}"))
	require.ErrorIs(t, err, fail)
	assert.Len(t, fake.messages(), 2)
	require.ErrorIs(t, mon.err, fail)
	assert.Equal(t, map[string]string{"module": "mqtt", "topic": topic}, mon.tags)
}

func TestPublish_NotConnected(t *testing.T) {
	var cli PahoClient
	assert.ErrorIs(t, cli.Publish("t", nil), coremqtt.ErrNotConnected)
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, "dayplan", cfg.ClientID)
	assert.Equal(t, "dayplan", cfg.TopicPrefix)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100, cfg.BackoffMS)
	assert.Equal(t, 30*time.Second, cfg.KeepAlive)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)

	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "disabled", cfg: Config{}},
		{name: "missing broker", cfg: Config{Enabled: true}, wantErr: true},
		{name: "bad qos", cfg: Config{Enabled: true, Broker: broker, QoS: 3}, wantErr: true},
		{name: "bad will qos", cfg: Config{Enabled: true, Broker: broker, LWTQoS: 5}, wantErr: true},
		{name: "unknown auth", cfg: Config{Enabled: true, Broker: broker, AuthMethod: "token"}, wantErr: true},
		{name: "certificate without tls", cfg: Config{Enabled: true, Broker: broker, AuthMethod: AuthCertificate}, wantErr: true},
		{name: "ok", cfg: Config{Enabled: true, Broker: broker, QoS: 2}},
		{name: "certificate over tls", cfg: Config{Enabled: true, Broker: broker, AuthMethod: AuthCertificate, UseTLS: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
