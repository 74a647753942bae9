package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValerySidorin/mockrobot"
	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
)

func parseArgs[T any](t *testing.T, conf *T, args ...string) {
	t.Helper()

	_, err := flags.NewParser(conf, flags.None).ParseArgs(args)
	require.NoError(t, err)
}

// writeCert writes a self-signed certificate and its key into dir.
func writeCert(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}), 0o600))
	require.NoError(t, os.WriteFile(keyPath,
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0o600))

	return certPath, keyPath
}

func TestServerConfigDefaults(t *testing.T) {
	var c ServerConfig
	parseArgs(t, &c)

	conf, err := c.Parse()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:1000", conf.Addr)
	require.Equal(t, 2*time.Second, conf.Motion.HomeDuration)
	require.Equal(t, 5*time.Second, conf.Motion.MoveDuration)
	require.Empty(t, conf.QUICAddr)
	require.Nil(t, conf.TLS)
	require.False(t, conf.ResetOnAdmit)

	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, "json", c.Log.Format)
}

func TestServerConfigFlags(t *testing.T) {
	var c ServerConfig
	parseArgs(t, &c,
		"--addr", "0.0.0.0:2000",
		"--motion.home-duration", "100ms",
		"--motion.move-duration", "250ms",
		"--reset-on-admit",
		"--log.level", "debug",
		"--log.format", "text",
	)

	conf, err := c.Parse()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:2000", conf.Addr)
	require.Equal(t, 100*time.Millisecond, conf.Motion.HomeDuration)
	require.Equal(t, 250*time.Millisecond, conf.Motion.MoveDuration)
	require.True(t, conf.ResetOnAdmit)

	logConf := c.Log.Parse()
	require.Equal(t, "debug", logConf.Level)
	require.Equal(t, "text", logConf.Format)
}

func TestServerConfigEnv(t *testing.T) {
	t.Setenv("MOCKROBOT_ADDR", "127.0.0.1:3000")
	t.Setenv("MOCKROBOT_MOTION_HOME_DURATION", "1s")
	t.Setenv("MOCKROBOT_MOTION_MOVE_DURATION", "3s")
	t.Setenv("MOCKROBOT_LOG_LEVEL", "warn")

	var c ServerConfig
	parseArgs(t, &c)

	conf, err := c.Parse()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:3000", conf.Addr)
	require.Equal(t, time.Second, conf.Motion.HomeDuration)
	require.Equal(t, 3*time.Second, conf.Motion.MoveDuration)
	require.Equal(t, "warn", c.Log.Parse().Level)
}

func TestServerConfigQUIC(t *testing.T) {
	certPath, keyPath := writeCert(t, t.TempDir())

	var c ServerConfig
	parseArgs(t, &c,
		"--quic-addr", "127.0.0.1:1001",
		"--tls.server-cert-path", certPath,
		"--tls.server-key-path", keyPath,
		"--quic.max-idle-timeout", "30s",
	)

	conf, err := c.Parse()
	require.NoError(t, err)
	require.NotNil(t, conf.TLS)
	require.Len(t, conf.TLS.Certificates, 1)
	require.Equal(t, []string{mockrobot.NextProto}, conf.TLS.NextProtos)
	require.Equal(t, tls.NoClientCert, conf.TLS.ClientAuth)
	require.Equal(t, 30*time.Second, conf.QUIC.MaxIdleTimeout)
}

func TestServerConfigQUICWithoutCert(t *testing.T) {
	var c ServerConfig
	parseArgs(t, &c, "--quic-addr", "127.0.0.1:1001")

	_, err := c.Parse()
	require.Error(t, err)
}

func TestServerConfigMTLS(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeCert(t, dir)

	clientsDir := filepath.Join(dir, "clients")
	require.NoError(t, os.Mkdir(clientsDir, 0o700))
	clientCert, _ := writeCert(t, clientsDir)
	require.FileExists(t, clientCert)

	c := TLSConfig{
		ServerCertPEMPath: certPath,
		ServerKeyPEMPath:  keyPath,
		ClientCertsDir:    clientsDir,
		MTLSEnabled:       true,
	}
	conf, err := c.Parse()
	require.NoError(t, err)
	require.Equal(t, tls.RequireAndVerifyClientCert, conf.ClientAuth)

	c.ClientCertsDir = ""
	_, err = c.Parse()
	require.ErrorContains(t, err, "mtls needs client-certs-dir")

	c.ClientCertsDir = t.TempDir()
	_, err = c.Parse()
	require.ErrorContains(t, err, "no controller CAs")
}

func TestDriverConfigDefaults(t *testing.T) {
	var c DriverConfig
	parseArgs(t, &c)

	conf, err := c.Parse()
	require.NoError(t, err)
	require.Equal(t, mockrobot.TransportTCP, conf.Transport)
	require.Equal(t, 10*time.Millisecond, conf.PollInterval)
	require.Equal(t, 50*time.Millisecond, conf.QueueInterval)
	require.Nil(t, conf.TLS)

	require.Equal(t, "127.0.0.1:8080", c.Listen)
	require.Equal(t, 100*time.Millisecond, c.RefreshInterval)
}

func TestDriverConfigQUIC(t *testing.T) {
	certPath, _ := writeCert(t, t.TempDir())

	var c DriverConfig
	parseArgs(t, &c, "--transport", "quic", "--tls.ca-cert-path", certPath, "--tls.server-name", "robot")

	conf, err := c.Parse()
	require.NoError(t, err)
	require.Equal(t, mockrobot.TransportQUIC, conf.Transport)
	require.NotNil(t, conf.TLS.RootCAs)
	require.Equal(t, "robot", conf.TLS.ServerName)
	require.Equal(t, []string{mockrobot.NextProto}, conf.TLS.NextProtos)

	c.TLS = ClientTLSConfig{}
	_, err = c.Parse()
	require.Error(t, err)

	c.TLS.InsecureSkipVerify = true
	_, err = c.Parse()
	require.NoError(t, err)
}

func TestDriverConfigRejectsUnknownTransport(t *testing.T) {
	var c DriverConfig
	_, err := flags.NewParser(&c, flags.None).ParseArgs([]string{"--transport", "udp"})
	require.Error(t, err)
}
