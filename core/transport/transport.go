package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"grid-harness/core/models"

	"gopkg.in/yaml.v3"
)

// Resolve maps an optional TLS config reference to a transport mode. An empty
// reference means plaintext; anything else selects TLS with the reference
// passed through untouched. Validation of the referenced file happens when
// the transport is built, not here.
func Resolve(ref string) (models.TransportMode, string) {
	if ref == "" {
		return models.TransportPlaintext, ""
	}
	return models.TransportTLS, ref
}

// TLSConfigFile is the YAML shape of the TLS config reference
type TLSConfigFile struct {
	Certificate string `yaml:"certificate"` // PEM certificate path
	PrivateKey  string `yaml:"private_key"` // PEM key path
	CA          string `yaml:"ca"`          // PEM CA bundle path, pinned by clients
}

// Transport builds listeners and HTTP clients for one transport mode, so
// nodes and the harness can swap plaintext for TLS without the job protocol
// changing.
type Transport struct {
	mode      models.TransportMode
	serverTLS *tls.Config
	clientTLS *tls.Config
}

// New builds a transport for the given mode. For TLS the reference must name
// a readable YAML config whose certificate, key and CA load cleanly.
func New(mode models.TransportMode, ref string) (*Transport, error) {
	t := &Transport{mode: mode}
	if mode != models.TransportTLS {
		return t, nil
	}

	raw, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read tls config %s: %w", ref, err)
	}
	var file TLSConfigFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tls config %s: %w", ref, err)
	}

	cert, err := tls.LoadX509KeyPair(file.Certificate, file.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load node certificate: %w", err)
	}

	caPEM, err := os.ReadFile(file.CA)
	if err != nil {
		return nil, fmt.Errorf("failed to read ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("ca bundle %s contains no certificates", file.CA)
	}

	t.serverTLS = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	t.clientTLS = &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
	return t, nil
}

// Mode returns the transport mode
func (t *Transport) Mode() models.TransportMode {
	return t.mode
}

// TLSActive reports whether inter-node traffic is encrypted
func (t *Transport) TLSActive() bool {
	return t.mode == models.TransportTLS
}

// Scheme returns the URL scheme matching the transport mode
func (t *Transport) Scheme() string {
	if t.TLSActive() {
		return "https"
	}
	return "http"
}

// Listen opens a listener on addr, wrapped in TLS when the mode requires it
func (t *Transport) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if t.TLSActive() {
		ln = tls.NewListener(ln, t.serverTLS)
	}
	return ln, nil
}

// ServerTLS returns the server-side TLS config, or nil for plaintext
func (t *Transport) ServerTLS() *tls.Config {
	return t.serverTLS
}

// Client returns an HTTP client that trusts the configured CA in TLS mode
func (t *Transport) Client(timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if t.TLSActive() {
		client.Transport = &http.Transport{TLSClientConfig: t.clientTLS}
	}
	return client
}
