package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClusterSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    ClusterSpec
		wantErr bool
	}{
		{
			name: "valid plaintext",
			spec: ClusterSpec{Nodes: 4, Transport: TransportPlaintext},
		},
		{
			name: "valid tls",
			spec: ClusterSpec{Nodes: 4, Transport: TransportTLS, TLSConfigRef: "conf/tls.yaml"},
		},
		{
			name:    "zero nodes",
			spec:    ClusterSpec{Nodes: 0, Transport: TransportPlaintext},
			wantErr: true,
		},
		{
			name:    "tls without config reference",
			spec:    ClusterSpec{Nodes: 4, Transport: TransportTLS},
			wantErr: true,
		},
		{
			name:    "plaintext with stray config reference",
			spec:    ClusterSpec{Nodes: 4, Transport: TransportPlaintext, TLSConfigRef: "conf/tls.yaml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClusterSpecKey(t *testing.T) {
	a := ClusterSpec{Nodes: 4, Transport: TransportPlaintext}
	b := ClusterSpec{Nodes: 4, Transport: TransportPlaintext}
	c := ClusterSpec{Nodes: 4, Transport: TransportTLS, TLSConfigRef: "conf/tls.yaml"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusSucceeded.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusStopped.Terminal())
}
