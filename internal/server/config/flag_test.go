package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-w", ":8080", "-b", "postgres", "-d", "db",
				"-m", "mongodb://m", "-n", "authdb", "-s", "secret", "-t", "24",
				"-k", "12", "-i", "Acme", "-l", "zerolog",
			},
			expected: &Config{
				EndpointAddrGRPC:            "127.0.0.1:9090",
				EndpointAddrHTTP:            ":8080",
				Storage:                     "postgres",
				DatabaseDSN:                 "db",
				MongoURI:                    "mongodb://m",
				MongoDatabase:               "authdb",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 24 * time.Hour,
				BcryptCost:                  12,
				TwoFactorIssuer:             "Acme",
				LogFormat:                   "zerolog",
			},
		},
		{
			name: "config flag is ignored here",
			args: []string{"-c", "cfg.json", "-s", "only-secret"},
			expected: &Config{
				SecretKey:                   "only-secret",
				AccessTokenValidityDuration: 90 * time.Minute,
			},
		},
		{
			name:    "bad int",
			args:    []string{"-k", "many"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{AccessTokenValidityDuration: 90 * time.Minute}

			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
