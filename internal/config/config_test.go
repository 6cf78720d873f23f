package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	tmpDir := t.TempDir()
	if content == "" {
		return filepath.Join(tmpDir, "nonexistent.yaml")
	}

	configFile := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(content), 0600)
	require.NoError(t, err)
	return configFile
}

func TestLoadEthereumEmitterConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *EthereumEmitterConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
  max_reconnects: 5
  reconnect_wait: "5s"
  connection_name: "test-connection"
ethereum:
  websocket_url: "ws://localhost:8545"
  chain_id: "eip155:1"
  contract_address: "0x41A322b28D0fF354040e2CbC676F0320d8c8850d"
  start_block: 5000000
  log_batch_size: 2000
cursor:
  save_frequency: 50
  save_delay: "1m"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *EthereumEmitterConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.Equal(t, "testpass", cfg.Database.Password)
				assert.Equal(t, "testdb", cfg.Database.DBName)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
				assert.Equal(t, "ws://localhost:8545", cfg.Ethereum.WebSocketURL)
				assert.Equal(t, "eip155:1", string(cfg.Ethereum.ChainID))
				assert.Equal(t, "0x41A322b28D0fF354040e2CbC676F0320d8c8850d", cfg.Ethereum.ContractAddress)
				assert.Equal(t, uint64(5000000), cfg.Ethereum.StartBlock)
				assert.Equal(t, uint64(2000), cfg.Ethereum.LogBatchSize)
				assert.Equal(t, uint64(50), cfg.Cursor.SaveFrequency)
				assert.Equal(t, time.Minute, cfg.Cursor.SaveDelay)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
nats:
  url: "nats://localhost:4222"
ethereum:
  websocket_url: "ws://localhost:8545"
  contract_address: "0x41A322b28D0fF354040e2CbC676F0320d8c8850d"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *EthereumEmitterConfig) {
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, "2s", cfg.NATS.ReconnectWait.String())
				assert.Equal(t, "MARKETPLACE_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, "eip155:1", string(cfg.Ethereum.ChainID))
				assert.Equal(t, uint64(10000), cfg.Ethereum.LogBatchSize)
				assert.Equal(t, 8, cfg.Ethereum.PrefetchConcurrency)
				assert.Equal(t, 12*time.Second, cfg.Ethereum.BlockHeadTTL)
				assert.Equal(t, uint64(10), cfg.Cursor.SaveFrequency)
				assert.Equal(t, 30*time.Second, cfg.Cursor.SaveDelay)
			},
		},
		{
			name: "missing contract address",
			configFile: `
ethereum:
  websocket_url: "ws://localhost:8545"
`,
			expectError: true,
		},
		{
			name: "unsupported chain",
			configFile: `
ethereum:
  chain_id: "tezos:mainnet"
  contract_address: "0x41A322b28D0fF354040e2CbC676F0320d8c8850d"
`,
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadEthereumEmitterConfig(writeConfigFile(t, tt.configFile), "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadEventBridgeConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *EventBridgeConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: db
  dbname: marketplace
nats:
  url: "nats://localhost:4222"
  consumer_name: "bridge-1"
  ack_wait: "45s"
  max_deliver: 20
ethereum:
  rpc_url: "https://mainnet.infura.io/v3/key"
  chain_id: "eip155:11155111"
uri:
  ipfs_gateways:
    - "https://gateway.pinata.cloud"
    - "https://ipfs.io"
  http_timeout: "10s"
  max_body_size: 1048576
`,
			validate: func(t *testing.T, cfg *EventBridgeConfig) {
				assert.Equal(t, "db", cfg.Database.Host)
				assert.Equal(t, "bridge-1", cfg.NATS.ConsumerName)
				assert.Equal(t, 45*time.Second, cfg.NATS.AckWait)
				assert.Equal(t, 20, cfg.NATS.MaxDeliver)
				assert.Equal(t, "https://mainnet.infura.io/v3/key", cfg.Ethereum.RPCURL)
				assert.Equal(t, "eip155:11155111", string(cfg.Ethereum.ChainID))
				assert.Equal(t, []string{"https://gateway.pinata.cloud", "https://ipfs.io"}, cfg.URI.IPFSGateways)
				assert.Equal(t, 10*time.Second, cfg.URI.HTTPTimeout)
				assert.Equal(t, int64(1<<20), cfg.URI.MaxBodySize)
			},
		},
		{
			name: "config with defaults",
			configFile: `
ethereum:
  rpc_url: "https://mainnet.infura.io/v3/key"
`,
			validate: func(t *testing.T, cfg *EventBridgeConfig) {
				assert.Equal(t, "marketplace-event-bridge", cfg.NATS.ConsumerName)
				assert.Equal(t, 2*time.Minute, cfg.NATS.AckWait)
				assert.Equal(t, -1, cfg.NATS.MaxDeliver)
				assert.Equal(t, "MARKETPLACE_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, []string{"https://ipfs.io"}, cfg.URI.IPFSGateways)
				assert.Equal(t, 30*time.Second, cfg.URI.HTTPTimeout)
				assert.Equal(t, int64(10<<20), cfg.URI.MaxBodySize)
				assert.Equal(t, "eip155:1", string(cfg.Ethereum.ChainID))
			},
		},
		{
			name:       "missing config file uses defaults",
			configFile: "",
			validate: func(t *testing.T, cfg *EventBridgeConfig) {
				assert.Equal(t, 5432, cfg.Database.Port)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadEventBridgeConfig(writeConfigFile(t, tt.configFile), "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "p@ssw0rd!",
				DBName:   "testdb",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=testuser password=p@ssw0rd! dbname=testdb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	err := os.MkdirAll(envDir, 0750)
	require.NoError(t, err)

	// godotenv.Overload writes into the process environment, so undo it for later tests
	envVars := map[string]string{
		"FF_MARKETPLACE_DEBUG":                     "true",
		"FF_MARKETPLACE_DATABASE_HOST":             "env-host",
		"FF_MARKETPLACE_DATABASE_PORT":             "6543",
		"FF_MARKETPLACE_ETHEREUM_CONTRACT_ADDRESS": "0x41A322b28D0fF354040e2CbC676F0320d8c8850d",
	}
	envContent := ""
	for key, value := range envVars {
		envContent += key + "=" + value + "\n"
		key := key
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
	err = os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600)
	require.NoError(t, err)

	configPath := writeConfigFile(t, `
debug: false
database:
  host: file-host
  port: 5432
ethereum:
  contract_address: "0x0000000000000000000000000000000000000001"
`)

	cfg, err := LoadEthereumEmitterConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Environment variables override config file values
	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "0x41A322b28D0fF354040e2CbC676F0320d8c8850d", cfg.Ethereum.ContractAddress)
}
