package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Stock Sentry Configuration

[monitor]
# Percentage move that fires a price alert
threshold_percent = 2.0
# Minutes between poll cycles
interval_minutes = 5
# Hour of day (0-23) for the daily history sync
history_sync_hour = 22

[cache]
# How long a fetched quote stays fresh
quote_ttl_seconds = 60
# How long a fetched history series stays fresh
history_ttl_seconds = 900

[providers]
yahoo_endpoint = "https://query1.finance.yahoo.com"
# Optional: set to enable the Alpha Vantage fallback provider.
# Also read from the ALPHA_VANTAGE_API_KEY environment variable.
alpha_vantage_key = ""
request_timeout_seconds = 10

[advisor]
# Optional: set (or export OPENAI_API_KEY) to enable the AI advisor.
openai_key = ""
model = "gpt-4o-mini"
max_tokens = 800

[notifications]
# Print alerts to the terminal
terminal = true

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[web]
# Keepalive status server
enabled = true
host = "0.0.0.0"
port = 5000

[logging]
level = "info"
console = true
file = true
`

// writeTemplateConfig creates a commented config.toml so a first run leaves
// something editable behind.
func writeTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
