package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileTemplate = `# chatcheck configuration. Every key can be overridden with a
# CHATCHECK_<KEY> environment variable (nested keys use "_", e.g.
# CHATCHECK_TIMEOUTS_REPLY=20s).

email: "you@example.com"
password: "change-me"

# The page whose chatbot is under test.
page_url: "https://www.facebook.com/YourPage"
login_url: "https://www.facebook.com"

cases_file: "test_data.json"
# cases_sheet: "Sheet1"  # .xlsx only; defaults to the first sheet

# Cookies from the last successful login. Keep it out of version control.
storage_state: "state.json"

headless: true
typing: instant  # instant | human | fast

timeouts:
  reply: 15s
  login: 30s
  cookie: 5s
  navigate: 30s
  action: 15s

log:
  level: info
  format: text
`

// WriteTemplate writes a starter config file. It refuses to overwrite an
// existing file unless force is set. The file is created 0600 as it holds
// credentials.
func WriteTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(fileTemplate), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Show prints the effective configuration as YAML with secrets masked.
func Show(w io.Writer, c *RuntimeConfig) error {
	m := c.Masked()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&m); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
