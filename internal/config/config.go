package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvPrefix   = "CHATCHECK"
	DefaultPath = "chatcheck.yaml"
)

// ErrNotFound is returned by Load when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

type Selectors struct {
	Email         string `mapstructure:"email" yaml:"email" validate:"required"`
	Password      string `mapstructure:"password" yaml:"password" validate:"required"`
	LoginButton   string `mapstructure:"login_button" yaml:"login_button" validate:"required"`
	LoggedIn      string `mapstructure:"logged_in" yaml:"logged_in" validate:"required"`
	CookieBanner  string `mapstructure:"cookie_banner" yaml:"cookie_banner"`
	MessageButton string `mapstructure:"message_button" yaml:"message_button" validate:"required"`
	ChatInput     string `mapstructure:"chat_input" yaml:"chat_input" validate:"required"`
	BotReply      string `mapstructure:"bot_reply" yaml:"bot_reply" validate:"required"`
}

type Timeouts struct {
	Reply    time.Duration `mapstructure:"reply" yaml:"reply" validate:"gt=0"`
	Login    time.Duration `mapstructure:"login" yaml:"login" validate:"gt=0"`
	Cookie   time.Duration `mapstructure:"cookie" yaml:"cookie" validate:"gt=0"`
	Navigate time.Duration `mapstructure:"navigate" yaml:"navigate" validate:"gt=0"`
	Action   time.Duration `mapstructure:"action" yaml:"action" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

type RuntimeConfig struct {
	Email    string `mapstructure:"email" yaml:"email" validate:"required"`
	Password string `mapstructure:"password" yaml:"password" validate:"required"`
	LoginURL string `mapstructure:"login_url" yaml:"login_url" validate:"required,url"`
	PageURL  string `mapstructure:"page_url" yaml:"page_url" validate:"required,url"`

	CasesFile    string `mapstructure:"cases_file" yaml:"cases_file" validate:"required"`
	CasesSheet   string `mapstructure:"cases_sheet" yaml:"cases_sheet,omitempty"`
	StorageState string `mapstructure:"storage_state" yaml:"storage_state,omitempty"`

	Headless         bool   `mapstructure:"headless" yaml:"headless"`
	CdpURL           string `mapstructure:"cdp_url" yaml:"cdp_url,omitempty"`
	ChromeBinary     string `mapstructure:"chrome_binary" yaml:"chrome_binary,omitempty"`
	ChromeExtraFlags string `mapstructure:"chrome_flags" yaml:"chrome_flags,omitempty"`
	ProfileDir       string `mapstructure:"profile_dir" yaml:"profile_dir,omitempty"`
	UserAgent        string `mapstructure:"user_agent" yaml:"user_agent,omitempty"`
	ChromeVersion    string `mapstructure:"chrome_version" yaml:"chrome_version,omitempty"`
	TypingMode       string `mapstructure:"typing" yaml:"typing" validate:"oneof=instant human fast"`

	Timeouts  Timeouts  `mapstructure:"timeouts" yaml:"timeouts"`
	Selectors Selectors `mapstructure:"selectors" yaml:"selectors"`
	Log       LogConfig `mapstructure:"log" yaml:"log"`

	// Path is the file the config was read from.
	Path string `mapstructure:"-" yaml:"-"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Email:         "input[name='email']",
		Password:      "input[name='pass']",
		LoginButton:   "button[name='login']",
		LoggedIn:      "a[aria-label='Home']",
		CookieBanner:  "div[aria-label='Allow all cookies']",
		MessageButton: "div[aria-label='Message']",
		ChatInput:     "div[aria-label='Message'][contenteditable='true']",
		BotReply:      "div[role='row']:last-of-type:not(:has(div[data-testid='outgoing_message'])) div[data-ad-preview='message']",
	}
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Reply:    15 * time.Second,
		Login:    30 * time.Second,
		Cookie:   5 * time.Second,
		Navigate: 30 * time.Second,
		Action:   15 * time.Second,
	}
}

// Default returns a config with every optional field populated. Credentials
// and the page URL are left empty.
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		LoginURL:      "https://www.facebook.com",
		CasesFile:     "test_data.json",
		StorageState:  "state.json",
		Headless:      true,
		ChromeVersion: "144.0.7559.133",
		TypingMode:    "instant",
		Timeouts:      DefaultTimeouts(),
		Selectors:     DefaultSelectors(),
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// ResolvePath picks the config file path: explicit flag, then
// CHATCHECK_CONFIG, then chatcheck.yaml in the working directory.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(EnvPrefix + "_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("email", "")
	v.SetDefault("password", "")
	v.SetDefault("login_url", d.LoginURL)
	v.SetDefault("page_url", "")
	v.SetDefault("cases_file", d.CasesFile)
	v.SetDefault("cases_sheet", "")
	v.SetDefault("storage_state", d.StorageState)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("cdp_url", "")
	v.SetDefault("chrome_binary", "")
	v.SetDefault("chrome_flags", "")
	v.SetDefault("profile_dir", "")
	v.SetDefault("user_agent", "")
	v.SetDefault("chrome_version", d.ChromeVersion)
	v.SetDefault("typing", d.TypingMode)

	v.SetDefault("timeouts.reply", d.Timeouts.Reply)
	v.SetDefault("timeouts.login", d.Timeouts.Login)
	v.SetDefault("timeouts.cookie", d.Timeouts.Cookie)
	v.SetDefault("timeouts.navigate", d.Timeouts.Navigate)
	v.SetDefault("timeouts.action", d.Timeouts.Action)

	v.SetDefault("selectors.email", d.Selectors.Email)
	v.SetDefault("selectors.password", d.Selectors.Password)
	v.SetDefault("selectors.login_button", d.Selectors.LoginButton)
	v.SetDefault("selectors.logged_in", d.Selectors.LoggedIn)
	v.SetDefault("selectors.cookie_banner", d.Selectors.CookieBanner)
	v.SetDefault("selectors.message_button", d.Selectors.MessageButton)
	v.SetDefault("selectors.chat_input", d.Selectors.ChatInput)
	v.SetDefault("selectors.bot_reply", d.Selectors.BotReply)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the config file at path and overlays CHATCHECK_* environment
// variables. Relative file paths inside the config resolve against the
// config file's directory.
// Priority: env > file > defaults.
func Load(path string) (*RuntimeConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (create one with `chatcheck config init`)", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &RuntimeConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.Path = path
	cfg.resolvePaths(filepath.Dir(path))

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *RuntimeConfig) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.CasesFile = abs(c.CasesFile)
	c.StorageState = abs(c.StorageState)
	c.ProfileDir = abs(c.ProfileDir)
}

var validate = validator.New()

// Validate checks required fields and value ranges and reports every
// failing field in one error.
func Validate(c *RuntimeConfig) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fieldName(fe.Namespace()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldName strips the root struct name from a validator namespace.
func fieldName(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// Masked returns a copy safe to print.
func (c *RuntimeConfig) Masked() RuntimeConfig {
	out := *c
	out.Password = MaskSecret(c.Password)
	return out
}

func MaskSecret(t string) string {
	if t == "" {
		return "(none)"
	}
	if len(t) <= 8 {
		return "***"
	}
	return t[:2] + "..." + t[len(t)-2:]
}
