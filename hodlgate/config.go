package hodlgate

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log     LogConfig     `toml:"log"`
	Bot     BotConfig     `toml:"bot"`
	Web     WebConfig     `toml:"web"`
	Chain   ChainConfig   `toml:"chain"`
	Session SessionConfig `toml:"session"`
}

// Duration decodes TOML strings like "30s" or "24h". time.Duration has no
// text unmarshaller, so toml values cannot target it directly.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// BotConfig configures the bot process. Snowflake ids are plain toml
// integers.
type BotConfig struct {
	Token          string         `toml:"token"`
	DevGuilds      []snowflake.ID `toml:"dev_guilds"`
	GuildID        snowflake.ID   `toml:"guild_id"`
	VerifiedRoleID snowflake.ID   `toml:"verified_role_id"`
	EliteRoleID    snowflake.ID   `toml:"elite_role_id"`
	BackendURL     string         `toml:"backend_url"`
	APIKey         string         `toml:"api_key"`
	PollInterval   Duration       `toml:"poll_interval"`
}

type WebConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	PublicURL      string `toml:"public_url"`
	APIKey         string `toml:"api_key"`
	AllowedOrigins string `toml:"allowed_origins"`
}

type ChainConfig struct {
	RPCURL          string   `toml:"rpc_url"`
	NFTContract     string   `toml:"nft_contract"`
	StakingContract string   `toml:"staking_contract"`
	QueryTimeout    Duration `toml:"query_timeout"`
	CacheTTL        Duration `toml:"cache_ttl"`
}

type SessionConfig struct {
	Timeout       Duration `toml:"timeout"`
	SweepInterval Duration `toml:"sweep_interval"`
}

func (c *Config) applyDefaults() {
	if c.Bot.PollInterval <= 0 {
		c.Bot.PollInterval = Duration(15 * time.Second)
	}
	if c.Chain.QueryTimeout <= 0 {
		c.Chain.QueryTimeout = Duration(12 * time.Second)
	}
	if c.Session.Timeout <= 0 {
		c.Session.Timeout = Duration(24 * time.Hour)
	}
	if c.Session.SweepInterval <= 0 {
		c.Session.SweepInterval = Duration(time.Hour)
	}
	if c.Web.Host == "" {
		c.Web.Host = "0.0.0.0"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 3001
	}
}
