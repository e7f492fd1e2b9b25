// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so admins can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Try []interface{} to handle mixed types
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	DataDir    string              `json:"data_dir" env:"LINGBOT_DATA_DIR"`
	CatalogDir string              `json:"catalog_dir" env:"LINGBOT_CATALOG_DIR"`
	LogLevel   string              `json:"log_level" env:"LINGBOT_LOG_LEVEL"`
	Admins     FlexibleStringSlice `json:"admins" env:"LINGBOT_ADMINS"`
	Whitelist  WhitelistConfig     `json:"whitelist"`
	Channels   ChannelsConfig      `json:"channels"`
	Providers  ProvidersConfig     `json:"providers"`
	Lingqian   LingqianConfig      `json:"lingqian"`
	Jieqian    JieqianConfig       `json:"jieqian"`
	Fortune    FortuneConfig       `json:"fortune"`
	Janitor    JanitorConfig       `json:"janitor"`
	mu         sync.RWMutex
}

type WhitelistConfig struct {
	GroupWhitelist bool                `json:"group_whitelist" env:"LINGBOT_WHITELIST_GROUP_WHITELIST"`
	Groups         FlexibleStringSlice `json:"groups" env:"LINGBOT_WHITELIST_GROUPS"`
}

type ChannelsConfig struct {
	OneBot   OneBotConfig   `json:"onebot"`
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	Terminal TerminalConfig `json:"terminal"`
}

type OneBotConfig struct {
	Enabled            bool                `json:"enabled" env:"LINGBOT_CHANNELS_ONEBOT_ENABLED"`
	Debug              bool                `json:"debug" env:"LINGBOT_CHANNELS_ONEBOT_DEBUG"`
	WSUrl              string              `json:"ws_url" env:"LINGBOT_CHANNELS_ONEBOT_WS_URL"`
	AccessToken        string              `json:"access_token" env:"LINGBOT_CHANNELS_ONEBOT_ACCESS_TOKEN"`
	ReconnectInterval  int                 `json:"reconnect_interval" env:"LINGBOT_CHANNELS_ONEBOT_RECONNECT_INTERVAL"`
	GroupTriggerPrefix []string            `json:"group_trigger_prefix" env:"LINGBOT_CHANNELS_ONEBOT_GROUP_TRIGGER_PREFIX"`
	AllowGroups        FlexibleStringSlice `json:"allow_groups" env:"LINGBOT_CHANNELS_ONEBOT_ALLOW_GROUPS"`
	AllowFrom          FlexibleStringSlice `json:"allow_from" env:"LINGBOT_CHANNELS_ONEBOT_ALLOW_FROM"`
}

type TelegramConfig struct {
	Enabled   bool                `json:"enabled" env:"LINGBOT_CHANNELS_TELEGRAM_ENABLED"`
	Token     string              `json:"token" env:"LINGBOT_CHANNELS_TELEGRAM_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"LINGBOT_CHANNELS_TELEGRAM_ALLOW_FROM"`
}

type DiscordConfig struct {
	Enabled   bool                `json:"enabled" env:"LINGBOT_CHANNELS_DISCORD_ENABLED"`
	Token     string              `json:"token" env:"LINGBOT_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"LINGBOT_CHANNELS_DISCORD_ALLOW_FROM"`
}

type TerminalConfig struct {
	Enabled bool   `json:"enabled" env:"LINGBOT_CHANNELS_TERMINAL_ENABLED"`
	UserID  string `json:"user_id" env:"LINGBOT_CHANNELS_TERMINAL_USER_ID"`
}

type ProvidersConfig struct {
	Default   string           `json:"default" env:"LINGBOT_PROVIDERS_DEFAULT"`
	Endpoints []ProviderConfig `json:"endpoints"`
}

type ProviderConfig struct {
	ID      string `json:"id"`
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base"`
	Model   string `json:"model"`
	Proxy   string `json:"proxy,omitempty"`
}

type LingqianConfig struct {
	PicsDir         string `json:"pics_dir" env:"LINGBOT_LINGQIAN_PICS_DIR"`
	PicsVersion     string `json:"pics_version" env:"LINGBOT_LINGQIAN_PICS_VERSION"`
	DisplayCount    int    `json:"display_count" env:"LINGBOT_LINGQIAN_DISPLAY_COUNT"`
	DrawTemplate    string `json:"draw_template"`
	QueryTemplate   string `json:"query_template"`
	DrawTipTemplate string `json:"drawtip_template"`
	JrrpTipTemplate string `json:"jrrptip_template"`
	RanksTemplate   string `json:"ranks_template"`
	RanksContent    string `json:"ranks_content"`
	HistoryTemplate string `json:"history_template"`
	HistoryContent  string `json:"history_content"`
}

type JieqianConfig struct {
	ProviderID      string          `json:"provider_id" env:"LINGBOT_JIEQIAN_PROVIDER_ID"`
	Persona         string          `json:"persona" env:"LINGBOT_JIEQIAN_PERSONA"`
	Personas        []PersonaConfig `json:"personas"`
	StylePrompt     string          `json:"style_prompt"`
	TimeoutSeconds  int             `json:"timeout_seconds" env:"LINGBOT_JIEQIAN_TIMEOUT_SECONDS"`
	DisplayCount    int             `json:"display_count" env:"LINGBOT_JIEQIAN_DISPLAY_COUNT"`
	Template        string          `json:"template"`
	BeginTemplate   string          `json:"begin_template"`
	IngTemplate     string          `json:"ing_template"`
	TipTemplate     string          `json:"tip_template"`
	RanksTemplate   string          `json:"ranks_template"`
	RanksContent    string          `json:"ranks_content"`
	HistoryTemplate string          `json:"history_template"`
	HistoryContent  string          `json:"history_content"`
}

// PersonaConfig is the normalized persona shape: a name and the prompt
// text injected as a system message.
type PersonaConfig struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

type FortuneConfig struct {
	Required    bool   `json:"required" env:"LINGBOT_FORTUNE_REQUIRED"`
	Ratefix     bool   `json:"ratefix" env:"LINGBOT_FORTUNE_RATEFIX"`
	HistoryPath string `json:"history_path" env:"LINGBOT_FORTUNE_HISTORY_PATH"`
	Ranges      string `json:"ranges" env:"LINGBOT_FORTUNE_RANGES"`
	ShangRate   string `json:"shang_rate" env:"LINGBOT_FORTUNE_SHANG_RATE"`
	ZhongRate   string `json:"zhong_rate" env:"LINGBOT_FORTUNE_ZHONG_RATE"`
}

type JanitorConfig struct {
	Enabled       bool   `json:"enabled" env:"LINGBOT_JANITOR_ENABLED"`
	Cron          string `json:"cron" env:"LINGBOT_JANITOR_CRON"`
	RetentionDays int    `json:"retention_days" env:"LINGBOT_JANITOR_RETENTION_DAYS"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:    "~/.lingbot/data",
		CatalogDir: "~/.lingbot/lingqian",
		LogLevel:   "info",
		Admins:     FlexibleStringSlice{},
		Whitelist: WhitelistConfig{
			GroupWhitelist: false,
			Groups:         FlexibleStringSlice{},
		},
		Channels: ChannelsConfig{
			OneBot: OneBotConfig{
				Enabled:            false,
				WSUrl:              "ws://127.0.0.1:3001",
				AccessToken:        "",
				ReconnectInterval:  5,
				GroupTriggerPrefix: []string{},
				AllowGroups:        FlexibleStringSlice{},
				AllowFrom:          FlexibleStringSlice{},
			},
			Telegram: TelegramConfig{
				Enabled:   false,
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
			Discord: DiscordConfig{
				Enabled:   false,
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
			Terminal: TerminalConfig{
				Enabled: false,
				UserID:  "local",
			},
		},
		Providers: ProvidersConfig{
			Default:   "",
			Endpoints: []ProviderConfig{},
		},
		Lingqian: LingqianConfig{
			PicsDir:         "~/.lingbot/pics",
			PicsVersion:     "100_default",
			DisplayCount:    10,
			DrawTemplate:    "-----「{card}」今日灵签-----\n{lqpic}第 {qianxu} 签 {qianming}\n吉凶: {jixiong}\n宫位: {gongwei}",
			QueryTemplate:   "-----「{card}」今日灵签-----\n{lqpic}第 {qianxu} 签 {qianming}\n吉凶: {jixiong}\n宫位: {gongwei}",
			DrawTipTemplate: "「{card}」今日还未抽取灵签",
			JrrpTipTemplate: "「{card}」今日还未检测人品运势",
			RanksTemplate:   "📊【本群今日灵签榜】{date}\n━━━━━━━━━━━━━━━\n{lingqian_ranks}",
			RanksContent:    "{card} 第{qianxu}签{qianming}({jixiong})\n---",
			HistoryTemplate: "📚 {card} 的灵签历史记录\n[显示 {lqhi_display}/{lqhi_total}]\n{lingqian_history_content}\n\n📊 统计信息:\n抽取灵签总数{lqhi_total}\n上签: {lqhi_shang_total}\n中签: {lqhi_zhong_total}\n下签: {lqhi_xia_total}",
			HistoryContent:  "{date} 第{qianxu}签{qianming}({jixiong})\n---",
		},
		Jieqian: JieqianConfig{
			ProviderID:      "",
			Persona:         "",
			Personas:        []PersonaConfig{},
			StylePrompt:     "",
			TimeoutSeconds:  120,
			DisplayCount:    10,
			Template:        "-----「{card}」解签-----\n第 {qianxu} 签 {qianming}\n吉凶: {jixiong}\n宫位: {gongwei}\n---\n问: {content}\n---\n解:\n{jieqian}",
			BeginTemplate:   "命运的丝线汇聚, {card}, 你的困惑即将解开, 正在窥视中...",
			IngTemplate:     "已经在努力为「 {card} 」解签了哦~",
			TipTemplate:     "「{card}」今日还未解签",
			RanksTemplate:   "📊【本群今日解签榜】{date}\n━━━━━━━━━━━━━━━\n{jieqian_ranks}",
			RanksContent:    "{card} 今日解签{jieqian_count}\n---",
			HistoryTemplate: "📚 {card} 的解签历史记录\n[显示 {jqhi_display}/{jqhi_total}]\n{jieqian_history_content}\n\n📊 统计信息:\n解签总数: {jqhi_total}\n最大日解签数: {jqhi_max}\n平均日解签数: {jqhi_avg}\n最小日解签数: {jqhi_min}",
			HistoryContent:  "{date} 解签数{jieqian_count}\n---",
		},
		Fortune: FortuneConfig{
			Required:    false,
			Ratefix:     false,
			HistoryPath: "",
			Ranges:      "0-10,11-20,21-30,31-40,41-50,51-60,61-70,71-80,81-90,91-100",
			ShangRate:   "-20, -10, -5, -1, 0, 1, 3, 5, 10, 10",
			ZhongRate:   "-1, -3, -5, -10, 0, 1, 5, 10, 20, 20",
		},
		Janitor: JanitorConfig{
			Enabled:       false,
			Cron:          "0 4 * * *",
			RetentionDays: 90,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) DataPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.DataDir)
}

func (c *Config) CatalogPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.CatalogDir)
}

func (c *Config) PicsPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filepath.Join(expandHome(c.Lingqian.PicsDir), c.Lingqian.PicsVersion)
}

// Provider returns the endpoint with the given id, or false.
func (c *Config) Provider(id string) (ProviderConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.Providers.Endpoints {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// PersonaPrompt resolves a persona name to its prompt text; an empty
// name or an unknown persona yields "".
func (c *Config) PersonaPrompt(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name == "" {
		return ""
	}
	for _, p := range c.Jieqian.Personas {
		if p.Name == name {
			return p.Prompt
		}
	}
	return ""
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
