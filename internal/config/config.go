package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Default configuration values
const (
	DefaultSandboxURL        = "https://cloud-api.livekit.io/api/sandbox/connection-details"
	DefaultRoomName          = "test-room"
	DefaultParticipantPrefix = "user"
	DefaultAgentPrefix       = "agent-"
	DefaultTokenServerAddr   = ":8080"
	DefaultTokenTTL          = 15 * time.Minute
	DefaultRequestTimeout    = 20 * time.Second
	DefaultCameraWidth       = 1280
	DefaultCameraHeight      = 720
)

// Config holds application configuration
type Config struct {
	// LiveKitURL is the ws(s) URL of the LiveKit server. Used by the local
	// token issuer and the static token source.
	LiveKitURL string

	// APIKey and APISecret sign tokens locally when no remote token
	// service is configured.
	APIKey    string
	APISecret string

	// Token is a pre-issued participant token, paired with LiveKitURL.
	Token string

	// SandboxID selects a LiveKit Cloud sandbox token server.
	SandboxID  string
	SandboxURL string

	// TokenEndpoint is a self-hosted connection-details endpoint.
	TokenEndpoint string

	RoomName          string
	ParticipantName   string
	ParticipantPrefix string
	AgentPrefix       string

	// Local media published after joining
	CameraFile   string
	MicFile      string
	CameraWidth  int
	CameraHeight int

	TokenServerAddr string
	TokenTTL        time.Duration
	RequestTimeout  time.Duration
}

// Options for loading config with CLI flag overrides
type Options struct {
	ConfigFile string

	LiveKitURL    string
	APIKey        string
	APISecret     string
	Token         string
	SandboxID     string
	TokenEndpoint string

	RoomName          string
	ParticipantName   string
	ParticipantPrefix string
	AgentPrefix       string

	CameraFile string
	MicFile    string

	TokenServerAddr string
	TokenTTL        time.Duration
}

// File is the YAML layout accepted by --config.
type File struct {
	LiveKitURL    string `yaml:"url"`
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	Token         string `yaml:"token"`
	SandboxID     string `yaml:"sandbox_id"`
	SandboxURL    string `yaml:"sandbox_url"`
	TokenEndpoint string `yaml:"token_endpoint"`

	RoomName          string `yaml:"room"`
	ParticipantName   string `yaml:"participant"`
	ParticipantPrefix string `yaml:"participant_prefix"`
	AgentPrefix       string `yaml:"agent_prefix"`

	Camera struct {
		File   string `yaml:"file"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
	} `yaml:"camera"`
	MicFile string `yaml:"mic_file"`

	TokenServer struct {
		Addr string `yaml:"addr"`
		TTL  string `yaml:"ttl"`
	} `yaml:"token_server"`
	RequestTimeout string `yaml:"request_timeout"`
}

// ReadFile parses a YAML config file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Config file (Options.ConfigFile)
// 4. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	f := &File{}
	if opts.ConfigFile != "" {
		var err error
		if f, err = ReadFile(opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		LiveKitURL:    pick(opts.LiveKitURL, "LIVEKIT_URL", f.LiveKitURL, ""),
		APIKey:        pick(opts.APIKey, "LIVEKIT_API_KEY", f.APIKey, ""),
		APISecret:     pick(opts.APISecret, "LIVEKIT_API_SECRET", f.APISecret, ""),
		Token:         pick(opts.Token, "LIVEKIT_TOKEN", f.Token, ""),
		SandboxID:     pick(opts.SandboxID, "SANDBOX_ID", f.SandboxID, ""),
		SandboxURL:    pick("", "SANDBOX_URL", f.SandboxURL, DefaultSandboxURL),
		TokenEndpoint: pick(opts.TokenEndpoint, "TOKEN_ENDPOINT", f.TokenEndpoint, ""),

		RoomName:          pick(opts.RoomName, "ROOM_NAME", f.RoomName, DefaultRoomName),
		ParticipantName:   pick(opts.ParticipantName, "PARTICIPANT_NAME", f.ParticipantName, ""),
		ParticipantPrefix: pick(opts.ParticipantPrefix, "PARTICIPANT_PREFIX", f.ParticipantPrefix, DefaultParticipantPrefix),
		AgentPrefix:       pick(opts.AgentPrefix, "AGENT_PREFIX", f.AgentPrefix, DefaultAgentPrefix),

		CameraFile:   pick(opts.CameraFile, "CAMERA_FILE", f.Camera.File, ""),
		MicFile:      pick(opts.MicFile, "MIC_FILE", f.MicFile, ""),
		CameraWidth:  DefaultCameraWidth,
		CameraHeight: DefaultCameraHeight,

		TokenServerAddr: pick(opts.TokenServerAddr, "TOKEN_SERVER_ADDR", f.TokenServer.Addr, DefaultTokenServerAddr),
	}

	if f.Camera.Width > 0 && f.Camera.Height > 0 {
		cfg.CameraWidth = f.Camera.Width
		cfg.CameraHeight = f.Camera.Height
	}
	if w, h, ok := envDimensions(); ok {
		cfg.CameraWidth, cfg.CameraHeight = w, h
	}

	var err error
	if cfg.TokenTTL, err = pickDuration(opts.TokenTTL, "TOKEN_TTL", f.TokenServer.TTL, DefaultTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = pickDuration(0, "REQUEST_TIMEOUT", f.RequestTimeout, DefaultRequestTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// pick returns the first non-empty of flag, env, file, def.
func pick(flag, env, file, def string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if file != "" {
		return file
	}
	return def
}

func pickDuration(flag time.Duration, env, file string, def time.Duration) (time.Duration, error) {
	if flag > 0 {
		return flag, nil
	}
	raw := os.Getenv(env)
	if raw == "" {
		raw = file
	}
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", env, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", env, raw)
	}
	return d, nil
}

func envDimensions() (int, int, bool) {
	w, errW := strconv.Atoi(os.Getenv("CAMERA_WIDTH"))
	h, errH := strconv.Atoi(os.Getenv("CAMERA_HEIGHT"))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// CanSign reports whether tokens can be issued locally.
func (c *Config) CanSign() bool {
	return c.APIKey != "" && c.APISecret != "" && c.LiveKitURL != ""
}

// HasTokenSource reports whether any credential source is configured.
func (c *Config) HasTokenSource() bool {
	return (c.LiveKitURL != "" && c.Token != "") || c.SandboxID != "" || c.TokenEndpoint != "" || c.CanSign()
}
