package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/joho/godotenv"
)

type Board struct {
    URL        string `json:"url" validate:"required,url"`
    MinItems   int    `json:"min_items" validate:"gte=1"`
    TimeoutSec int    `json:"timeout_sec" validate:"gte=1"`
    UserAgent  string `json:"user_agent"`
}

// Render configures the headless browser fallback for the board.
type Render struct {
    Enabled      bool   `json:"enabled"`
    WaitSelector string `json:"wait_selector" validate:"required_if=Enabled true"`
    WaitSec      int    `json:"wait_sec" validate:"gte=1"`
    ExecPath     string `json:"exec_path"`
}

type Crypto struct {
    URL        string `json:"url" validate:"required,url"`
    TimeoutSec int    `json:"timeout_sec" validate:"gte=1"`
}

type Output struct {
    TemplateFile string `json:"template_file" validate:"required"`
    OutputFile   string `json:"output_file" validate:"required"`
    MinRates     int    `json:"min_rates" validate:"gte=1"`
    // USDQuotedKey names the commodity whose usdPrice is derived from its
    // local price after all sources are applied.
    USDQuotedKey string `json:"usd_quoted_key"`
}

type Log struct {
    Level  string `json:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
    Format string `json:"format" validate:"oneof=text json"`
}

type Server struct {
    Port              string `json:"port" validate:"required,numeric"`
    RequestTimeoutSec int    `json:"request_timeout_sec" validate:"gte=1"`
    // MaxAgeSec is the artifact age after which /healthz reports stale.
    MaxAgeSec int `json:"max_age_sec" validate:"gte=0"`
}

type Config struct {
    Board  Board  `json:"board"`
    Render Render `json:"render"`
    Crypto Crypto `json:"crypto"`
    Output Output `json:"output"`
    Log    Log    `json:"log"`
    Server Server `json:"server"`
    // RunTimeoutSec bounds one whole batch run.
    RunTimeoutSec int `json:"run_timeout_sec" validate:"gte=1"`
}

func Default() Config {
    return Config{
        Board: Board{
            URL:        "https://bonbast.com/",
            MinItems:   15,
            TimeoutSec: 20,
        },
        Render: Render{
            Enabled:      true,
            WaitSelector: "table",
            WaitSec:      12,
        },
        Crypto: Crypto{
            URL: "https://raw.githubusercontent.com/michaelvincentsebastian/" +
                "Automated-Crypto-Market-Insights/refs/heads/main/latest-data/latest_data.csv",
            TimeoutSec: 25,
        },
        Output: Output{
            TemplateFile: "rates_v2_latest",
            OutputFile:   "rates_v2_latest",
            MinRates:     80,
            USDQuotedKey: "gold_ounce",
        },
        Log:           Log{Level: "info", Format: "text"},
        Server:        Server{Port: "8080", RequestTimeoutSec: 10, MaxAgeSec: 3600},
        RunTimeoutSec: 120,
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. A .env file in the working directory is loaded first;
// real environment variables win over it, and both override the file.
func Load(path string) (Config, error) {
    _ = godotenv.Load() // optional
    cfg := Default()
    if path == "" {
        path = os.Getenv("CONFIG_FILE")
    }
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    if err := Validate(cfg); err != nil {
        return cfg, err
    }
    return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once.
func Validate(cfg Config) error {
    err := validate.Struct(cfg)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return fmt.Errorf("validate config: %w", err)
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
    }
    return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("BOARD_URL"); v != "" { cfg.Board.URL = v }
    if v := os.Getenv("BOARD_MIN_ITEMS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Board.MinItems = x }
    }
    if v := os.Getenv("BOARD_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Board.TimeoutSec = x }
    }
    if v := os.Getenv("BOARD_USER_AGENT"); v != "" { cfg.Board.UserAgent = v }

    if v := os.Getenv("RENDER_FALLBACK"); v != "" {
        if b, ok := parseBool(v); ok { cfg.Render.Enabled = b }
    }
    if v := os.Getenv("RENDER_WAIT_SELECTOR"); v != "" { cfg.Render.WaitSelector = v }
    if v := os.Getenv("RENDER_WAIT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Render.WaitSec = x }
    }
    if v := os.Getenv("CHROME_PATH"); v != "" { cfg.Render.ExecPath = v }

    if v := os.Getenv("CRYPTO_CSV_URL"); v != "" { cfg.Crypto.URL = v }
    if v := os.Getenv("CRYPTO_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Crypto.TimeoutSec = x }
    }

    if v := os.Getenv("TEMPLATE_FILE"); v != "" { cfg.Output.TemplateFile = v }
    if v := os.Getenv("OUTPUT_FILE"); v != "" { cfg.Output.OutputFile = v }
    if v := os.Getenv("MIN_RATES"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Output.MinRates = x }
    }
    if v, ok := os.LookupEnv("USD_QUOTED_KEY"); ok { cfg.Output.USDQuotedKey = strings.TrimSpace(v) }

    if v := os.Getenv("LOG_LEVEL"); v != "" { cfg.Log.Level = strings.ToLower(v) }
    if v := os.Getenv("LOG_FORMAT"); v != "" { cfg.Log.Format = strings.ToLower(v) }

    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("MAX_AGE_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Server.MaxAgeSec = x }
    }
    if v := os.Getenv("RUN_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.RunTimeoutSec = x }
    }
}

func parseBool(v string) (bool, bool) {
    switch strings.ToLower(strings.TrimSpace(v)) {
    case "1", "true", "yes", "y", "on":
        return true, true
    case "0", "false", "no", "n", "off":
        return false, true
    }
    return false, false
}
