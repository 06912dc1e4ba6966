package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "os"
    "time"

    "github.com/sirupsen/logrus"

    "ratesgen/internal/board"
    "ratesgen/internal/board/chromerender"
    "ratesgen/internal/config"
    "ratesgen/internal/cryptofeed"
    "ratesgen/internal/httpx"
    "ratesgen/internal/logging"
    "ratesgen/internal/pipeline"
)

// Exit codes.
const (
    exitOK              = 0
    exitFatal           = 1
    exitTemplateMissing = 2
    exitValidation      = 3
)

func main() {
    os.Exit(run())
}

func run() int {
    var configPath, templateFile, outputFile string
    var minRates int
    var noRender, dryRun bool

    flag.StringVar(&configPath, "config", "", "path to config.json (optional; CONFIG_FILE)")
    flag.StringVar(&templateFile, "template", "", "template JSON file (overrides TEMPLATE_FILE)")
    flag.StringVar(&outputFile, "out", "", "output file (overrides OUTPUT_FILE)")
    flag.IntVar(&minRates, "min-rates", 0, "minimum record count to publish (overrides MIN_RATES)")
    flag.BoolVar(&noRender, "no-render", false, "disable the headless browser fallback")
    flag.BoolVar(&dryRun, "dry-run", false, "run everything but do not write the output")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil {
        fmt.Fprintf(os.Stderr, "config: %v\n", err)
        return exitFatal
    }
    if templateFile != "" { cfg.Output.TemplateFile = templateFile }
    if outputFile != "" { cfg.Output.OutputFile = outputFile }
    if minRates > 0 { cfg.Output.MinRates = minRates }
    if noRender { cfg.Render.Enabled = false }

    log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
    if err != nil {
        fmt.Fprintf(os.Stderr, "logging: %v\n", err)
        return exitFatal
    }

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RunTimeoutSec)*time.Second)
    defer cancel()

    bf := newBoardFetcher(cfg, log)
    feed, err := cryptofeed.NewClient(
        cryptofeed.WithURL(cfg.Crypto.URL),
        cryptofeed.WithHTTPClient(httpx.New(time.Duration(cfg.Crypto.TimeoutSec)*time.Second).HTTP),
    )
    if err != nil {
        log.WithError(err).Error("crypto client")
        return exitFatal
    }

    p := pipeline.New(pipeline.Options{
        TemplateFile: cfg.Output.TemplateFile,
        OutputFile:   cfg.Output.OutputFile,
        MinRates:     cfg.Output.MinRates,
        USDQuotedKey: cfg.Output.USDQuotedKey,
        Source:       cfg.Board.URL + " + " + cfg.Crypto.URL,
        DryRun:       dryRun,
    }, bf, feed, log)

    res, err := p.Run(ctx)
    switch {
    case err == nil:
        return exitOK
    case errors.Is(err, pipeline.ErrTemplateMissing):
        log.WithError(err).Error("commit a baseline template (with metadata and aliases) first")
        return exitTemplateMissing
    case errors.Is(err, pipeline.ErrValidation):
        log.WithError(err).WithField("rates", res.Rates).Error("refusing to publish")
        return exitValidation
    default:
        log.WithError(err).Error("run failed")
        return exitFatal
    }
}

func newBoardFetcher(cfg config.Config, log *logrus.Logger) *board.Fetcher {
    ua := cfg.Board.UserAgent
    if ua == "" { ua = httpx.BrowserUserAgent }

    var render board.Renderer
    if cfg.Render.Enabled {
        render = chromerender.New(chromerender.Options{ExecPath: cfg.Render.ExecPath})
    }
    return board.New(board.Config{
        URL:      cfg.Board.URL,
        MinItems: cfg.Board.MinItems,
        Headers: map[string]string{
            "User-Agent":      ua,
            "Accept-Language": "en-US,en;q=0.9,fa;q=0.8",
        },
        RenderWaitSelector: cfg.Render.WaitSelector,
        RenderTimeout:      time.Duration(cfg.Render.WaitSec) * time.Second,
    }, httpx.New(time.Duration(cfg.Board.TimeoutSec)*time.Second), render, log)
}
