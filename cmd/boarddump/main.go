// Command boarddump fetches (or reads) the price board, prints every parsed
// (name, price) pair and, given a template, how each name resolves. It is
// meant for chasing upstream naming drift.
package main

import (
    "bufio"
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "io"
    "log"
    "os"
    "sort"
    "time"

    "ratesgen/internal/board"
    "ratesgen/internal/board/chromerender"
    "ratesgen/internal/config"
    "ratesgen/internal/httpx"
    "ratesgen/internal/logging"
    "ratesgen/internal/provider"
    "ratesgen/internal/rates"
    "ratesgen/internal/resolve"
)

type row struct {
    Name     string         `json:"name"`
    Price    int64          `json:"price"`
    Resolved *resolve.Match `json:"resolved,omitempty"`
}

type summary struct {
    Items      int      `json:"items"`
    Resolved   int      `json:"resolved"`
    Unresolved []string `json:"unresolved,omitempty"`
    // Untouched lists template keys no board row landed on.
    Untouched []string `json:"untouched,omitempty"`
}

type options struct {
    cfgPath  string
    htmlFile string
    tmplFile string
    render   bool
    timeout  time.Duration
    verbose  bool
}

func main() {
    var (
        o          options
        timeoutSec int
    )
    flag.StringVar(&o.cfgPath, "config", "", "path to config.json (optional)")
    flag.StringVar(&o.htmlFile, "html", "", "parse a saved page instead of fetching")
    flag.StringVar(&o.tmplFile, "template", "", "template to resolve names against (default: configured template)")
    flag.BoolVar(&o.render, "render", false, "allow the headless browser fallback")
    flag.IntVar(&timeoutSec, "timeout", 60, "overall timeout seconds")
    flag.BoolVar(&o.verbose, "v", false, "log fetch progress to stderr")
    flag.Parse()
    o.timeout = time.Duration(timeoutSec) * time.Second

    if err := run(o, os.Stdout); err != nil {
        log.Fatal(err)
    }
}

// run writes one JSON line per board row and a closing summary line to out.
// Rows already written are flushed even when a later step fails.
func run(o options, out io.Writer) (err error) {
    cfg, err := config.Load(o.cfgPath)
    if err != nil {
        return fmt.Errorf("config: %w", err)
    }
    if o.tmplFile == "" {
        o.tmplFile = cfg.Output.TemplateFile
    }

    quotes, err := loadQuotes(cfg, o.htmlFile, o.render, o.verbose, o.timeout)
    if err != nil {
        return fmt.Errorf("board: %w", err)
    }

    var res *resolve.Resolver
    var set *rates.Set
    if b, rerr := os.ReadFile(o.tmplFile); rerr == nil {
        p, derr := rates.Decode(b)
        if derr != nil {
            return fmt.Errorf("template: %w", derr)
        }
        set = p.Rates
        res = resolve.New(set)
    } else {
        log.Printf("template %s not readable (%v); printing raw pairs only", o.tmplFile, rerr)
    }

    bw := bufio.NewWriter(out)
    defer func() {
        if ferr := bw.Flush(); err == nil && ferr != nil {
            err = fmt.Errorf("flush: %w", ferr)
        }
    }()
    enc := json.NewEncoder(bw)
    enc.SetEscapeHTML(false)

    sum := summary{Items: len(quotes)}
    hit := map[string]bool{}
    for _, q := range quotes {
        r := row{Name: q.Name, Price: q.Price}
        if res != nil {
            if m, ok := res.Board(q.Name); ok {
                r.Resolved = &m
                hit[m.Key] = true
                sum.Resolved++
            } else {
                sum.Unresolved = append(sum.Unresolved, q.Name)
            }
        }
        if err := enc.Encode(r); err != nil {
            return fmt.Errorf("write: %w", err)
        }
    }
    if set != nil {
        set.Each(func(key string, rec *rates.Record) {
            if hit[key] || rec.Kind == rates.KindCrypto {
                return
            }
            sum.Untouched = append(sum.Untouched, key)
        })
        sort.Strings(sum.Untouched)
    }
    if err := enc.Encode(struct {
        Summary summary `json:"summary"`
    }{sum}); err != nil {
        return fmt.Errorf("write: %w", err)
    }
    return nil
}

func loadQuotes(cfg config.Config, htmlFile string, render, verbose bool, timeout time.Duration) ([]provider.PriceQuote, error) {
    if htmlFile != "" {
        b, err := os.ReadFile(htmlFile)
        if err != nil {
            return nil, fmt.Errorf("read html: %w", err)
        }
        return board.Parse(string(b))
    }

    logger := logging.Discard()
    if verbose {
        l, err := logging.New("debug", "text")
        if err != nil {
            return nil, err
        }
        logger = l
    }
    var r board.Renderer
    if render {
        r = chromerender.New(chromerender.Options{ExecPath: cfg.Render.ExecPath})
    }
    f := board.New(board.Config{
        URL:                cfg.Board.URL,
        MinItems:           cfg.Board.MinItems,
        RenderWaitSelector: cfg.Render.WaitSelector,
        RenderTimeout:      time.Duration(cfg.Render.WaitSec) * time.Second,
    }, httpx.New(time.Duration(cfg.Board.TimeoutSec)*time.Second), r, logger)

    ctx, cancel := context.WithTimeout(context.Background(), timeout)
    defer cancel()
    return f.FetchPrices(ctx)
}
