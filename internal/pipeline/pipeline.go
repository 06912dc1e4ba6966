// Package pipeline runs one generation: load the template, fetch both
// sources, reconcile, validate and publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ratesgen/internal/logging"
	"ratesgen/internal/provider"
	"ratesgen/internal/publish"
	"ratesgen/internal/rates"
	"ratesgen/internal/reconcile"
	"ratesgen/internal/resolve"
	"ratesgen/internal/validate"
)

var (
	// ErrTemplateMissing means the template file does not exist. Nothing was
	// fetched.
	ErrTemplateMissing = errors.New("template file not found")
	// ErrValidation wraps a validate error; the previous artifact is kept.
	ErrValidation = errors.New("validation failed")
)

type Options struct {
	TemplateFile string
	OutputFile   string
	MinRates     int
	USDQuotedKey string
	// Source is written to the payload's source field.
	Source string
	// DryRun skips the publish step.
	DryRun bool
}

// Result describes a finished run.
type Result struct {
	RunID       string          `json:"run_id"`
	FetchedAtMs int64           `json:"fetched_at_ms"`
	Rates       int             `json:"rates"`
	Board       reconcile.Stats `json:"board"`
	Crypto      reconcile.Stats `json:"crypto"`
	Recomputed  bool            `json:"recomputed"`
	Bytes       int             `json:"bytes"`
	Published   bool            `json:"published"`
}

type Pipeline struct {
	opts   Options
	board  provider.PriceProvider
	crypto provider.USDProvider
	log    logrus.FieldLogger

	now   func() time.Time
	write func(path string, data []byte) error
}

// New wires a pipeline. Either source may be nil; a nil source contributes
// nothing and the template keeps its previous values.
func New(opts Options, board provider.PriceProvider, crypto provider.USDProvider, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	if opts.USDQuotedKey == "" {
		opts.USDQuotedKey = reconcile.DefaultUSDQuotedKey
	}
	return &Pipeline{
		opts:   opts,
		board:  board,
		crypto: crypto,
		log:    log,
		now:    time.Now,
		write:  publish.WriteFile,
	}
}

// Run performs one generation. Source failures are logged and degrade to
// "keep previous values"; only a missing or unreadable template, a failed
// validation or a failed write is returned as an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := p.log.WithField("run_id", res.RunID)

	data, err := os.ReadFile(p.opts.TemplateFile)
	if errors.Is(err, os.ErrNotExist) {
		return res, fmt.Errorf("%w: %s", ErrTemplateMissing, p.opts.TemplateFile)
	}
	if err != nil {
		return res, fmt.Errorf("read template: %w", err)
	}
	payload, err := rates.Decode(data)
	if err != nil {
		return res, fmt.Errorf("load template %s: %w", p.opts.TemplateFile, err)
	}
	log.WithField("rates", payload.Rates.Len()).Info("template loaded")

	boardQuotes, cryptoQuotes := p.fetch(ctx, log)

	resolver := resolve.New(payload.Rates)
	if len(boardQuotes) > 0 {
		res.Board = reconcile.ApplyBoard(payload, resolver, boardQuotes, log.WithField("source", p.board.Name()))
	} else {
		log.Warn("board: no data collected; keeping previous prices")
	}
	if len(cryptoQuotes) > 0 {
		res.Crypto = reconcile.ApplyCrypto(payload, resolver, cryptoQuotes, log.WithField("source", p.crypto.Name()))
	} else {
		log.Warn("crypto: no data collected; keeping previous crypto values")
	}
	res.Recomputed = reconcile.RecomputeUSD(payload, p.opts.USDQuotedKey, log)

	now := p.now()
	payload.FetchedAtMs = now.UnixMilli()
	payload.Source = p.opts.Source
	res.FetchedAtMs = payload.FetchedAtMs
	res.Rates = payload.Rates.Len()

	if err := validate.Validate(payload, p.opts.MinRates); err != nil {
		return res, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	out, err := rates.Encode(payload)
	if err != nil {
		return res, fmt.Errorf("encode: %w", err)
	}
	res.Bytes = len(out)

	if p.opts.DryRun {
		log.Info("dry run; not publishing")
		return res, nil
	}
	if err := p.write(p.opts.OutputFile, out); err != nil {
		return res, fmt.Errorf("publish: %w", err)
	}
	res.Published = true

	log.WithFields(logrus.Fields{
		"output":      p.opts.OutputFile,
		"rates":       res.Rates,
		"fetchedAtMs": res.FetchedAtMs,
		"tehran":      logging.TehranStamp(now),
	}).Info("artifact written")
	return res, nil
}

// fetch queries both sources concurrently. Errors never cancel the sibling
// fetch: each source degrades to an empty yield on its own.
func (p *Pipeline) fetch(ctx context.Context, log logrus.FieldLogger) ([]provider.PriceQuote, []provider.USDQuote) {
	var (
		g            errgroup.Group
		boardQuotes  []provider.PriceQuote
		cryptoQuotes []provider.USDQuote
	)
	if p.board != nil {
		g.Go(func() error {
			qs, err := p.board.FetchPrices(ctx)
			if err != nil {
				log.WithField("source", p.board.Name()).WithError(err).Warn("board fetch failed")
				return nil
			}
			boardQuotes = qs
			return nil
		})
	}
	if p.crypto != nil {
		g.Go(func() error {
			qs, err := p.crypto.FetchUSD(ctx)
			if err != nil {
				log.WithField("source", p.crypto.Name()).WithError(err).Warn("crypto fetch failed")
				return nil
			}
			cryptoQuotes = qs
			return nil
		})
	}
	_ = g.Wait()
	log.WithFields(logrus.Fields{"board": len(boardQuotes), "crypto": len(cryptoQuotes)}).Info("sources fetched")
	return boardQuotes, cryptoQuotes
}
