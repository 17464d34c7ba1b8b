// Package batch renders one secrets header per device listed in a manifest.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ks89/esp32-configurator/internal/output"
	"github.com/ks89/esp32-configurator/internal/renderer"
	"github.com/ks89/esp32-configurator/internal/secrets"
	"github.com/ks89/esp32-configurator/internal/secrets/source"
)

// Options configure Run.
type Options struct {
	// Concurrency bounds parallel renders; <= 0 means runtime.NumCPU().
	Concurrency int
	Logger      *zap.Logger
	// Open resolves a source spec; defaults to source.Open with the logger.
	Open func(spec string) (source.Source, error)
}

// Result is the outcome for one device.
type Result struct {
	Model    string
	Path     string
	Checksum string
	SSL      bool
	Err      error
}

// Report holds one Result per manifest device, in manifest order.
type Report struct {
	Results []Result
}

// Failed returns the results that carry an error.
func (r Report) Failed() []Result {
	return lo.Filter(r.Results, func(res Result, _ int) bool { return res.Err != nil })
}

// Run loads every distinct source once, then renders and writes each device's header
// in parallel. A failing device does not stop the others; the returned error combines
// every failure.
func Run(ctx context.Context, m *Manifest, opts Options) (Report, error) {
	if err := m.Validate(); err != nil {
		return Report{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("batch")
	open := opts.Open
	if open == nil {
		open = func(spec string) (source.Source, error) {
			return source.Open(spec, source.Options{Logger: logger})
		}
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	records, loadErrs := loadSources(ctx, m, open, limit, logger)

	var parseOpts []secrets.Option
	parseOpts = append(parseOpts, secrets.WithLogger(logger))
	if m.RequireMQTTPort {
		parseOpts = append(parseOpts, secrets.RequireMQTTPort())
	}

	results := make([]Result, len(m.Devices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, d := range m.Devices {
		i, d := i, d
		g.Go(func() error {
			res := Result{Model: d.Model}
			spec := m.SourceFor(d)
			if err, failed := loadErrs[spec]; failed {
				res.Err = err
			} else if err := gctx.Err(); err != nil {
				res.Err = err
			} else {
				res = renderDevice(records[spec], d, parseOpts)
			}
			if res.Err != nil {
				logger.Error("Device render failed", zap.String("model", d.Model), zap.Error(res.Err))
			} else {
				logger.Info("Device header written",
					zap.String("model", d.Model),
					zap.String("path", res.Path),
					zap.Bool("ssl", res.SSL),
				)
			}
			results[i] = res
			// failures are collected per device, the group is never cancelled by them
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Results: results}
	var errs []error
	for _, res := range report.Failed() {
		errs = append(errs, fmt.Errorf("device %s: %w", res.Model, res.Err))
	}
	return report, multierr.Combine(errs...)
}

func loadSources(ctx context.Context, m *Manifest, open func(string) (source.Source, error), limit int, logger *zap.Logger) (map[string]secrets.Record, map[string]error) {
	specs := lo.Uniq(lo.Map(m.Devices, func(d Device, _ int) string { return m.SourceFor(d) }))

	var mu sync.Mutex
	records := make(map[string]secrets.Record, len(specs))
	errs := make(map[string]error)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			rec, err := func() (secrets.Record, error) {
				src, err := open(spec)
				if err != nil {
					return nil, err
				}
				logger.Debug("Loading secrets", zap.String("source", src.String()))
				return src.Load(ctx)
			}()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[spec] = err
				return nil
			}
			records[spec] = rec
			return nil
		})
	}
	_ = g.Wait()
	return records, errs
}

func renderDevice(rec secrets.Record, d Device, opts []secrets.Option) Result {
	res := Result{Model: d.Model}
	values, err := secrets.Parse(rec, secrets.BuildContext{ModelName: d.Model}, opts...)
	if err != nil {
		res.Err = err
		return res
	}
	h, err := renderer.RenderHeader(values)
	if err != nil {
		res.Err = err
		return res
	}
	path, err := output.WriteFile(d.Destination, d.FileName, h)
	if err != nil {
		res.Err = err
		return res
	}
	res.Path = path
	res.Checksum = h.Checksum()
	res.SSL = values.SSL()
	return res
}
