package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mpalmer/static-builder/internal/config"
	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/internal/logfields"
	"github.com/mpalmer/static-builder/internal/metrics"
	"github.com/mpalmer/static-builder/internal/observability"
	"github.com/mpalmer/static-builder/internal/rebuild"
	"github.com/mpalmer/static-builder/internal/scan"
	"github.com/mpalmer/static-builder/pkg/mediatype"
	"github.com/mpalmer/static-builder/pkg/render"
	"github.com/mpalmer/static-builder/pkg/resource"
	"github.com/mpalmer/static-builder/pkg/routes"
)

const (
	StageScan    = "scan"
	StageCompile = "compile"
)

// Result is the outcome of a successful build.
type Result struct {
	BuildID   string
	Mode      config.Mode
	Table     *routes.Table
	Renderer  *render.Renderer
	Resources int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Handler returns a handler serving the built table. Live entries render
// through the build's renderer.
func (r *Result) Handler(opts ...routes.Option) (*routes.Handler, error) {
	return routes.NewHandler(r.Table, append([]routes.Option{routes.WithRenderer(r.Renderer)}, opts...)...)
}

// Service executes builds.
type Service struct {
	recorder metrics.Recorder
}

// NewService returns a Service that records no metrics.
func NewService() *Service {
	return &Service{recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// Run builds with the default service.
func Run(ctx context.Context, cfg *config.Config, notifier rebuild.Notifier) (*Result, error) {
	return NewService().Run(ctx, cfg, notifier)
}

// Run compiles the site described by cfg in cfg.Mode. Every directory, and
// in frozen mode every file, the result depends on is reported to notifier.
func (s *Service) Run(ctx context.Context, cfg *config.Config, notifier rebuild.Notifier) (*Result, error) {
	start := time.Now()
	if cfg == nil {
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return nil, derrors.ConfigError("config required").Build()
	}
	if notifier == nil {
		notifier = rebuild.Nop{}
	}
	mode := config.NormalizeMode(string(cfg.Mode))
	if mode == "" {
		mode = config.ModeFrozen
	}

	result := &Result{
		BuildID:   uuid.NewString(),
		Mode:      mode,
		Table:     routes.NewTable(),
		Renderer:  render.New(cfg.LayoutsDir()),
		StartTime: start,
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)
	ctx = observability.WithMode(ctx, mode.String())

	fail := func(stage string, err error) (*Result, error) {
		label, outcome := metrics.ResultFatal, metrics.BuildOutcomeFailed
		if ctx.Err() != nil {
			label, outcome = metrics.ResultCanceled, metrics.BuildOutcomeCanceled
		}
		s.recorder.IncStageResult(stage, label)
		s.recorder.IncBuildOutcome(outcome)
		observability.ErrorContext(observability.WithStage(ctx, stage), "Build failed", logfields.Error(err))
		return nil, err
	}

	// Stage 1: discover sources
	stageStart := time.Now()
	sctx := observability.WithStage(ctx, StageScan)
	observability.InfoContext(sctx, "Scanning sources", logfields.Path(cfg.SourceDir()))
	resources, err := scan.Scan(cfg.SourceDir(), notifier, scan.Options{
		NotifyFiles:      mode.IsFrozen(),
		NormalizeUnicode: cfg.Scan.NormalizeUnicode,
	})
	if err != nil {
		return fail(StageScan, err)
	}
	if err := s.notifyLayouts(result.Renderer, cfg, mode, notifier); err != nil {
		return fail(StageScan, err)
	}
	s.recorder.ObserveStageDuration(StageScan, time.Since(stageStart))
	s.recorder.IncStageResult(StageScan, metrics.ResultSuccess)
	observability.DebugContext(sctx, "Scan complete", logfields.Count(len(resources)))

	// Stage 2: classify, alias, render and register
	stageStart = time.Now()
	cctx := observability.WithStage(ctx, StageCompile)
	for _, res := range resources {
		if err := ctx.Err(); err != nil {
			return fail(StageCompile, derrors.BuildError("build canceled").WithCause(err).Build())
		}
		entry, err := s.compile(result.Renderer, res, mode)
		if err != nil {
			return fail(StageCompile, err)
		}
		for _, p := range res.Paths() {
			if err := result.Table.Add(p, entry, res.Source); err != nil {
				return fail(StageCompile, err)
			}
		}
		s.recorder.IncResource(entry.MediaType(), entry.Kind().String())
		observability.DebugContext(cctx, "Compiled resource",
			logfields.Source(res.Source),
			logfields.Logical(res.Path),
			logfields.MediaType(entry.MediaType()))
	}
	s.recorder.ObserveStageDuration(StageCompile, time.Since(stageStart))
	s.recorder.IncStageResult(StageCompile, metrics.ResultSuccess)

	result.Resources = len(resources)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)
	s.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	s.recorder.ObserveBuildDuration(result.Duration)
	observability.InfoContext(ctx, "Build complete",
		logfields.Count(result.Resources),
		slog.Int("routes", result.Table.Len()),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	return result, nil
}

func (s *Service) compile(r *render.Renderer, res resource.Resource, mode config.Mode) (routes.Entry, error) {
	mt, err := mediatype.Classify(res.Source)
	if err != nil {
		return routes.Entry{}, err
	}
	if !mode.IsFrozen() {
		return routes.Live(res.Source, mt), nil
	}
	body, err := r.Render(res.Source)
	if err != nil {
		return routes.Entry{}, err
	}
	return routes.Frozen(body, mt), nil
}

// notifyLayouts reports the layouts directory, and in frozen mode each
// layout file, since rendered output depends on them.
func (s *Service) notifyLayouts(r *render.Renderer, cfg *config.Config, mode config.Mode, notifier rebuild.Notifier) error {
	layouts, err := r.Engine().Layouts()
	if err != nil {
		return err
	}
	if len(layouts) == 0 {
		return nil
	}
	notifier.RebuildIfChanged(cfg.LayoutsDir())
	if mode.IsFrozen() {
		for _, l := range layouts {
			notifier.RebuildIfChanged(l)
		}
	}
	return nil
}
