package faq

import (
	"context"
	"errors"
	"iter"

	"github.com/google/uuid"

	"github.com/valpere/FAQScrapexter/internal/dom"
	"github.com/valpere/FAQScrapexter/internal/utils"
	"github.com/valpere/FAQScrapexter/pkg/types"
)

// PipelineConfig wires the pipeline's collaborators. Nil fields get defaults.
type PipelineConfig struct {
	Resolver *Resolver
	Waiter   dom.Waiter
	Logger   utils.Logger
	Recorder Recorder
}

// Pipeline turns the question controls of a document into records.
type Pipeline struct {
	resolver *Resolver
	waiter   dom.Waiter
	logger   utils.Logger
	recorder Recorder
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	p := &Pipeline{
		resolver: cfg.Resolver,
		waiter:   cfg.Waiter,
		logger:   cfg.Logger,
		recorder: cfg.Recorder,
	}
	if p.resolver == nil {
		p.resolver, _ = NewResolver()
	}
	if p.waiter == nil {
		p.waiter = dom.NewPollingWaiter(dom.DefaultPollInterval)
	}
	if p.logger == nil {
		p.logger = utils.NewNopLogger()
	}
	if p.recorder == nil {
		p.recorder = nopRecorder{}
	}
	return p
}

// Run collects every record of Records. A context deadline or cancellation
// ends the run with the records gathered so far and a nil error.
func (p *Pipeline) Run(ctx context.Context, doc dom.Document, opts Options) ([]types.Record, error) {
	records := []types.Record{}
	for rec, err := range p.Records(ctx, doc, opts) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Records lazily yields one record per accepted control in document order.
// Each call is an independent run with its own DedupTracker, so the sequence
// can be re-invoked against a fresh document state. A non-nil error is yielded
// at most once, as the last element, when the document itself fails.
func (p *Pipeline) Records(ctx context.Context, doc dom.Document, opts Options) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		r := p.newRun(doc, opts)
		if err := r.execute(ctx, yield); err != nil && ctx.Err() == nil {
			yield(types.Record{}, err)
		}
	}
}

type run struct {
	*Pipeline
	doc     dom.Document
	opts    Options
	base    string
	logger  utils.Logger
	tracker *DedupTracker
	emitted int
}

func (p *Pipeline) newRun(doc dom.Document, opts Options) *run {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	base := opts.BaseURL
	if base == "" {
		base = doc.URL()
	}
	return &run{
		Pipeline: p,
		doc:      doc,
		opts:     opts,
		base:     base,
		logger:   p.logger.WithField("run_id", opts.RunID),
		tracker:  NewDedupTracker(),
	}
}

// errStop ends a run early without reporting an error.
var errStop = errors.New("stop")

func (r *run) execute(ctx context.Context, yield func(types.Record, error) bool) error {
	dismissed, err := dismissOverlays(ctx, r.doc, r.opts.DismissLabels)
	if err != nil {
		return documentError("snapshot", err)
	}
	if dismissed {
		r.logger.Debug("dismissed overlays before discovery")
	}

	snap, err := r.doc.Snapshot(ctx)
	if err != nil {
		return documentError("snapshot", err)
	}

	groups := r.opts.selectorGroups()
	scope := dom.Node{}
	if !r.opts.Scope.IsZero() {
		scope = FindScope(snap, r.opts.Scope, groups)
		if scope.IsZero() {
			r.logger.Warnf("scope %+v not found, using the whole document", r.opts.Scope)
		}
	}

	var scopePath []int
	pass := PassDocument
	if !scope.IsZero() {
		scopePath = scope.Path()
		pass = PassScoped
	}

	controls, err := DiscoverControls(snap, scope, groups)
	if err != nil {
		return err
	}
	r.logger.WithFields(map[string]interface{}{"pass": pass, "controls": len(controls)}).Info("discovered controls")

	err = r.process(ctx, controls, scopePath, pass, yield)
	if err != nil {
		return ignoreStop(err)
	}

	if pass != PassScoped || r.emitted >= MinScopedControls {
		return nil
	}

	r.logger.Infof("scoped pass yielded %d records, scanning the whole document", r.emitted)
	if snap, err = r.doc.Snapshot(ctx); err != nil {
		return documentError("snapshot", err)
	}
	controls, err = DiscoverControls(snap, dom.Node{}, groups)
	if err != nil {
		return err
	}
	return ignoreStop(r.process(ctx, controls, nil, PassDocument, yield))
}

func ignoreStop(err error) error {
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func (r *run) process(ctx context.Context, controls []Control, scopePath []int, pass string, yield func(types.Record, error) bool) error {
	for _, c := range controls {
		if ctx.Err() != nil {
			return errStop
		}
		r.recorder.ControlDiscovered(pass)

		rec, ok, err := r.processControl(ctx, c, scopePath)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		r.recorder.RecordEmitted()
		r.emitted++
		if !yield(rec, nil) {
			return errStop
		}
		if r.opts.MaxItems > 0 && r.emitted >= r.opts.MaxItems {
			return errStop
		}
	}
	return nil
}

// logQuestionBytes bounds the question text attached to log lines
const logQuestionBytes = 80

// processControl activates, resolves and extracts one control. ok is false
// when the control is skipped.
func (r *run) processControl(ctx context.Context, c Control, scopePath []int) (types.Record, bool, error) {
	log := r.logger.WithFields(map[string]interface{}{
		"selector": c.Selector,
		"index":    c.Index,
		"question": utils.TruncateText(c.Text, logQuestionBytes, "..."),
	})

	if c.Text == "" {
		r.recorder.ControlSkipped(SkipEmptyText)
		return types.Record{}, false, nil
	}
	if r.tracker.Seen(c.Text) {
		log.Debugf("skipping duplicate question %q", c.Text)
		r.recorder.ControlSkipped(SkipDuplicate)
		return types.Record{}, false, nil
	}

	clicked := false
	if !c.Expanded {
		if err := r.doc.Click(ctx, c.Selector, c.Index); err != nil {
			if ctx.Err() != nil {
				return types.Record{}, false, errStop
			}
			log.Warnf("%v", activationError(c, err))
			r.recorder.ActivationFailed()
		} else {
			clicked = true
			r.awaitPanel(ctx, log, c)
		}
	}

	snap, err := r.doc.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return types.Record{}, false, errStop
		}
		return types.Record{}, false, documentError("snapshot", err)
	}

	live, found := Locate(snap, c)
	if !found {
		log.Warnf("%v: %q", ErrControlVanished, c.Text)
		r.recorder.ControlSkipped(SkipVanished)
		return types.Record{}, false, nil
	}

	scope := snap.Root()
	if len(scopePath) > 0 {
		if n := snap.At(scopePath); !n.IsZero() {
			scope = n
		}
	}

	panel, strategy, err := r.resolver.Resolve(Input{Control: live, Scope: scope, Document: snap})
	if err != nil {
		log.Warnf("%v for %q", err, c.Text)
		r.recorder.ControlSkipped(SkipPanelNotFound)
		r.restore(ctx, c, clicked)
		return types.Record{}, false, nil
	}
	r.recorder.PanelResolved(strategy)
	log.Debugf("resolved %q via %s", c.Text, strategy)

	content := Extract(panel, r.base)
	section := r.opts.Section
	if section == "" {
		section = SectionFor(live, r.opts.SectionMatch)
	}

	rec := types.Record{
		SourceURL:  r.base,
		Section:    section,
		Question:   c.Text,
		AnswerText: content.AnswerText,
		AnswerHTML: content.AnswerHTML,
		Links:      content.Links,
		Images:     content.Images,
	}.Normalized()
	r.tracker.Add(c.Text)

	r.restore(ctx, c, clicked)
	return rec, true, nil
}

// awaitPanel waits until the activated control looks open. A timeout is not
// an error: some panels never signal readiness and resolution proceeds.
func (r *run) awaitPanel(ctx context.Context, log utils.Logger, c Control) {
	cond := func(ctx context.Context) (bool, error) {
		snap, err := r.doc.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		return panelReady(snap, c), nil
	}
	if err := r.waiter.WaitUntil(ctx, cond, r.opts.SettleTimeout); err != nil && ctx.Err() == nil {
		log.Debugf("panel for %q not ready: %v", c.Text, err)
	}
}

func panelReady(snap *dom.Snapshot, c Control) bool {
	if c.PanelID != "" {
		return HasContent(snap.ByID(c.PanelID))
	}
	if c.HasExpandedState || c.Tag == "summary" {
		live, ok := Locate(snap, c)
		return ok && live.Expanded()
	}
	return true
}

// restore collapses a control the pipeline expanded. Failures are ignored.
func (r *run) restore(ctx context.Context, c Control, clicked bool) {
	if !clicked || !r.opts.RestoreState || ctx.Err() != nil {
		return
	}
	if err := r.doc.Click(ctx, c.Selector, c.Index); err != nil {
		r.logger.Debugf("restore of %q failed: %v", c.Text, err)
	}
}
