package faq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valpere/FAQScrapexter/internal/dom"
	"github.com/valpere/FAQScrapexter/internal/utils"
)

const testURL = "https://example.com/ev/faq"

// instantWaiter evaluates the condition once.
type instantWaiter struct {
	calls int
}

func (w *instantWaiter) WaitUntil(ctx context.Context, cond dom.Condition, _ time.Duration) error {
	w.calls++
	ok, err := cond(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return dom.ErrWaitTimeout
	}
	return nil
}

type countingRecorder struct {
	discovered map[string]int
	skipped    map[string]int
	resolved   map[string]int
	failures   int
	emitted    int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		discovered: map[string]int{},
		skipped:    map[string]int{},
		resolved:   map[string]int{},
	}
}

func (r *countingRecorder) ControlDiscovered(pass string) { r.discovered[pass]++ }
func (r *countingRecorder) ControlSkipped(reason string) { r.skipped[reason]++ }
func (r *countingRecorder) PanelResolved(strategy string) { r.resolved[strategy]++ }
func (r *countingRecorder) ActivationFailed() { r.failures++ }
func (r *countingRecorder) RecordEmitted() { r.emitted++ }

// failingClickDocument rejects every click.
type failingClickDocument struct {
	*dom.StaticDocument
}

func (d failingClickDocument) Click(context.Context, string, int) error {
	return errors.New("element is not clickable")
}

// cancelingDocument cancels the run on the n-th click.
type cancelingDocument struct {
	*dom.StaticDocument
	after  int
	clicks int
	cancel context.CancelFunc
}

func (d *cancelingDocument) Click(ctx context.Context, selector string, index int) error {
	err := d.StaticDocument.Click(ctx, selector, index)
	d.clicks++
	if d.clicks == d.after {
		d.cancel()
	}
	return err
}

// brokenDocument cannot be read at all.
type brokenDocument struct{}

func (brokenDocument) Snapshot(context.Context) (*dom.Snapshot, error) {
	return nil, errors.New("tab crashed")
}
func (brokenDocument) Click(context.Context, string, int) error { return nil }
func (brokenDocument) URL() string { return testURL }

// closingDocument removes every element it clicks, the way a modal close
// button takes itself out of the page, and records the clicked texts.
type closingDocument struct {
	markup  string
	clicked []string
}

func (d *closingDocument) Snapshot(context.Context) (*dom.Snapshot, error) {
	return dom.NewSnapshot(d.markup)
}

func (d *closingDocument) Click(_ context.Context, selector string, index int) error {
	snap, err := dom.NewSnapshot(d.markup)
	if err != nil {
		return err
	}
	nodes, err := snap.QueryAll(selector)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(nodes) {
		return dom.ErrNoSuchElement
	}
	n := nodes[index].HTMLNode()
	d.clicked = append(d.clicked, nodes[index].Text())
	n.Parent.RemoveChild(n)
	d.markup, err = snap.HTML()
	return err
}

func (d *closingDocument) URL() string { return testURL }

func newTestPipeline(rec Recorder) *Pipeline {
	return NewPipeline(PipelineConfig{
		Waiter:   &instantWaiter{},
		Logger:   utils.NewNopLogger(),
		Recorder: rec,
	})
}

func accordion(questions ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><section id="faq"><h2>전기차 FAQ</h2>`)
	for i, q := range questions {
		fmt.Fprintf(&b, `<div class="item"><button aria-controls="a%d" aria-expanded="false">%s</button>`, i, q)
		fmt.Fprintf(&b, `<div id="a%d" class="answer" hidden><p>Answer %d</p></div></div>`, i, i)
	}
	b.WriteString(`</section></body></html>`)
	return b.String()
}

func TestPipeline_DuplicateQuestionEmitsOnce(t *testing.T) {
	doc := dom.NewStaticDocument(testURL, accordion("배터리 안전은?", "배터리 안전은?", "충전 시간은?"))
	rec := newCountingRecorder()

	records, err := newTestPipeline(rec).Run(context.Background(), doc, DefaultOptions())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Question != "배터리 안전은?" || records[0].AnswerText != "Answer 0" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Question != "충전 시간은?" || records[1].AnswerText != "Answer 2" {
		t.Errorf("second record = %+v", records[1])
	}
	for _, r := range records {
		if r.SourceURL != testURL {
			t.Errorf("SourceURL = %q", r.SourceURL)
		}
		if r.Section != "전기차 FAQ" {
			t.Errorf("Section = %q, want derived heading", r.Section)
		}
	}

	if rec.skipped[SkipDuplicate] != 1 {
		t.Errorf("duplicate skips = %d, want 1", rec.skipped[SkipDuplicate])
	}
	if rec.resolved[StrategyLinkedID] != 2 {
		t.Errorf("linked-id resolutions = %d, want 2", rec.resolved[StrategyLinkedID])
	}
	if doc.Clicks() != 4 {
		t.Errorf("clicks = %d, want 4 (activate and restore per record)", doc.Clicks())
	}
	if strings.Contains(doc.HTML(), `aria-expanded="true"`) {
		t.Error("expected every control to be restored to collapsed")
	}
}

func TestPipeline_LinkedIDBeatsSibling(t *testing.T) {
	markup := `<html><body><div class="faq"><button aria-controls="target" aria-expanded="false">Q1</button>` +
		`<div class="sibling">Sibling text</div></div>` +
		`<div id="target" hidden>Linked answer</div></body></html>`
	doc := dom.NewStaticDocument(testURL, markup)

	records, err := newTestPipeline(nil).Run(context.Background(), doc, DefaultOptions())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 1 || records[0].AnswerText != "Linked answer" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestPipeline_MaxItems(t *testing.T) {
	var questions []string
	for i := 0; i < 10; i++ {
		questions = append(questions, fmt.Sprintf("Question %d", i))
	}
	doc := dom.NewStaticDocument(testURL, accordion(questions...))

	opts := DefaultOptions()
	opts.MaxItems = 3
	records, err := newTestPipeline(nil).Run(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, r := range records {
		if want := fmt.Sprintf("Question %d", i); r.Question != want {
			t.Errorf("record %d question = %q, want %q", i, r.Question, want)
		}
	}
}

func TestPipeline_ScopedPassFallsBackToDocument(t *testing.T) {
	markup := `<html><body>
<section id="faq"><button aria-controls="s1" aria-expanded="false">In scope</button><div id="s1">Scoped answer</div></section>
<div class="more">
<button aria-controls="o1" aria-expanded="false">In scope</button><div id="o1">dup</div>
<button aria-controls="o2" aria-expanded="false">Outside one</button><div id="o2">Answer two</div>
<button aria-controls="o3" aria-expanded="false">Outside two</button><div id="o3">Answer three</div>
</div></body></html>`
	doc := dom.NewStaticDocument(testURL, markup)
	rec := newCountingRecorder()

	opts := DefaultOptions()
	opts.Scope = Scope{Selector: "#faq"}
	records, err := newTestPipeline(rec).Run(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"In scope", "Outside one", "Outside two"}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(want), records)
	}
	for i, q := range want {
		if records[i].Question != q {
			t.Errorf("record %d question = %q, want %q", i, records[i].Question, q)
		}
	}
	if records[0].AnswerText != "Scoped answer" {
		t.Errorf("scoped answer = %q", records[0].AnswerText)
	}
	if rec.discovered[PassScoped] != 1 || rec.discovered[PassDocument] != 4 {
		t.Errorf("discovered = %v", rec.discovered)
	}
	if rec.skipped[SkipDuplicate] != 2 {
		t.Errorf("duplicate skips = %d, want 2", rec.skipped[SkipDuplicate])
	}
}

func TestPipeline_LabelScopeSkipsFallbackWhenEnough(t *testing.T) {
	markup := `<html><body>
<div class="top"><button aria-controls="x0" aria-expanded="false">Top question</button><div id="x0">Top answer</div></div>
<section class="ev"><h3>전기차 FAQ</h3>
<button aria-controls="e1">E1</button><div id="e1">A1</div>
<button aria-controls="e2">E2</button><div id="e2">A2</div>
<button aria-controls="e3">E3</button><div id="e3">A3</div>
</section></body></html>`
	doc := dom.NewStaticDocument(testURL, markup)

	opts := DefaultOptions()
	opts.Scope = Scope{Label: "전기차 FAQ"}
	records, err := newTestPipeline(nil).Run(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(records), records)
	}
	for i, r := range records {
		if want := fmt.Sprintf("E%d", i+1); r.Question != want {
			t.Errorf("record %d question = %q, want %q", i, r.Question, want)
		}
	}
}

func TestPipeline_DisclosureAndSection(t *testing.T) {
	markup := `<html><body><h1>Owner Guide</h1><h2>Charging FAQ</h2>
<details><summary>How long?</summary><div>About <b>30</b> minutes. <a href="/charge">More</a></div></details>
<details open><summary>Where?</summary><p>Everywhere</p></details>
</body></html>`
	doc := dom.NewStaticDocument(testURL, markup)
	rec := newCountingRecorder()

	opts := DefaultOptions()
	opts.SectionMatch = "faq"
	records, err := newTestPipeline(rec).Run(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.AnswerText != "About 30 minutes. More" {
		t.Errorf("AnswerText = %q", first.AnswerText)
	}
	if first.Section != "Charging FAQ" {
		t.Errorf("Section = %q", first.Section)
	}
	if len(first.Links) != 1 || first.Links[0].Href != "https://example.com/charge" {
		t.Errorf("Links = %+v", first.Links)
	}
	if !strings.Contains(first.AnswerHTML, `href="https://example.com/charge"`) {
		t.Errorf("AnswerHTML not absolutized: %s", first.AnswerHTML)
	}
	if records[1].AnswerText != "Everywhere" {
		t.Errorf("second AnswerText = %q", records[1].AnswerText)
	}
	if rec.resolved[StrategyDisclosure] != 2 {
		t.Errorf("resolved = %v", rec.resolved)
	}
	// the already open control is neither clicked nor restored
	if doc.Clicks() != 2 {
		t.Errorf("clicks = %d, want 2", doc.Clicks())
	}
}

func TestPipeline_StaticSectionWins(t *testing.T) {
	doc := dom.NewStaticDocument(testURL, accordion("Q"))
	opts := DefaultOptions()
	opts.Section = "Battery"
	opts.BaseURL = "https://example.com/other"

	records, err := newTestPipeline(nil).Run(context.Background(), doc, opts)
	if err != nil || len(records) != 1 {
		t.Fatalf("Run = %d records, %v", len(records), err)
	}
	if records[0].Section != "Battery" || records[0].SourceURL != "https://example.com/other" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestPipeline_ActivationFailureIsNotFatal(t *testing.T) {
	markup := `<html><body><div class="faq-list">
<div><button aria-expanded="false">Q1</button><div class="answer">A1</div></div>
<div><button aria-expanded="false">Q2</button><div class="answer">A2</div></div>
</div></body></html>`
	doc := failingClickDocument{dom.NewStaticDocument(testURL, markup)}
	rec := newCountingRecorder()

	records, err := newTestPipeline(rec).Run(context.Background(), doc, DefaultOptions())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 2 || records[1].AnswerText != "A2" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if rec.failures != 2 {
		t.Errorf("activation failures = %d, want 2", rec.failures)
	}
}

func TestPipeline_DeadlineReturnsPartialRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc := &cancelingDocument{
		StaticDocument: dom.NewStaticDocument(testURL, accordion("Q1", "Q2", "Q3", "Q4")),
		after:          2,
		cancel:         cancel,
	}
	opts := DefaultOptions()
	opts.RestoreState = false

	records, err := newTestPipeline(nil).Run(ctx, doc, opts)
	if err != nil {
		t.Fatalf("expected nil error on cancellation, got %v", err)
	}
	if len(records) != 1 || records[0].Question != "Q1" {
		t.Fatalf("expected the first record only, got %+v", records)
	}
}

func TestPipeline_ZeroControlsIsEmptyResult(t *testing.T) {
	doc := dom.NewStaticDocument(testURL, `<html><body><p>No questions here.</p></body></html>`)

	records, err := newTestPipeline(nil).Run(context.Background(), doc, DefaultOptions())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", records)
	}
}

func TestPipeline_DocumentFailure(t *testing.T) {
	_, err := newTestPipeline(nil).Run(context.Background(), brokenDocument{}, DefaultOptions())
	if err == nil {
		t.Fatal("expected error")
	}
	if code, ok := utils.CodeOf(err); !ok || code != utils.ErrCodeDocumentFailed {
		t.Errorf("error code = %v, want %s", code, utils.ErrCodeDocumentFailed)
	}
}

func TestPipeline_InvalidControlSelector(t *testing.T) {
	doc := dom.NewStaticDocument(testURL, accordion("Q"))
	opts := DefaultOptions()
	opts.ControlSelectors = []string{"button["}

	_, err := newTestPipeline(nil).Run(context.Background(), doc, opts)
	if code, ok := utils.CodeOf(err); !ok || code != utils.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestPipeline_RecordsIsLazyAndRestartable(t *testing.T) {
	doc := dom.NewStaticDocument(testURL, accordion("Q1", "Q2", "Q3"))
	p := newTestPipeline(nil)

	for rec, err := range p.Records(context.Background(), doc, DefaultOptions()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Question != "Q1" {
			t.Fatalf("first record = %q", rec.Question)
		}
		break
	}
	if doc.Clicks() != 2 {
		t.Errorf("clicks after one record = %d, want 2", doc.Clicks())
	}

	// a second invocation starts with a fresh dedup state
	records, err := p.Run(context.Background(), doc, DefaultOptions())
	if err != nil || len(records) != 3 {
		t.Fatalf("second run = %d records, %v", len(records), err)
	}
}

func TestPipeline_DismissesOverlays(t *testing.T) {
	markup := `<html><body><div class="modal"><button>닫기</button></div>` +
		`<div class="item"><button aria-controls="a0" aria-expanded="false">Q</button><div id="a0" hidden>A</div></div>` +
		`</body></html>`
	doc := dom.NewStaticDocument(testURL, markup)

	opts := DefaultOptions()
	opts.DismissLabels = []string{"닫기"}
	opts.RestoreState = false
	records, err := newTestPipeline(nil).Run(context.Background(), doc, opts)
	if err != nil || len(records) != 1 {
		t.Fatalf("Run = %d records, %v", len(records), err)
	}
	if doc.Clicks() != 2 {
		t.Errorf("clicks = %d, want 2 (dismiss and activate)", doc.Clicks())
	}
}

func TestPipeline_DismissRequeriesAfterEachClick(t *testing.T) {
	testCases := []struct {
		name     string
		markup   string
		labels   []string
		expected []string
	}{
		{
			name:     "self-removing buttons never shift onto a link",
			markup:   `<html><body><button>닫기</button><button>닫기</button><a href="/logout">Logout</a></body></html>`,
			labels:   []string{"닫기"},
			expected: []string{"닫기"},
		},
		{
			name:     "second label is matched in the updated page",
			markup:   `<html><body><button>닫기</button><div><a href="#">동의</a><button>동의</button></div></body></html>`,
			labels:   []string{"닫기", "동의"},
			expected: []string{"닫기", "동의"},
		},
		{
			name:     "hidden and unlabeled buttons are left alone",
			markup:   `<html><body><button hidden>닫기</button><button>Menu</button></body></html>`,
			labels:   []string{"닫기", " "},
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := &closingDocument{markup: tc.markup}
			opts := DefaultOptions()
			opts.DismissLabels = tc.labels

			records, err := newTestPipeline(nil).Run(context.Background(), doc, opts)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(records) != 0 {
				t.Errorf("expected no records, got %d", len(records))
			}
			if fmt.Sprint(doc.clicked) != fmt.Sprint(tc.expected) {
				t.Errorf("clicked %q, want %q", doc.clicked, tc.expected)
			}
		})
	}
}
