// Package codex harvests a live game documentation site into a queryable,
// versioned store of keywords, per-class metadata, and per-ability skill
// records, with a full per-run audit trail.
//
// One Refresh call runs the whole pipeline: discover class pages from the
// overview page, parse the keyword glossary, render each class page in a
// headless browser under bounded concurrency, extract and normalize the skill
// table, and reconcile everything into sqlite. Every URL touched gets an
// audit row whether it succeeded, was skipped, or failed.
package codex

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codexwatch/codexwatch/codex/internal/render"
	"github.com/codexwatch/codexwatch/codex/internal/scrape"
	"github.com/codexwatch/codexwatch/codex/internal/store"
)

// runDomain tags every run row this service writes.
const runDomain = "combat_codex"

// PageRenderer renders a URL in a browser and returns the hydrated DOM.
// Satisfied by render.Session; tests substitute a stub.
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithHTTPClient overrides the client used for plain page fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithRendererFactory overrides how the per-run browser session is built.
func WithRendererFactory(f func() PageRenderer) Option {
	return func(s *Service) { s.newRenderer = f }
}

// Service is the harvester. One Service serves many sequential Refresh calls;
// each call owns its own browser session.
type Service struct {
	cfg         Config
	store       *store.Store
	log         *slog.Logger
	client      *http.Client
	meta        *scrape.MetaExtractor
	newRenderer func() PageRenderer
}

// NewService creates a Service over an open database.
func NewService(db *sql.DB, cfg Config, opts ...Option) *Service {
	cfg.defaults()
	s := &Service{
		cfg:   cfg,
		store: store.NewStore(db),
		log:   slog.Default(),
		meta:  scrape.NewMetaExtractor(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second}
	}
	if s.newRenderer == nil {
		s.newRenderer = func() PageRenderer {
			return render.NewSession(render.Config{
				UserAgent:       s.cfg.UserAgent,
				NavTimeout:      time.Duration(s.cfg.NavTimeoutSec) * time.Second,
				SelectorTimeout: time.Duration(s.cfg.SelectorTimeoutSec) * time.Second,
				Headful:         s.cfg.Headful,
				Logger:          s.log,
			})
		}
	}
	return s
}

// Store exposes the data layer for read-only status endpoints.
func (s *Service) Store() *store.Store { return s.store }

// Refresh runs one full orchestration: discovery, keyword parsing, bounded
// class processing, finalization. Fatal errors in the first two phases fail
// the run and are returned; per-class errors are confined to their audit item
// and never fail the run.
func (s *Service) Refresh(ctx context.Context, opts RefreshOptions) (*Summary, error) {
	concurrency := s.cfg.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}

	run, err := s.store.StartRun(ctx, uuid.NewString(), runDomain)
	if err != nil {
		return nil, fmt.Errorf("%w: start run: %v", ErrPersistence, err)
	}
	log := s.log.With("run_id", run.ID)
	log.Info("refresh started", "discover", opts.discover(), "concurrency", concurrency)

	renderer := s.newRenderer()
	defer renderer.Close()

	// Discovering.
	pageHTML, err := s.fetchPage(ctx, s.cfg.OverviewURL)
	if err != nil {
		return nil, s.failRun(ctx, run.ID, err)
	}
	if err := s.store.UpsertSource(ctx, &store.Source{
		ID:      uuid.NewString(),
		URL:     s.cfg.OverviewURL,
		Kind:    store.KindOverview,
		Enabled: true,
	}); err != nil {
		return nil, s.failRun(ctx, run.ID, fmt.Errorf("%w: upsert overview source: %v", ErrPersistence, err))
	}

	discovered := 0
	if opts.discover() {
		links, err := DiscoverLinks(s.cfg.OverviewURL, pageHTML)
		if err != nil {
			return nil, s.failRun(ctx, run.ID, fmt.Errorf("discover links: %w", err))
		}
		for _, link := range links {
			src := &store.Source{
				ID:             uuid.NewString(),
				URL:            link,
				Kind:           store.KindClass,
				Enabled:        true,
				DiscoveredFrom: s.cfg.OverviewURL,
			}
			if err := s.store.UpsertSource(ctx, src); err != nil {
				return nil, s.failRun(ctx, run.ID, fmt.Errorf("%w: upsert source %s: %v", ErrPersistence, link, err))
			}
		}
		discovered = len(links)
	}
	s.patchRun(ctx, run.ID, store.RunPatch{
		DiscoveredURLs: &discovered,
		AppendLog:      fmt.Sprintf("discovering: %d urls", discovered),
	})

	// KeywordParsing.
	pairs, err := ExtractKeywords(pageHTML)
	if err != nil {
		return nil, s.failRun(ctx, run.ID, fmt.Errorf("extract keywords: %w", err))
	}
	kws := make([]*store.Keyword, 0, len(pairs))
	for _, p := range pairs {
		kws = append(kws, &store.Keyword{
			Keyword:    p.Keyword,
			Definition: p.Definition,
			SourceURL:  s.cfg.OverviewURL,
		})
	}
	keywordsUpserted, err := s.store.UpsertKeywords(ctx, kws)
	if err != nil {
		return nil, s.failRun(ctx, run.ID, fmt.Errorf("%w: upsert keywords: %v", ErrPersistence, err))
	}
	s.recordItem(ctx, run.ID, store.ItemKeywords, s.cfg.OverviewURL, store.ItemSuccess,
		fmt.Sprintf("%d keywords", keywordsUpserted), 0)
	s.patchRun(ctx, run.ID, store.RunPatch{
		KeywordsUpserted: &keywordsUpserted,
		AppendLog:        fmt.Sprintf("keywords: %d upserted", keywordsUpserted),
	})

	// ClassProcessing. Once entered, this phase always completes: every
	// per-URL error is caught at the task boundary and recorded.
	sources, err := s.store.EnabledClassSources(ctx)
	if err != nil {
		return nil, s.failRun(ctx, run.ID, fmt.Errorf("%w: load class sources: %v", ErrPersistence, err))
	}
	attempted := len(sources)
	s.patchRun(ctx, run.ID, store.RunPatch{
		ClassesAttempted: &attempted,
		AppendLog:        fmt.Sprintf("processing %d class pages", attempted),
	})

	var (
		mu          sync.Mutex
		ingested    int
		skillsTotal int
	)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(pageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			n, ok := s.processClass(ctx, renderer, run.ID, pageURL)
			if ok {
				mu.Lock()
				ingested++
				skillsTotal += n
				mu.Unlock()
			}
		}(src.URL)
	}
	wg.Wait()

	// Finalizing: release the browser, then bookkeeping only.
	if err := renderer.Close(); err != nil {
		log.Warn("browser close", "error", err)
	}
	status := store.RunSuccess
	if err := s.store.UpdateRun(ctx, run.ID, store.RunPatch{
		ClassesIngested: &ingested,
		SkillsUpserted:  &skillsTotal,
		Status:          &status,
		AppendLog:       fmt.Sprintf("done: %d/%d classes, %d skills", ingested, attempted, skillsTotal),
	}); err != nil {
		return nil, fmt.Errorf("%w: finalize run: %v", ErrPersistence, err)
	}

	log.Info("refresh finished",
		"discovered", discovered, "keywords", keywordsUpserted,
		"attempted", attempted, "ingested", ingested, "skills", skillsTotal)
	return &Summary{
		RunID:            run.ID,
		Status:           status,
		DiscoveredURLs:   discovered,
		KeywordsUpserted: keywordsUpserted,
		ClassesAttempted: attempted,
		ClassesIngested:  ingested,
		SkillsUpserted:   skillsTotal,
	}, nil
}

// processClass renders one class page, extracts its skill table, and
// reconciles the result. Every error is absorbed here into a failed audit
// item; the return reports (skill count, ingested) for the run counters.
func (s *Service) processClass(ctx context.Context, renderer PageRenderer, runID, pageURL string) (int, bool) {
	log := s.log.With("run_id", runID, "url", pageURL)

	pageHTML, err := renderer.Render(ctx, pageURL)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrRender, err)
		log.Warn("class render failed", "error", err)
		s.recordItem(ctx, runID, store.ItemClassURL, pageURL, store.ItemFailed, err.Error(), 0)
		return 0, false
	}

	rows, err := scrape.ExtractSkills(pageHTML)
	if err != nil {
		log.Warn("class extract failed", "error", err)
		s.recordItem(ctx, runID, store.ItemClassURL, pageURL, store.ItemFailed, err.Error(), 0)
		return 0, false
	}
	if len(rows) == 0 {
		log.Info("class yielded no skill rows")
		s.recordItem(ctx, runID, store.ItemClassURL, pageURL, store.ItemSkipped,
			"no skill rows extracted", 0)
		return 0, false
	}

	class := ClassNameFromURL(pageURL)
	meta := s.meta.Extract(pageHTML, pageURL)
	if err := s.store.ReplaceClassMeta(ctx, &store.ClassMeta{
		Class:          class,
		SourceURL:      pageURL,
		LastUpdateNote: meta.LastUpdateNote,
		Maturity:       meta.Maturity,
		Summary:        meta.Summary,
	}); err != nil {
		err = fmt.Errorf("%w: class meta: %v", ErrPersistence, err)
		log.Warn("class persist failed", "error", err)
		s.recordItem(ctx, runID, store.ItemClassURL, pageURL, store.ItemFailed, err.Error(), 0)
		return 0, false
	}

	skills := make([]*store.Skill, 0, len(rows))
	for _, r := range rows {
		skills = append(skills, &store.Skill{
			Tier:           store.TierUnknown,
			SkillPoints:    r.SkillPoints,
			Discipline:     r.Discipline,
			Ability:        r.Ability,
			DescriptionRaw: r.DescriptionRaw,
			Range:          r.Range,
			ManaCost:       r.ManaCost,
			ManaGrowth:     r.ManaGrowth,
			DoD:            r.DoD,
			SourceURL:      pageURL,
		})
	}
	n, err := s.store.ReplaceSkills(ctx, class, skills)
	if err != nil {
		err = fmt.Errorf("%w: skills: %v", ErrPersistence, err)
		log.Warn("class persist failed", "error", err)
		s.recordItem(ctx, runID, store.ItemClassURL, pageURL, store.ItemFailed, err.Error(), 0)
		return 0, false
	}

	s.recordItem(ctx, runID, store.ItemClassURL, pageURL, store.ItemSuccess, "", n)
	log.Info("class ingested", "class", class, "skills", n, "maturity", meta.Maturity)
	return n, true
}

// failRun marks the run failed and returns the cause for the caller.
func (s *Service) failRun(ctx context.Context, runID string, cause error) error {
	status := store.RunFailed
	msg := cause.Error()
	if err := s.store.UpdateRun(ctx, runID, store.RunPatch{Status: &status, Error: &msg}); err != nil {
		s.log.Error("mark run failed", "run_id", runID, "error", err)
	}
	return cause
}

// patchRun applies incremental run bookkeeping. Audit-write failures are
// logged, never propagated: losing a breadcrumb must not fail the pipeline.
func (s *Service) patchRun(ctx context.Context, runID string, patch store.RunPatch) {
	if err := s.store.UpdateRun(ctx, runID, patch); err != nil {
		s.log.Error("update run", "run_id", runID, "error", err)
	}
}

func (s *Service) recordItem(ctx context.Context, runID, itemType, itemKey, status, detail string, skillsCount int) {
	item := &store.RunItem{
		ID:          uuid.NewString(),
		RunID:       runID,
		ItemType:    itemType,
		ItemKey:     itemKey,
		Status:      status,
		Detail:      detail,
		SkillsCount: skillsCount,
	}
	if err := s.store.RecordItem(ctx, item); err != nil {
		s.log.Error("record run item", "run_id", runID, "item_key", itemKey, "error", err)
	}
}
