// Package processor sequences one note enhancement: lookup, limit check,
// claim, completion call and the terminal write.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"notesrelay/internal/domain"
	"notesrelay/internal/prompts"
	"notesrelay/internal/providers/completion"
)

const (
	defaultMaxTokens  = 500
	defaultStaleAfter = 5 * time.Minute
)

// Options tunes a Processor.
type Options struct {
	MaxTokens  int
	StaleAfter time.Duration
}

// Processor enhances notes through a completion back end.
type Processor struct {
	store      domain.NoteStore
	completer  completion.Completer
	logger     zerolog.Logger
	maxTokens  int
	staleAfter time.Duration
	now        func() time.Time
}

// Result is the uniform outcome reported for a handled note.
type Result struct {
	Note             *domain.Note
	OpenAISuccess    bool
	AlreadyProcessed bool
	Warnings         []string
	TokensUsed       int
	ProcessingTime   time.Duration
}

// New wires a Processor.
func New(store domain.NoteStore, completer completion.Completer, logger zerolog.Logger, opts Options) *Processor {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultStaleAfter
	}
	return &Processor{
		store:      store,
		completer:  completer,
		logger:     logger.With().Str("component", "processor").Logger(),
		maxTokens:  opts.MaxTokens,
		staleAfter: opts.StaleAfter,
		now:        time.Now,
	}
}

// Process enhances the note identified by noteID exactly once.
//
// It returns domain.ErrNotFound for unknown notes, *domain.LimitError when the
// owner exhausted the monthly allowance, domain.ErrNoteBusy when another call
// holds the note, and domain.ErrProcessing for anything unexpected. A failing
// completion call is not an error: the note gets fallback text and
// Result.OpenAISuccess is false.
func (p *Processor) Process(ctx context.Context, noteID string) (res *Result, err error) {
	// Writes must land even if the caller goes away mid-flight.
	wctx := context.WithoutCancel(ctx)
	claimed := false

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("note_id", noteID).Interface("panic", r).Msg("note processing panicked")
			if claimed {
				p.markFailed(wctx, noteID)
			}
			res, err = nil, fmt.Errorf("%w: panic: %v", domain.ErrProcessing, r)
		}
	}()

	note, err := p.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, p.unexpected(noteID, "fetch note", err)
	}
	log := p.logger.With().
		Str("note_id", note.ID).
		Str("user_id", note.UserID).
		Str("category", string(note.Category)).
		Logger()

	if note.Status == domain.NoteStatusCompleted {
		log.Debug().Msg("note already processed")
		return alreadyProcessed(note), nil
	}

	limit, err := p.store.CheckUserLimit(ctx, note.UserID)
	if err != nil {
		return nil, p.unexpected(noteID, "check user limit", err)
	}
	if !limit.CanProcess {
		return p.rejectOverLimit(ctx, wctx, log, note, limit)
	}

	claimedNote, err := p.store.ClaimNote(wctx, noteID, p.now().Add(-p.staleAfter))
	if err != nil {
		if errors.Is(err, domain.ErrNoteBusy) {
			return p.afterLostClaim(ctx, log, noteID)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, p.unexpected(noteID, "claim note", err)
	}
	claimed = true
	log.Info().Msg("note claimed for processing")

	var warnings []string
	tmpl, known := prompts.Select(string(claimedNote.Category))
	if !known {
		msg := fmt.Sprintf("unknown category %q, using the general template", claimedNote.Category)
		log.Warn().Msg(msg)
		warnings = append(warnings, msg)
	}

	start := p.now()
	resp, cerr := p.completer.Complete(ctx, completion.Request{
		System:    prompts.SystemMessage,
		Prompt:    tmpl.Render(claimedNote.OriginalText),
		Input:     claimedNote.OriginalText,
		MaxTokens: p.maxTokens,
	})
	elapsedMs := int(p.now().Sub(start) / time.Millisecond)

	if cerr != nil {
		return p.storeFallback(wctx, log, claimedNote, tmpl, elapsedMs, warnings, cerr)
	}

	text := resp.Text
	tokens := resp.TokensUsed
	updated, err := p.store.UpdateNote(wctx, noteID, domain.NoteUpdate{
		Status:           domain.NoteStatusCompleted,
		ProcessedText:    &text,
		TokensUsed:       &tokens,
		ProcessingTimeMs: &elapsedMs,
	})
	if err != nil {
		p.markFailed(wctx, noteID)
		return nil, p.unexpected(noteID, "store processed note", err)
	}
	if _, err := p.store.IncrementMonthlyNotes(wctx, note.UserID); err != nil {
		p.markFailed(wctx, noteID)
		return nil, p.unexpected(noteID, "increment monthly notes", err)
	}

	log.Info().
		Int("tokens_used", tokens).
		Int("processing_ms", elapsedMs).
		Str("provider", resp.Provider).
		Str("model", resp.Model).
		Msg("note processed")

	return &Result{
		Note:           updated,
		OpenAISuccess:  true,
		Warnings:       warnings,
		TokensUsed:     tokens,
		ProcessingTime: time.Duration(elapsedMs) * time.Millisecond,
	}, nil
}

// rejectOverLimit stores the limit notice only while the note is still
// claimable. A note another caller completed or holds is left untouched.
func (p *Processor) rejectOverLimit(ctx, wctx context.Context, log zerolog.Logger, note *domain.Note, limit *domain.UsageLimit) (*Result, error) {
	lerr := &domain.LimitError{CurrentCount: limit.CurrentCount, Limit: limit.Limit, Tier: limit.Tier}
	text := note.OriginalText + prompts.LimitSuffix(lerr)
	if _, err := p.store.RejectNote(wctx, note.ID, text, p.now().Add(-p.staleAfter)); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoteBusy):
			return p.afterLostClaim(ctx, log, note.ID)
		case errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		return nil, p.unexpected(note.ID, "store limit rejection", err)
	}
	log.Warn().
		Int("current_count", limit.CurrentCount).
		Int("limit", limit.Limit).
		Str("tier", string(limit.Tier)).
		Msg("monthly limit reached")
	return nil, lerr
}

func (p *Processor) storeFallback(ctx context.Context, log zerolog.Logger, note *domain.Note, tmpl prompts.Template, elapsedMs int, warnings []string, cause error) (*Result, error) {
	log.Warn().
		Err(cause).
		Str("reason", completion.Reason(cause)).
		Msg("completion failed, storing fallback text")

	text := tmpl.Fallback(note.OriginalText)
	zero := 0
	updated, err := p.store.UpdateNote(ctx, note.ID, domain.NoteUpdate{
		Status:           domain.NoteStatusFailed,
		ProcessedText:    &text,
		TokensUsed:       &zero,
		ProcessingTimeMs: &elapsedMs,
	})
	if err != nil {
		p.markFailed(ctx, note.ID)
		return nil, p.unexpected(note.ID, "store fallback note", err)
	}
	return &Result{
		Note:           updated,
		OpenAISuccess:  false,
		Warnings:       warnings,
		ProcessingTime: time.Duration(elapsedMs) * time.Millisecond,
	}, nil
}

// afterLostClaim re-reads the note once another caller won the claim.
func (p *Processor) afterLostClaim(ctx context.Context, log zerolog.Logger, noteID string) (*Result, error) {
	note, err := p.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, p.unexpected(noteID, "reload note", err)
	}
	if note.Status == domain.NoteStatusCompleted {
		return alreadyProcessed(note), nil
	}
	log.Info().Str("status", string(note.Status)).Msg("note claimed by another request")
	return nil, domain.ErrNoteBusy
}

func (p *Processor) markFailed(ctx context.Context, noteID string) {
	if _, err := p.store.UpdateNote(ctx, noteID, domain.NoteUpdate{Status: domain.NoteStatusFailed}); err != nil {
		p.logger.Error().Err(err).Str("note_id", noteID).Msg("mark note failed")
	}
}

func (p *Processor) unexpected(noteID, op string, err error) error {
	p.logger.Error().Err(err).Str("note_id", noteID).Msg(op)
	return fmt.Errorf("%w: %s: %v", domain.ErrProcessing, op, err)
}

func alreadyProcessed(note *domain.Note) *Result {
	return &Result{
		Note:             note,
		OpenAISuccess:    note.HasProcessedText(),
		AlreadyProcessed: true,
		TokensUsed:       note.TokensUsed,
		ProcessingTime:   time.Duration(note.ProcessingTimeMs) * time.Millisecond,
	}
}
