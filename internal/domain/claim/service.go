package claim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/claimview/internal/platform/x12"
)

// Parser turns raw 837 documents into viewer sections. It holds no
// per-document state and is safe for concurrent use; every call builds its
// own Assembler.
type Parser struct {
	logger zerolog.Logger
}

// NewParser creates a Parser that logs through logger.
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{
		logger: logger.With().Str("component", "x12-parser").Logger(),
	}
}

// Parse reads an 837 document from r and packages its claims.
func (p *Parser) Parse(r io.Reader) (Result, error) {
	batch, err := p.ParseBatch(r)
	if err != nil {
		return Result{}, err
	}
	return batch.Sections(), nil
}

// ParseBytes is Parse over an in-memory document.
func (p *Parser) ParseBytes(raw []byte) (Result, error) {
	return p.Parse(bytes.NewReader(raw))
}

// ParseContext parses raw and returns early with ctx.Err() once ctx is
// done. The abandoned parse finishes in the background and its result is
// dropped; it never touches the caller's state.
func (p *Parser) ParseContext(ctx context.Context, raw []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := p.ParseBytes(raw)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		p.logger.Warn().Err(ctx.Err()).Int("bytes", len(raw)).Msg("x12 parse abandoned")
		return Result{}, ctx.Err()
	}
}

// ParseBatch reads an 837 document from r and returns the assembled batch.
// Errors are *x12.FormatError, *NoClaimFoundError or *ParseError.
func (p *Parser) ParseBatch(r io.Reader) (batch *Batch, err error) {
	log := p.logger.With().Str("parse_id", uuid.New().String()).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			cause, ok := rec.(error)
			if !ok {
				cause = fmt.Errorf("%v", rec)
			}
			batch, err = nil, &ParseError{Err: cause}
			log.Error().Err(cause).Msg("x12 parse panicked")
		}
	}()

	env, err := x12.Read(r)
	if err != nil {
		log.Warn().Err(err).Msg("x12 envelope rejected")
		return nil, err
	}

	segs := env.Segments()
	log.Debug().
		Str("encoding", env.Encoding).
		Str("element_separator", fmt.Sprintf("%q", env.Delimiters.Element)).
		Str("segment_terminator", fmt.Sprintf("%q", env.Delimiters.Segment)).
		Bool("interchange", env.HasInterchange).
		Int("segments", len(segs)).
		Msg("x12 envelope detected")

	batch, err = Assemble(segs, env.Delimiters)
	if err != nil {
		var nc *NoClaimFoundError
		if errors.As(err, &nc) {
			log.Warn().
				Str("transaction_type", nc.TransactionType).
				Strs("segment_ids", nc.SegmentIDs).
				Msg("no claims in document")
		}
		return nil, err
	}

	log.Info().
		Str("transaction_type", batch.Transaction.Type).
		Str("control_number", batch.Transaction.ControlNumber).
		Int("claims", len(batch.Claims)).
		Msg("x12 claims parsed")

	return batch, nil
}
