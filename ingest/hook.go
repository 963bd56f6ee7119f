// Package ingest runs the compression step of every image write. Services call
// Hook.Apply inside their transaction, before the row is written, so the
// single commit persists the compressed result.
package ingest

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/config"
	"github.com/camden-git/portfoliobackend/media"
)

// ErrPriorNotFound is returned by a PriorLoader when the row being updated no
// longer exists.
var ErrPriorNotFound = errors.New("prior value not found")

// ErrConcurrentDeletion is returned by Apply when the row vanished between
// the start of the write and the prior-value lookup and the missing-prior
// policy is MissingPriorFail.
var ErrConcurrentDeletion = errors.New("entity was deleted concurrently")

type CodecErrorPolicy string

const (
	// CodecErrorAbort fails the write with the codec error.
	CodecErrorAbort CodecErrorPolicy = config.CodecErrorAbort
	// CodecErrorKeepOriginal stores the validated upload bytes unmodified.
	CodecErrorKeepOriginal CodecErrorPolicy = config.CodecErrorKeepOriginal
)

type MissingPriorPolicy string

const (
	MissingPriorSkip MissingPriorPolicy = config.MissingPriorSkip
	MissingPriorFail MissingPriorPolicy = config.MissingPriorFail
)

// Outcome records which branch of the hook ran.
type Outcome string

const (
	OutcomeCompressed          Outcome = "compressed"
	OutcomeUnchanged           Outcome = "unchanged"
	OutcomeSkippedMissingPrior Outcome = "skipped_missing_prior"
	OutcomeKeptOriginal        Outcome = "kept_original"
)

// PriorLoader returns the stored path of the row being updated.
type PriorLoader func() (string, error)

// Request describes one in-flight entity write.
type Request struct {
	Kind       media.EntityKind
	Exists     bool
	LoadPrior  PriorLoader // only consulted when Exists
	Attachment media.Attachment
}

// Result is what the write path persists. Data, Filename and ContentType are
// set only when the attachment is a fresh upload.
type Result struct {
	Outcome     Outcome
	Data        []byte
	Filename    string
	ContentType string
	Metadata    media.Metadata
	PriorPath   string
}

type Hook struct {
	codec          media.Codec
	policies       media.PolicyTable
	onCodecError   CodecErrorPolicy
	onMissingPrior MissingPriorPolicy
	log            *zap.Logger
}

func NewHook(codec media.Codec, policies media.PolicyTable, onCodecError CodecErrorPolicy, onMissingPrior MissingPriorPolicy, log *zap.Logger) *Hook {
	if onCodecError == "" {
		onCodecError = CodecErrorAbort
	}
	if onMissingPrior == "" {
		onMissingPrior = MissingPriorSkip
	}
	return &Hook{
		codec:          codec,
		policies:       policies,
		onCodecError:   onCodecError,
		onMissingPrior: onMissingPrior,
		log:            log.Named("ingest"),
	}
}

// Apply compresses a fresh upload with the policy of its kind. A stored
// reference is never recompressed, whether or not it matches the prior value.
func (h *Hook) Apply(req Request) (Result, error) {
	var res Result

	if req.Exists && req.LoadPrior != nil {
		prior, err := req.LoadPrior()
		switch {
		case errors.Is(err, ErrPriorNotFound):
			if h.onMissingPrior == MissingPriorFail {
				return Result{}, ErrConcurrentDeletion
			}
			res.Outcome = OutcomeSkippedMissingPrior
			h.log.Warn("prior value missing, compression skipped", zap.String("kind", string(req.Kind)))
			if req.Attachment.IsFresh() {
				h.passThrough(&res, req.Attachment.Upload)
			}
			return res, nil
		case err != nil:
			return Result{}, fmt.Errorf("failed to load prior value: %w", err)
		}
		res.PriorPath = prior
	}

	if !req.Attachment.IsFresh() {
		res.Outcome = OutcomeUnchanged
		return res, nil
	}

	policy, err := h.policies.For(req.Kind)
	if err != nil {
		return Result{}, err
	}

	upload := req.Attachment.Upload
	original := media.ReadMetadata(upload.Data)
	enc, err := h.codec.Compress(upload.Data, upload.Filename, policy.Quality, policy.MaxWidth, policy.MaxHeight)
	if err != nil {
		var codecErr *media.CodecError
		if errors.As(err, &codecErr) && h.onCodecError == CodecErrorKeepOriginal {
			h.log.Warn("codec failed, keeping original bytes",
				zap.String("kind", string(req.Kind)), zap.String("filename", upload.Filename), zap.Error(err))
			res.Outcome = OutcomeKeptOriginal
			h.passThrough(&res, upload)
			return res, nil
		}
		return Result{}, err
	}

	res.Outcome = OutcomeCompressed
	res.Data = enc.Data
	res.Filename = enc.Filename
	res.ContentType = enc.ContentType
	res.Metadata = original.WithEncoded(enc)
	h.log.Debug("compressed upload",
		zap.String("kind", string(req.Kind)),
		zap.String("filename", upload.Filename),
		zap.Int("original_bytes", len(upload.Data)),
		zap.Int64("stored_bytes", enc.Size),
		zap.Int("width", enc.Width),
		zap.Int("height", enc.Height))
	return res, nil
}

func (h *Hook) passThrough(res *Result, upload *media.Upload) {
	res.Data = upload.Data
	res.Filename = upload.Filename
	res.ContentType = media.ContentTypeFor(upload.Filename)
	res.Metadata = media.ReadMetadata(upload.Data)
}
