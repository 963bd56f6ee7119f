// Package services implements the write paths of the portfolio. Every write
// that carries an image runs validate, order, ingest, store and commit in that
// order inside one transaction; files written for a failed transaction are
// removed and files replaced by a committed one are removed after the commit.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/cache"
	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/repository"
)

var (
	ErrNotFound      = repository.ErrNotFound
	ErrConflict      = errors.New("conflicting value")
	ErrCategoryInUse = errors.New("category still has albums")
)

// Broadcaster receives change events; *realtime.Hub implements it.
type Broadcaster interface {
	Broadcast(event realtime.Event)
}

// Deps are the collaborators shared by every service.
type Deps struct {
	DB     *gorm.DB
	Store  media.Store
	Hook   *ingest.Hook
	Cache  cache.Cache
	Events Broadcaster
	Log    *zap.Logger
}

type base struct {
	Deps
}

func newBase(d Deps) base {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return base{Deps: d}
}

func (b base) publish(ctx context.Context, event realtime.Event) {
	b.Cache.Purge(ctx)
	if b.Events != nil {
		b.Events.Broadcast(event)
	}
}

// write runs fn in a transaction and settles the attachment files afterwards.
func (b base) write(ctx context.Context, fn func(tx *gorm.DB, files *fileSet) error) error {
	files := &fileSet{store: b.Store, log: b.Log}
	err := b.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, files)
	})
	if err != nil {
		files.discardWritten(ctx)
		return mapError(err)
	}
	files.removeObsolete(ctx)
	return nil
}

// fileSet tracks attachments written during a transaction and attachments
// that become unreferenced once it commits.
type fileSet struct {
	store    media.Store
	log      *zap.Logger
	written  []string
	obsolete []string
}

// save stores the ingested bytes at the deterministic path of the entity.
func (f *fileSet) save(ctx context.Context, kind media.EntityKind, slug string, order int, res ingest.Result) (string, error) {
	target, err := media.AttachmentPath(kind, slug, order, res.Filename)
	if err != nil {
		return "", err
	}
	saved, err := f.store.Save(ctx, target, res.Data, res.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store %s attachment: %w", kind, err)
	}
	f.written = append(f.written, saved)
	return saved, nil
}

// dropAfterCommit schedules a stored file for removal once the row change
// that stopped referencing it has committed.
func (f *fileSet) dropAfterCommit(paths ...string) {
	for _, p := range paths {
		if p != "" {
			f.obsolete = append(f.obsolete, p)
		}
	}
}

func (f *fileSet) discardWritten(ctx context.Context) {
	for _, p := range f.written {
		if err := f.store.Delete(ctx, p); err != nil {
			f.log.Warn("failed to remove attachment of rolled back write", zap.String("path", p), zap.Error(err))
		}
	}
}

func (f *fileSet) removeObsolete(ctx context.Context) {
	for _, p := range f.obsolete {
		if err := f.store.Delete(ctx, p); err != nil {
			f.log.Warn("failed to remove obsolete attachment", zap.String("path", p), zap.Error(err))
		}
	}
}

func mapError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// priorLoader adapts a repository path lookup to the ingest hook contract.
func priorLoader(lookup func() (string, error)) ingest.PriorLoader {
	return func() (string, error) {
		p, err := lookup()
		if errors.Is(err, repository.ErrNotFound) {
			return "", ingest.ErrPriorNotFound
		}
		return p, err
	}
}

func validationErr(field, msg string) error {
	return &media.ValidationError{Field: field, Message: msg}
}
