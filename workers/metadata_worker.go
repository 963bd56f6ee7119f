package workers

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/repository"
)

// backfillBatch bounds how many rows one QueueMissing call looks at.
const backfillBatch = 500

// Broadcaster receives metadata events; *realtime.Hub implements it.
type Broadcaster interface {
	Broadcast(event realtime.Event)
}

// MetadataJob asks for the dimensions and size of one stored photo.
type MetadataJob struct {
	PhotoID uint
}

// MetadataWorker fills width, height and file size of photos stored before
// those fields were captured at ingestion.
type MetadataWorker struct {
	jobs    chan MetadataJob
	repo    repository.PhotoMetadataRepository
	store   media.Store
	events  Broadcaster
	log     *zap.Logger
	wg      sync.WaitGroup
	stop    chan struct{}
	once    sync.Once
	pending cmap.ConcurrentMap[string, struct{}]
}

func NewMetadataWorker(repo repository.PhotoMetadataRepository, store media.Store, events Broadcaster, queueSize, numWorkers int, log *zap.Logger) *MetadataWorker {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	mw := &MetadataWorker{
		jobs:    make(chan MetadataJob, queueSize),
		repo:    repo,
		store:   store,
		events:  events,
		log:     log.Named("workers.metadata"),
		stop:    make(chan struct{}),
		pending: cmap.New[struct{}](),
	}
	mw.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go mw.worker(i)
	}
	mw.log.Info("started metadata workers", zap.Int("workers", numWorkers), zap.Int("queue_size", queueSize))
	return mw
}

func pendingKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (mw *MetadataWorker) worker(id int) {
	defer mw.wg.Done()
	for {
		select {
		case job := <-mw.jobs:
			if err := mw.process(job); err != nil {
				mw.log.Warn("metadata backfill failed", zap.Int("worker", id), zap.Uint("photo_id", job.PhotoID), zap.Error(err))
				mw.broadcast(job.PhotoID, 0, err)
			}
			mw.pending.Remove(pendingKey(job.PhotoID))
		case <-mw.stop:
			return
		}
	}
}

func (mw *MetadataWorker) process(job MetadataJob) error {
	photo, err := mw.repo.GetByID(job.PhotoID)
	if err != nil {
		return fmt.Errorf("load photo: %w", err)
	}
	if !photo.NeedsMetadata() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rc, err := mw.store.Open(ctx, photo.Image)
	if err != nil {
		return fmt.Errorf("open %s: %w", photo.Image, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", photo.Image, err)
	}

	meta := media.ReadMetadata(data)
	if err := mw.repo.UpdateMetadata(photo.ID, meta); err != nil {
		return err
	}
	mw.log.Debug("filled photo metadata", zap.Uint("photo_id", photo.ID), zap.Int64("file_size", *meta.FileSize))
	mw.broadcast(photo.ID, photo.AlbumID, nil)
	return nil
}

func (mw *MetadataWorker) broadcast(photoID, albumID uint, err error) {
	if mw.events == nil {
		return
	}
	e := realtime.Event{Type: realtime.EventMetadataFilled, Entity: "photo", ID: photoID, ParentID: albumID}
	if err != nil {
		e.Error = err.Error()
	}
	mw.events.Broadcast(e)
}

// QueueJob queues a photo unless it is already pending or the queue is full.
func (mw *MetadataWorker) QueueJob(job MetadataJob) bool {
	key := pendingKey(job.PhotoID)
	if !mw.pending.SetIfAbsent(key, struct{}{}) {
		return false
	}

	select {
	case mw.jobs <- job:
		return true
	default:
		mw.log.Warn("metadata queue full", zap.Uint("photo_id", job.PhotoID))
		mw.pending.Remove(key)
		return false
	}
}

// QueueMissing queues every photo still lacking dimensions or size and returns
// how many were queued.
func (mw *MetadataWorker) QueueMissing(ctx context.Context) (int, error) {
	photos, err := mw.repo.ListMissingMetadata(backfillBatch)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, p := range photos {
		if ctx.Err() != nil {
			break
		}
		if mw.QueueJob(MetadataJob{PhotoID: p.ID}) {
			queued++
		}
	}
	mw.log.Info("queued metadata backfill", zap.Int("candidates", len(photos)), zap.Int("queued", queued))
	return queued, nil
}

// Pending returns the number of queued or running jobs.
func (mw *MetadataWorker) Pending() int {
	return mw.pending.Count()
}

func (mw *MetadataWorker) Stop() {
	mw.once.Do(func() {
		mw.log.Info("stopping metadata workers")
		close(mw.stop)
		mw.wg.Wait()
	})
}
