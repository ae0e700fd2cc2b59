package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/whalekb/whalekb/internal/model"
	"github.com/whalekb/whalekb/internal/vecindex"
)

const sweepPageSize = 500

type ChunkFinder interface {
	FindByVectorIDs(ctx context.Context, vectorIDs []string) ([]model.Chunk, error)
}

// IndexSweepJob removes index entries whose chunk row no longer exists.
// Retrieval already drops such entries per query; the sweep keeps the index
// from accumulating them. Only backends that can list their ids are swept.
type IndexSweepJob struct {
	index  vecindex.Index
	chunks ChunkFinder
}

func NewIndexSweepJob(index vecindex.Index, chunks ChunkFinder) *IndexSweepJob {
	return &IndexSweepJob{index: index, chunks: chunks}
}

func (j *IndexSweepJob) Name() string {
	return "index_sweep"
}

func (j *IndexSweepJob) Run(ctx context.Context) error {
	lister, ok := j.index.(vecindex.Lister)
	if !ok {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	var removed int
	afterID := ""
	for {
		ids, err := lister.ListIDs(ctx, afterID, sweepPageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		afterID = ids[len(ids)-1]

		chunks, err := j.chunks.FindByVectorIDs(ctx, ids)
		if err != nil {
			return err
		}
		alive := make(map[string]struct{}, len(chunks))
		for _, chunk := range chunks {
			alive[chunk.VectorID] = struct{}{}
		}
		var stale []string
		for _, id := range ids {
			if _, ok := alive[id]; !ok {
				stale = append(stale, id)
			}
		}
		if len(stale) > 0 {
			if err := j.index.Delete(ctx, stale); err != nil {
				return err
			}
			removed += len(stale)
		}
		if len(ids) < sweepPageSize {
			break
		}
	}
	if removed > 0 {
		logger.Info("swept stale index entries", zap.Int("removed", removed))
	}
	return nil
}
