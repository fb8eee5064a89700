package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// indexDoc is the Firestore document for the index metadata. Chunks live
// in a subcollection so each vector is stored as firestore.Vector32 on
// its own document.
type indexDoc struct {
	UserID       string                `firestore:"UserID"`
	DeviceID     string                `firestore:"DeviceID"`
	Dimension    int                   `firestore:"Dimension"`
	TrackedFiles []model.FileReference `firestore:"TrackedFiles"`
	ConceptGraph []model.ConceptLink   `firestore:"ConceptGraph"`
	CreatedAt    time.Time             `firestore:"CreatedAt"`
	UpdatedAt    time.Time             `firestore:"UpdatedAt"`
}

// chunkDoc is the Firestore document representation of model.EmbeddingChunk.
// Vector is stored as firestore.Vector32 so FindNearest vector search works.
type chunkDoc struct {
	ID          model.ChunkID      `firestore:"ID"`
	Vector      firestore.Vector32 `firestore:"Vector"`
	ContentHash string             `firestore:"ContentHash"`
	Source      model.ChunkSource  `firestore:"Source"`
	ChunkType   types.ChunkType    `firestore:"ChunkType"`
	EmbeddedAt  time.Time          `firestore:"EmbeddedAt"`
}

func toChunkDoc(c model.EmbeddingChunk) *chunkDoc {
	return &chunkDoc{
		ID:          c.ID,
		Vector:      firestore.Vector32(c.Vector),
		ContentHash: c.ContentHash,
		Source:      c.Source,
		ChunkType:   c.ChunkType,
		EmbeddedAt:  c.EmbeddedAt,
	}
}

func fromChunkDoc(d *chunkDoc) model.EmbeddingChunk {
	return model.EmbeddingChunk{
		ID:          d.ID,
		Vector:      []float32(d.Vector),
		ContentHash: d.ContentHash,
		Source:      d.Source,
		ChunkType:   d.ChunkType,
		EmbeddedAt:  d.EmbeddedAt,
	}
}

type indexRepository struct {
	client *firestore.Client
}

func newIndexRepository(client *firestore.Client) *indexRepository {
	return &indexRepository{
		client: client,
	}
}

// indexDocRef returns the per-device index document:
// users/{userID}/devices/{deviceID}
func (r *indexRepository) indexDocRef(userID, deviceID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).Collection("devices").Doc(deviceID)
}

func (r *indexRepository) chunksCollection(userID, deviceID string) *firestore.CollectionRef {
	return r.indexDocRef(userID, deviceID).Collection("chunks")
}

func (r *indexRepository) Get(ctx context.Context, userID, deviceID string) (*model.MemoryIndex, error) {
	doc, err := r.indexDocRef(userID, deviceID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "index not found",
				goerr.V("userID", userID), goerr.V("deviceID", deviceID))
		}
		return nil, goerr.Wrap(err, "failed to get index",
			goerr.V("userID", userID), goerr.V("deviceID", deviceID))
	}

	var d indexDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal index")
	}

	index := &model.MemoryIndex{
		UserID:       d.UserID,
		DeviceID:     d.DeviceID,
		Dimension:    d.Dimension,
		TrackedFiles: d.TrackedFiles,
		ConceptGraph: d.ConceptGraph,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}

	iter := r.chunksCollection(userID, deviceID).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunks")
		}

		var cd chunkDoc
		if err := doc.DataTo(&cd); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk")
		}
		index.Chunks = append(index.Chunks, fromChunkDoc(&cd))
	}

	return index, nil
}

func (r *indexRepository) Put(ctx context.Context, index *model.MemoryIndex) error {
	if err := index.Validate(); err != nil {
		return goerr.Wrap(err, "invalid index")
	}

	index.UpdatedAt = time.Now().UTC()
	d := &indexDoc{
		UserID:       index.UserID,
		DeviceID:     index.DeviceID,
		Dimension:    index.Dimension,
		TrackedFiles: index.TrackedFiles,
		ConceptGraph: index.ConceptGraph,
		CreatedAt:    index.CreatedAt,
		UpdatedAt:    index.UpdatedAt,
	}

	if _, err := r.indexDocRef(index.UserID, index.DeviceID).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to store index",
			goerr.V("userID", index.UserID), goerr.V("deviceID", index.DeviceID))
	}

	kept := make(map[model.ChunkID]bool, len(index.Chunks))
	bw := r.client.BulkWriter(ctx)
	for _, c := range index.Chunks {
		kept[c.ID] = true
		docRef := r.chunksCollection(index.UserID, index.DeviceID).Doc(string(c.ID))
		if _, err := bw.Set(docRef, toChunkDoc(c)); err != nil {
			return goerr.Wrap(err, "failed to enqueue chunk write", goerr.V("chunkID", c.ID))
		}
	}

	// Drop chunk documents that no longer exist in the index
	iter := r.chunksCollection(index.UserID, index.DeviceID).Select().Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to list stored chunks")
		}
		if !kept[model.ChunkID(doc.Ref.ID)] {
			if _, err := bw.Delete(doc.Ref); err != nil {
				return goerr.Wrap(err, "failed to enqueue chunk delete", goerr.V("chunkID", doc.Ref.ID))
			}
		}
	}

	bw.End()
	return nil
}
