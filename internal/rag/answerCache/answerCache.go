package answerCache

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

// Cache stores answers keyed by their question embedding so semantically
// equivalent questions about the same document skip the model call.
type Cache interface {
	Lookup(ctx context.Context, documentID string, queryVector []float32) (string, bool, error)
	Store(ctx context.Context, documentID string, id string, vector []float32, answer string) error
}

var cacheCollectionName = "semantic-cache"

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantCache(ctx context.Context) Cache {
	once.Do(func() {
		logger = logger_i.NewLogger("AnswerCache")
		res := newClient(ctx)
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient(ctx context.Context) *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	err = createCollection(ctx, client, cacheCollectionName)
	if err != nil {
		logger.Error("could not create collection: ", "collectionName", cacheCollectionName, "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) Lookup(ctx context.Context, documentID string, queryVector []float32) (string, bool, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)

	searchResult, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: cacheCollectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		},
		Limit:       qdrant.PtrOf(uint64(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Cache Query failed", "error", err)
		return "", false, err
	}
	if len(searchResult) == 0 {
		return "", false, nil
	}

	loggr.Debug("Found cached answer", "semantic similarity score", searchResult[0].Score)
	if searchResult[0].Score < config.CacheSimilarityCutoff {
		return "", false, nil
	}

	loggr.Info("---------------cache hit---------------------")
	answer := searchResult[0].Payload["answer"].GetStringValue()
	return answer, true, nil
}

func (db *ClientHolder) Store(ctx context.Context, documentID string, id string, vector []float32, answer string) error {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)

	loggr.Debug("Saving answer to cache")
	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: cacheCollectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"answer":      answer,
					"document_id": documentID,
					"timestamp":   time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		loggr.Error("Saving answer to cache failed", "error", err)
	}
	return err
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
