package repository

import (
	"context"
	"crypto/tls"
	"fmt"
	"sort"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/tkao/creatorlens/internal/domain"
)

const (
	defaultVectorDimension = 1024
)

// chunkNamespace makes point ids a pure function of the chunk key, so
// re-indexing a video overwrites its points instead of duplicating them.
var chunkNamespace = uuid.MustParse("7a1c9f52-3e4b-4d8a-9c6e-5b2f8d0a1e37")

// QdrantConnectionConfig holds configuration for Qdrant connection
type QdrantConnectionConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS          bool   // Explicitly enable TLS without API Key
	VectorDimension int
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// ChunkIndex stores and searches transcript chunk vectors in Qdrant.
type ChunkIndex struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
}

// NewChunkIndex creates a Qdrant-backed chunk index.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key)
func NewChunkIndex(cfg *QdrantConnectionConfig) (*ChunkIndex, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption

	// TLS is enabled if APIKey is set or UseTLS is explicitly true
	useTLS := cfg.UseTLS || cfg.APIKey != ""

	if useTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
		creds := credentials.NewTLS(tlsConfig)
		opts = append(opts, grpc.WithTransportCredentials(creds))

		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &ChunkIndex{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: vectorDimension,
	}, nil
}

// Close closes the gRPC connection
func (r *ChunkIndex) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist. If it exists
// with a different vector size the index was built by a different embedding
// model and must be rebuilt, so this fails loudly instead of proceeding.
func (r *ChunkIndex) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(r.vectorDimension) {
				return fmt.Errorf("collection %s has vector size %d, expected %d: reindex required", r.collectionName, size, r.vectorDimension)
			}
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(128),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}

	config := info.GetConfig()
	if config == nil {
		return 0, false
	}

	params := config.GetParams()
	if params == nil {
		return 0, false
	}

	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}

	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}

	if paramsMap := vectors.GetParamsMap(); paramsMap != nil {
		for _, vectorParams := range paramsMap.GetMap() {
			if vectorParams == nil {
				continue
			}
			if size := vectorParams.GetSize(); size > 0 {
				return size, true
			}
		}
	}

	return 0, false
}

// pointID derives the Qdrant point id from the chunk's stable key.
func pointID(c *domain.Chunk) string {
	return uuid.NewSHA1(chunkNamespace, []byte(c.Key())).String()
}

// UpsertChunks writes chunk vectors with their metadata snapshot. Vectors and
// chunks must be parallel slices.
func (r *ChunkIndex) UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		points = append(points, &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(c)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: chunkPayload(c),
		})
	}

	_, err := r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	return nil
}

func chunkPayload(c *domain.Chunk) map[string]*pb.Value {
	return map[string]*pb.Value{
		"video_id":         {Kind: &pb.Value_StringValue{StringValue: c.VideoID}},
		"channel_id":       {Kind: &pb.Value_StringValue{StringValue: c.ChannelID}},
		"sequence":         {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.Sequence)}},
		"char_start":       {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.CharStart)}},
		"char_end":         {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.CharEnd)}},
		"time_start":       {Kind: &pb.Value_DoubleValue{DoubleValue: c.TimeStart}},
		"time_end":         {Kind: &pb.Value_DoubleValue{DoubleValue: c.TimeEnd}},
		"text":             {Kind: &pb.Value_StringValue{StringValue: c.Text}},
		"title":            {Kind: &pb.Value_StringValue{StringValue: c.Title}},
		"view_count":       {Kind: &pb.Value_IntegerValue{IntegerValue: c.ViewCount}},
		"like_count":       {Kind: &pb.Value_IntegerValue{IntegerValue: c.LikeCount}},
		"duration_seconds": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.DurationSeconds)}},
		"published_at":     {Kind: &pb.Value_IntegerValue{IntegerValue: c.PublishedAtUnix}},
	}
}

// ChunkFilters defines optional filters for chunk search.
type ChunkFilters struct {
	ChannelID string
	VideoID   string
}

// Search performs a vector similarity search over indexed chunks.
func (r *ChunkIndex) Search(ctx context.Context, vector []float32, topK int, filters *ChunkFilters) ([]domain.ScoredChunk, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}

	if filters != nil {
		req.Filter = buildFilter(filters)
	}

	resp, err := r.pointsClient.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]domain.ScoredChunk, len(resp.Result))
	for i, scored := range resp.Result {
		results[i] = domain.ScoredChunk{
			Chunk: parseChunkPayload(scored.Payload),
			Score: scored.Score,
		}
	}
	sortByScoreRecency(results)

	return results, nil
}

// sortByScoreRecency orders results by descending score, breaking score ties
// in favor of the more recently published video.
func sortByScoreRecency(results []domain.ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PublishedAtUnix > results[j].PublishedAtUnix
	})
}

func buildFilter(filters *ChunkFilters) *pb.Filter {
	var conditions []*pb.Condition

	if filters.ChannelID != "" {
		conditions = append(conditions, keywordCondition("channel_id", filters.ChannelID))
	}
	if filters.VideoID != "" {
		conditions = append(conditions, keywordCondition("video_id", filters.VideoID))
	}

	if len(conditions) == 0 {
		return nil
	}

	return &pb.Filter{Must: conditions}
}

func keywordCondition(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func parseChunkPayload(payload map[string]*pb.Value) domain.Chunk {
	c := domain.Chunk{}
	if payload == nil {
		return c
	}

	if v, ok := payload["video_id"]; ok {
		c.VideoID = v.GetStringValue()
	}
	if v, ok := payload["channel_id"]; ok {
		c.ChannelID = v.GetStringValue()
	}
	if v, ok := payload["sequence"]; ok {
		c.Sequence = int(v.GetIntegerValue())
	}
	if v, ok := payload["char_start"]; ok {
		c.CharStart = int(v.GetIntegerValue())
	}
	if v, ok := payload["char_end"]; ok {
		c.CharEnd = int(v.GetIntegerValue())
	}
	if v, ok := payload["time_start"]; ok {
		c.TimeStart = v.GetDoubleValue()
	}
	if v, ok := payload["time_end"]; ok {
		c.TimeEnd = v.GetDoubleValue()
	}
	if v, ok := payload["text"]; ok {
		c.Text = v.GetStringValue()
	}
	if v, ok := payload["title"]; ok {
		c.Title = v.GetStringValue()
	}
	if v, ok := payload["view_count"]; ok {
		c.ViewCount = v.GetIntegerValue()
	}
	if v, ok := payload["like_count"]; ok {
		c.LikeCount = v.GetIntegerValue()
	}
	if v, ok := payload["duration_seconds"]; ok {
		c.DurationSeconds = int(v.GetIntegerValue())
	}
	if v, ok := payload["published_at"]; ok {
		c.PublishedAtUnix = v.GetIntegerValue()
	}

	return c
}

// DeleteByVideo removes every point belonging to a video. Used before
// re-indexing so a shorter transcript cannot leave stale trailing chunks.
func (r *ChunkIndex) DeleteByVideo(ctx context.Context, videoID string) error {
	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{keywordCondition("video_id", videoID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for video %s: %w", videoID, err)
	}

	return nil
}
