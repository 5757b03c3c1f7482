package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/vector"
	"github.com/engramhq/engram/pkg/vector/chroma"
	"github.com/engramhq/engram/pkg/vector/qdrant"
	"github.com/engramhq/engram/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	TargetURL    string
	Host         string
	Port         int
	Collection   string
	DBPath       string
	Dimensions   uint
	Logger       *zap.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.Collection,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(ctx, qdrant.Config{
			Host:           o.Host,
			Port:           o.Port,
			CollectionName: o.Collection,
			Dimensions:     uint64(o.Dimensions),
		}, o.Logger)
	case "sqlite-vec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
