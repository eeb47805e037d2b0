// Package knowledgeutils is the knowledge store utility package
package knowledgeutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/chunk"
	"github.com/forgelabs/crucible/pkg/embeddings"
	"github.com/forgelabs/crucible/pkg/knowledge"
	"github.com/forgelabs/crucible/pkg/knowledge/inmemory"
	"github.com/forgelabs/crucible/pkg/knowledge/sqlitevec"
)

type NewStoreOpts struct {
	ProviderType string
	DBPath       string
	Dimensions   uint
	Chunking     chunk.Config
	Embedder     embeddings.Embedder
	Logger       *zap.Logger
}

func NewStore(o *NewStoreOpts) (knowledge.Store, error) {
	switch o.ProviderType {
	case "memory":
		return inmemory.NewStore(inmemory.Config{
			Chunking: o.Chunking,
		}, o.Embedder, o.Logger), nil
	case "sqlite":
		return sqlitevec.NewStore(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
			Chunking:   o.Chunking,
		}, o.Embedder, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported knowledge store provider: %s", o.ProviderType)
	}
}
