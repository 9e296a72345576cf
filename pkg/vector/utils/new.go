package vectorutils

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/echolab/echotext/pkg/dotdir"
	"github.com/echolab/echotext/pkg/vector"
	"github.com/echolab/echotext/pkg/vector/sqlitevec"
)

type NewDriverOpts struct {
	ProviderType string
	DBPath       string
	Dimensions   uint
	Logger       *zap.Logger
}

func NewDriver(o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// ResolvePath returns the vector database path. An explicit path wins,
// otherwise the database lives in the dot directory as vectors.sqlite.
func ResolvePath(overrideDir, explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}

	target, err := dotdir.NewManager().Target(overrideDir)
	if err != nil {
		return "", fmt.Errorf("resolving vector store path: %w", err)
	}
	return filepath.Join(target, "vectors.sqlite"), nil
}
