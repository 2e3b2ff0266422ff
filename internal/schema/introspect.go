package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// Introspector reads the live table structure. It never caches: schema can
// change between calls.
type Introspector struct {
	gw types.Gateway
}

// NewIntrospector returns an Introspector reading through gw.
func NewIntrospector(gw types.Gateway) *Introspector {
	return &Introspector{gw: gw}
}

// ListTables returns every table whose name starts with prefix, mapped to
// its columns and their native types.
func (i *Introspector) ListTables(ctx context.Context, prefix string) (types.TableMetadata, error) {
	all, err := i.gw.IntrospectSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspecting schema: %w", err)
	}
	out := make(types.TableMetadata)
	for name, cols := range all {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		cp := make(map[string]string, len(cols))
		for c, typ := range cols {
			cp[c] = typ
		}
		out[name] = cp
	}
	return out, nil
}
