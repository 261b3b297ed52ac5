// Package models holds the static model catalog served on /v1/models.
package models

import "github.com/MingriLingran/yuanbao-chat/pkg/types"

const owner = "yuanbao"

// Catalog is an immutable list of advertised models.
type Catalog struct {
	models []types.Model
}

// NewCatalog copies ids into a catalog owned by yuanbao.
func NewCatalog(ids ...string) Catalog {
	out := make([]types.Model, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Model{ID: id, Object: "model", OwnedBy: owner})
	}
	return Catalog{models: out}
}

// Default is the catalog the server advertises.
func Default() Catalog {
	return NewCatalog("deepseek-r1", "deepseek-v3", "hunyuan", "hunyuan-t1")
}

// List returns the /v1/models body.
func (c Catalog) List() types.ModelList {
	return types.ModelList{Object: "list", Data: append([]types.Model(nil), c.models...)}
}

// IDs returns the advertised model ids in order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c.models))
	for i, m := range c.models {
		ids[i] = m.ID
	}
	return ids
}

// Has reports whether id is advertised.
func (c Catalog) Has(id string) bool {
	for _, m := range c.models {
		if m.ID == id {
			return true
		}
	}
	return false
}
