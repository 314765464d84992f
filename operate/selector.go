package operate

import (
	"github.com/samber/lo"

	"go.viam.com/chartscene/scene"
)

// Id list spellings of RemoveAll.
const (
	RemoveAllWildcard = "removeAll"
	AllWildcard       = "all"
)

// Selector picks data groups of a type, either all of them or those with the listed ids.
type Selector struct {
	all bool
	ids []string
}

// RemoveAll selects every data group of a type.
var RemoveAll = Selector{all: true}

// IDs selects data groups by caller id.
func IDs(ids ...string) Selector {
	return Selector{ids: ids}
}

// ParseSelector turns an id list into a selector. An empty list or one containing
// RemoveAllWildcard or AllWildcard selects everything.
func ParseSelector(ids []string) Selector {
	if len(ids) == 0 || lo.Contains(ids, RemoveAllWildcard) || lo.Contains(ids, AllWildcard) {
		return RemoveAll
	}
	return IDs(ids...)
}

// All reports whether the selector matches every id.
func (sel Selector) All() bool {
	return sel.all
}

func (sel Selector) matcher(dataType string) func(scene.Node) bool {
	set := lo.SliceToMap(sel.ids, func(id string) (string, struct{}) { return id, struct{}{} })
	return func(n scene.Node) bool {
		ud := n.UserData()
		if ud.Type != dataType {
			return false
		}
		if sel.all {
			return true
		}
		_, ok := set[ud.ID]
		return ok
	}
}
