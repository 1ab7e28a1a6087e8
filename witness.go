package hwprove

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
)

type WitnessEntry struct {
	Param NodeID
	Name  string
	Value *BVConst
}

type nameComparer struct{}

func (c *nameComparer) Compare(a, b interface{}) int {
	return strings.Compare(a.(string), b.(string))
}

// Witness is a parameter assignment produced by a disproof, ordered by
// parameter name.
type Witness struct {
	entries *immutable.SortedMap
	ids     map[NodeID]string
}

func newWitness() *Witness {
	return &Witness{
		entries: immutable.NewSortedMap(&nameComparer{}),
		ids:     map[NodeID]string{},
	}
}

func (w *Witness) set(param NodeID, name string, value *BVConst) {
	w.entries = w.entries.Set(name, WitnessEntry{Param: param, Name: name, Value: value})
	w.ids[param] = name
}

func (w *Witness) Len() int {
	return w.entries.Len()
}

// Get returns the value assigned to the parameter called name.
func (w *Witness) Get(name string) (*BVConst, bool) {
	v, ok := w.entries.Get(name)
	if !ok {
		return nil, false
	}
	return v.(WitnessEntry).Value.Copy(), true
}

func (w *Witness) GetParam(param NodeID) (*BVConst, bool) {
	name, ok := w.ids[param]
	if !ok {
		return nil, false
	}
	return w.Get(name)
}

func (w *Witness) Entries() []WitnessEntry {
	res := make([]WitnessEntry, 0, w.entries.Len())
	itr := w.entries.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		e := v.(WitnessEntry)
		res = append(res, WitnessEntry{Param: e.Param, Name: e.Name, Value: e.Value.Copy()})
	}
	return res
}

// Assignment returns the witness as evaluator input.
func (w *Witness) Assignment() map[string]*BVConst {
	res := make(map[string]*BVConst, w.entries.Len())
	for _, e := range w.Entries() {
		res[e.Name] = e.Value
	}
	return res
}

func (w *Witness) String() string {
	var b strings.Builder
	for _, e := range w.Entries() {
		fmt.Fprintf(&b, "%s: %s\n", e.Name, e.Value.Format())
	}
	return b.String()
}
