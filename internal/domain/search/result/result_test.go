package result

import (
	"encoding/json"
	"testing"
)

func TestRow_SetKeepsOrder(t *testing.T) {
	r := NewRow()
	r.Set("name", "a")
	r.Set("Sum_price", 10.0)
	r.Set("name", "b")

	if got := r.Names(); len(got) != 2 || got[0] != "name" || got[1] != "Sum_price" {
		t.Errorf("Names() = %v", got)
	}
	if v, _ := r.Get("name"); v != "b" {
		t.Errorf("Get(name) = %v", v)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
}

func TestRow_CloneIsIndependent(t *testing.T) {
	r := NewRow()
	r.Set("a", 1)
	c := r.Clone()
	c.Set("a", 2)
	c.Set("b", 3)

	if v, _ := r.Get("a"); v != 1 {
		t.Errorf("original a = %v", v)
	}
	if r.Len() != 1 {
		t.Errorf("original Len() = %d", r.Len())
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	r := NewRow()
	r.Set("z", 1)
	r.Set("a", "x")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"z":1,"a":"x"}` {
		t.Errorf("json = %s", data)
	}
}

func TestRow_Map(t *testing.T) {
	r := NewRow()
	r.Set("k", "v")
	m := r.Map()
	m["k"] = "changed"
	if v, _ := r.Get("k"); v != "v" {
		t.Error("Map() must return a copy")
	}
}
