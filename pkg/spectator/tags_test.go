package spectator

import "testing"

func TestTagsAddAndAt(t *testing.T) {
	var tags Tags
	tags.Add("b", "2")
	tags.Add("a", "1")
	tags.Add("c", "3")

	if got := tags.At("a"); got != "1" {
		t.Errorf("At(a) = %q, want 1", got)
	}
	if got := tags.At("missing"); got != "" {
		t.Errorf("At(missing) = %q, want empty", got)
	}
	if tags.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tags.Len())
	}

	var keys []string
	tags.ForEach(func(k, v string) { keys = append(keys, k) })
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("ForEach order[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestTagsAddOverwrites(t *testing.T) {
	var tags Tags
	tags.Add("k", "v1")
	tags.Add("k", "v2")
	if tags.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (overwrite, not append)", tags.Len())
	}
	if got := tags.At("k"); got != "v2" {
		t.Errorf("At(k) = %q, want v2", got)
	}
}

func TestTagsEqualAndClone(t *testing.T) {
	var a Tags
	a.Add("x", "1")
	a.Add("y", "2")

	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone should be equal to original")
	}
	b.Add("z", "3")
	if a.Equal(b) {
		t.Fatal("mutating clone should not affect original")
	}
	if a.Len() != 2 {
		t.Fatal("original should not have gained the new tag")
	}
}

func TestTagsAddAll(t *testing.T) {
	var a Tags
	a.Add("k", "orig")
	var extra Tags
	extra.Add("k", "override")
	extra.Add("new", "val")

	a.AddAll(extra)
	if got := a.At("k"); got != "override" {
		t.Errorf("At(k) = %q, want override (other's values win)", got)
	}
	if got := a.At("new"); got != "val" {
		t.Errorf("At(new) = %q, want val", got)
	}
}

func TestTagsHashCommutative(t *testing.T) {
	var a, b Tags
	a.Add("x", "1")
	a.Add("y", "2")
	b.Add("y", "2")
	b.Add("x", "1")

	if a.Hash() != b.Hash() {
		t.Error("tag set hash should not depend on insertion order")
	}
}
