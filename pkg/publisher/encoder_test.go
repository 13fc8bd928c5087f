package publisher

import (
	"testing"

	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

func TestEncodeBatchProducesNonEmptyPayload(t *testing.T) {
	id := spectator.NewId("requests", spectator.NewTags(map[string]string{"status": "200"}))
	ms := spectator.Measurements{{Id: id, Value: 42}}
	common := spectator.NewTags(map[string]string{"nf.app": "spectatord"})

	out := EncodeBatch(ms, common)
	if len(out) == 0 {
		t.Fatal("EncodeBatch returned empty payload")
	}
	if out[0] != ':' || out[1] != ')' {
		t.Fatalf("payload does not start with the Smile header, got %v", out[:2])
	}
}

func TestEncodeBatchDedupesStringTable(t *testing.T) {
	id1 := spectator.NewId("requests", spectator.NewTags(map[string]string{"status": "200"}))
	id2 := spectator.NewId("requests", spectator.NewTags(map[string]string{"status": "500"}))
	ms := spectator.Measurements{
		{Id: id1, Value: 1},
		{Id: id2, Value: 2},
	}

	table := newStringTable()
	nameID1 := table.id("requests")
	nameID2 := table.id("requests")
	if nameID1 != nameID2 {
		t.Fatal("stringTable.id should return the same id for a repeated string")
	}

	out := EncodeBatch(ms, spectator.Tags{})
	if len(out) == 0 {
		t.Fatal("EncodeBatch returned empty payload")
	}
}

func TestEncodeBatchEmptyMeasurements(t *testing.T) {
	out := EncodeBatch(nil, spectator.Tags{})
	if len(out) == 0 {
		t.Fatal("EncodeBatch should still emit header/array framing for an empty batch")
	}
}
