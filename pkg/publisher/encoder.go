package publisher

import "github.com/Netflix-Skunkworks/spectatord/pkg/spectator"

const (
	opAdditive = 0
	opMax      = 10
)

// stringTable assigns dense small-integer ids to every unique string
// referenced in a batch (tag keys/values, common-tag keys/values, measurement
// names), in order of first appearance, so it can be written once up front
// and referenced by id from every measurement record.
type stringTable struct {
	ids    map[string]int
	values []string
}

func newStringTable() *stringTable {
	return &stringTable{ids: make(map[string]int)}
}

func (t *stringTable) id(s string) int {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := len(t.values)
	t.ids[s] = id
	t.values = append(t.values, s)
	return id
}

// EncodeBatch renders a Smile-encoded measurement batch. commonTags are
// applied to every measurement without being duplicated into each Id, per
// the wire format's "total_tag_count = measurement_tags + 1_for_name +
// common_tag_count" framing.
func EncodeBatch(measurements spectator.Measurements, commonTags spectator.Tags) []byte {
	table := newStringTable()
	nameKeyID := table.id("name")

	type commonPair struct{ k, v int }
	var common []commonPair
	commonTags.ForEach(func(k, v string) {
		common = append(common, commonPair{table.id(k), table.id(v)})
	})

	type tagPair struct{ k, v int }
	type record struct {
		tags    []tagPair
		nameVal int
		op      byte
		value   float64
	}

	records := make([]record, 0, len(measurements))
	for _, m := range measurements {
		var tags []tagPair
		m.Id.Tags().ForEach(func(k, v string) {
			tags = append(tags, tagPair{table.id(k), table.id(v)})
		})
		nameVal := table.id(m.Id.Name())
		op := byte(opAdditive)
		if m.Id.Tags().At("statistic") == "max" {
			op = opMax
		}
		records = append(records, record{tags: tags, nameVal: nameVal, op: op, value: m.Value})
	}

	w := NewSmileWriter()
	w.AppendInt(len(table.values))
	for _, s := range table.values {
		w.AppendString(s)
	}

	for _, rec := range records {
		totalTagCount := len(rec.tags) + 1 + len(common)
		w.AppendInt(totalTagCount)
		for _, c := range common {
			w.AppendInt(c.k)
			w.AppendInt(c.v)
		}
		for _, tg := range rec.tags {
			w.AppendInt(tg.k)
			w.AppendInt(tg.v)
		}
		w.AppendInt(nameKeyID)
		w.AppendInt(rec.nameVal)
		w.AppendRawByte(rec.op)
		w.AppendFloat64(rec.value)
	}

	return w.Bytes()
}
