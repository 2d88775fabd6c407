package app

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/errors"
)

// ResultSet is the serialized form of the keys or the values returned by
// a query. Each entry is stored as a repeated field 1.
type ResultSet struct {
	Results [][]byte
}

func (r *ResultSet) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.RepeatedBytes(1, r.Results)
	return e.Result()
}

func (r *ResultSet) Unmarshal(raw []byte) error {
	r.Results = nil
	return codec.Decode(raw, func(f codec.Field) error {
		if f.Num() != 1 {
			return nil
		}
		b, err := f.Bytes()
		r.Results = append(r.Results, b)
		return err
	})
}

// ResultsFromKeys collects the keys of the models in order.
func ResultsFromKeys(models []quorum.Model) *ResultSet {
	return collect(models, func(m quorum.Model) []byte { return m.Key })
}

// ResultsFromValues collects the values of the models in order.
func ResultsFromValues(models []quorum.Model) *ResultSet {
	return collect(models, func(m quorum.Model) []byte { return m.Value })
}

func collect(models []quorum.Model, field func(quorum.Model) []byte) *ResultSet {
	set := &ResultSet{Results: make([][]byte, 0, len(models))}
	for _, m := range models {
		set.Results = append(set.Results, field(m))
	}
	return set
}

// JoinResults pairs keys with values, reversing ResultsFromKeys and
// ResultsFromValues.
func JoinResults(keys, values *ResultSet) ([]quorum.Model, error) {
	if len(keys.Results) != len(values.Results) {
		return nil, errors.Wrapf(errors.ErrState, "%d keys and %d values", len(keys.Results), len(values.Results))
	}
	models := make([]quorum.Model, 0, len(keys.Results))
	for i, k := range keys.Results {
		models = append(models, quorum.Model{Key: k, Value: values.Results[i]})
	}
	return models, nil
}
