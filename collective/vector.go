package collective

import (
	structpb "github.com/golang/protobuf/ptypes/struct"
	"golang.org/x/exp/constraints"
)

// addTo adds src into dst element wise.
func addTo[T constraints.Float](dst, src []T) {
	for i := range src {
		dst[i] += src[i]
	}
}

func clone[T constraints.Float](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// toList packs a vector into the wire message.
func toList[T constraints.Float](values []T) *structpb.ListValue {
	l := &structpb.ListValue{Values: make([]*structpb.Value, len(values))}
	for i, v := range values {
		l.Values[i] = &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: float64(v)}}
	}
	return l
}

func fromList(l *structpb.ListValue) []float64 {
	if l == nil {
		return nil
	}
	out := make([]float64, len(l.GetValues()))
	for i, v := range l.GetValues() {
		out[i] = v.GetNumberValue()
	}
	return out
}
