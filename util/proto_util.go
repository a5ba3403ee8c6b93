package util

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts a json serializable value with object shape. Going
// through json normalizes numbers and typed maps that structpb rejects.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func FromStruct(s *structpb.Struct) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s.AsMap()
}
