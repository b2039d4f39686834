package statestore

import "encoding/json"

func decodeMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return make(map[string]any), nil
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func encodeMetadata(meta map[string]any) ([]byte, error) {
	return json.Marshal(meta)
}
