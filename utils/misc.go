package utils

import (
	"sort"

	"github.com/bytedance/sonic"
)

func ArrContains[T comparable](s []T, e T) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}

func KeysOfMap[M ~map[K]V, K comparable, V any](m M) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func SortedKeys[M ~map[string]V, V any](m M) []string {
	keys := KeysOfMap(m)
	sort.Strings(keys)
	return keys
}

const (
	JsonNumDefault = 0 // equal to JsonNumFloat
	JsonNumFloat   = 0 // parse number in json to float64
	JsonNumStr     = 1 // keep number in json as json.Number type
)

var sonicNumApi = sonic.Config{UseNumber: true}.Froze()

/*
Unmarshal decode json with sonic

numType: JsonNumDefault(JsonNumFloat), JsonNumStr
*/
func Unmarshal(data []byte, out interface{}, numType int) error {
	if numType == JsonNumStr {
		return sonicNumApi.Unmarshal(data, out)
	}
	return sonic.Unmarshal(data, out)
}

func UnmarshalString(text string, out interface{}, numType int) error {
	return Unmarshal([]byte(text), out, numType)
}
