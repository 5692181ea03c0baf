package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
)

// GenerateKey derives a stable cache key from data. Structured values (maps,
// slices, arrays, structs) are canonicalized as JSON; encoding/json writes
// map keys in sorted order, so logically identical maps produce identical
// keys regardless of insertion order. Other values hash their string form.
func GenerateKey(data interface{}) string {
	var raw []byte
	if isStructured(data) {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	if raw == nil {
		raw = []byte(fmt.Sprint(data))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func isStructured(data interface{}) bool {
	if data == nil {
		return false
	}
	switch reflect.TypeOf(data).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}
