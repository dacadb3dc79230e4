// Package hujsonx contains github.com/tailscale/hujson extensions.
package hujsonx

import (
	"encoding/json"

	"github.com/tailscale/hujson"
)

// Unmarshal is like json.Unmarshal except that data may contain
// comments and trailing commas (i.e., the HuJSON format).
func Unmarshal(data []byte, v any) error {
	value, err := hujson.Parse(data)
	if err != nil {
		return err
	}
	value.Standardize()
	return json.Unmarshal(value.Pack(), v)
}
