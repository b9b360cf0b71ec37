package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleID accepts an identifier sent either as a JSON number or as a
// numeric string, as browser form values usually are.
type FlexibleID uint

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	if len(data) == 0 {
		*id = 0
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid id %q", data)
	}
	*id = FlexibleID(v)
	return nil
}
