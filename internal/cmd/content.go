package cmd

import (
	"encoding/json"
	"errors"
)

// jsonContent is a pflag.Value holding raw JSON message content.
type jsonContent struct {
	into *any
	raw  string
}

func (c *jsonContent) String() string { return c.raw }

func (c *jsonContent) Set(s string) error {
	if !json.Valid([]byte(s)) {
		return errors.New("content must be valid JSON")
	}
	c.raw = s
	*c.into = json.RawMessage(s)
	return nil
}

func (c *jsonContent) Type() string { return "json" }
