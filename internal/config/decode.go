package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed profile.cue
var profileSchema string

func decodeYAML(data []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Profile{}, nil
		}
		return Profile{}, fmt.Errorf("decode yaml: %w", err)
	}
	return p, nil
}

// decodeCUE unifies the file with #Profile, so unknown fields and bad
// enum values fail before decoding.
func decodeCUE(filename string, data []byte) (Profile, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(profileSchema, cue.Filename("profile.cue"))
	if err := schema.Err(); err != nil {
		return Profile{}, fmt.Errorf("compile profile schema: %w", err)
	}
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Profile{}, fmt.Errorf("compile cue: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Profile")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Profile{}, fmt.Errorf("validate cue: %w", err)
	}
	var p Profile
	if err := unified.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode cue: %w", err)
	}
	return p, nil
}
