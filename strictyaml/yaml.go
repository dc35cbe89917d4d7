// Package strictyaml decodes a single YAML document, rejecting keys that do
// not correspond to a field of the destination struct.
package strictyaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Unmarshal decodes exactly one YAML document from b into yamlObj. Unknown
// keys, an empty input and a second document are all errors.
//
// TODO(https://github.com/go-yaml/yaml/issues/639): Replace this function with
// yaml.Unmarshal once a more ergonomic way to set unmarshal options is added upstream.
func Unmarshal(b []byte, yamlObj interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)

	err := decoder.Decode(yamlObj)
	if errors.Is(err, io.EOF) {
		return errors.New("strictyaml: empty document")
	}
	if err != nil {
		return err
	}

	var extra yaml.Node
	err = decoder.Decode(&extra)
	if err == nil {
		return errors.New("strictyaml: more than one document")
	}
	if !errors.Is(err, io.EOF) {
		return fmt.Errorf("strictyaml: after first document: %w", err)
	}
	return nil
}
