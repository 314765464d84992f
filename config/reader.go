package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Read loads options from a JSON file. Environment variables referenced as ${VAR} are expanded
// before parsing.
func Read(filePath string) (*Options, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", filePath)
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader parses and validates JSON options. `originalPath` is only used in error messages.
func FromReader(originalPath string, r io.Reader) (*Options, error) {
	var opts Options
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&opts); err != nil {
		return nil, errors.Wrapf(err, "cannot parse options %q", originalPath)
	}
	if err := opts.Validate(originalPath); err != nil {
		return nil, err
	}
	return &opts, nil
}

// FromMap decodes options from a generic map, e.g. one embedded in a larger document.
func FromMap(attributes map[string]any) (*Options, error) {
	var opts Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "decoding options")
	}
	if err := opts.Validate("options"); err != nil {
		return nil, err
	}
	return &opts, nil
}

// DataSet maps data type labels to the data set for them, as read from a data file.
type DataSet map[string]any

// ReadData loads a JSON object of `{"<type>": <data>}` from a file, expanding ${VAR} references.
func ReadData(filePath string) (DataSet, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", filePath)
	}
	var data DataSet
	if err := json.Unmarshal(buf, &data); err != nil {
		return nil, errors.Wrapf(err, "cannot parse data %q", filePath)
	}
	return data, nil
}
