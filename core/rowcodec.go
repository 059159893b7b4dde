package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// DecodeRow decodes a remote row into the struct pointed to by `out`, using `mapstructure` tags.
// Timestamps may arrive as time.Time or RFC 3339 strings, and JSON columns as raw strings.
func DecodeRow(row Row, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			jsonStringHook,
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "creating row decoder")
	}
	if err := dec.Decode(map[string]interface{}(row)); err != nil {
		return errors.Wrap(err, "decoding row")
	}
	return nil
}

// jsonStringHook unmarshals JSON text into slice and map targets.
func jsonStringHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || (to.Kind() != reflect.Slice && to.Kind() != reflect.Map) {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if s == "" || s == "null" {
		return nil, nil
	}
	var out interface{}
	if err := sonic.UnmarshalString(s, &out); err != nil {
		return nil, errors.Wrap(err, "decoding JSON column")
	}
	return out, nil
}
