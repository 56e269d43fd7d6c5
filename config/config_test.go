package config

import (
	"github.com/stretchr/testify/assert"
	"reflect"
	"testing"
)

func TestNoZeroFields(t *testing.T) {
	cfg := Default()

	for _, field := range visit(newVar(*cfg), "Config", false) {
		assert.Fail(t, "zero-value field", field)
	}
}

func TestFill(t *testing.T) {
	partial := &Config{
		NET: NET{WorkerThreads: 4},
	}

	filled := Fill(partial)

	assert.Equal(t, 4, filled.NET.WorkerThreads)
	assert.Equal(t, Default().NET.ReadTimeout, filled.NET.ReadTimeout)
	assert.Equal(t, Default().Body.MaxSize, filled.Body.MaxSize)
}

func TestFillNil(t *testing.T) {
	assert.Equal(t, Default(), Fill(nil))
}

type variable struct {
	Type  reflect.Type
	Value reflect.Value
}

func newVar(a any) variable {
	return variable{reflect.TypeOf(a), reflect.ValueOf(a)}
}

func visit(a variable, name string, nullable bool) (fields []string) {
	if a.Type.Kind() == reflect.Struct {
		for field := range a.Value.NumField() {
			v1 := variable{a.Type.Field(field).Type, a.Value.Field(field)}
			fieldname := a.Type.Field(field).Name
			isNullable := a.Type.Field(field).Tag.Get("test") == "nullable"
			fields = append(fields, visit(v1, name+"."+fieldname, isNullable)...)
		}

		return fields
	}

	if a.Value.IsZero() && !nullable {
		return []string{name}
	}

	return nil
}
