package model_test

import (
	"testing"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

func TestIdentifier_UnmarshalJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want model.Identifier
	}{
		{name: "number", raw: `12`, want: "12"},
		{name: "digit string", raw: `"12"`, want: "12"},
		{name: "zero string is present", raw: `"0"`, want: "0"},
		{name: "zero", raw: `0`, want: ""},
		{name: "zero float", raw: `0.0`, want: ""},
		{name: "empty string", raw: `""`, want: ""},
		{name: "null", raw: `null`, want: ""},
		{name: "false", raw: `false`, want: ""},
		{name: "true", raw: `true`, want: "true"},
		{name: "empty array", raw: `[]`, want: ""},
		{name: "array", raw: `[1]`, want: "[1]"},
		{name: "empty object", raw: `{}`, want: ""},
		{name: "negative", raw: `-3`, want: "-3"},
		{name: "fraction", raw: `1.5`, want: "1.5"},
		{name: "word", raw: `"abc"`, want: "abc"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var req model.BorrowRequest
			err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(
				[]byte(`{"borrower_id":`+tt.raw+`}`), &req)
			require.NoError(t, err)
			require.Equal(t, tt.want, req.BorrowerID)
		})
	}
}

func TestIdentifier_Int64(t *testing.T) {
	t.Parallel()
	v, err := model.Identifier("42").Int64()
	require.NoError(t, err)
	require.Equal(t, int64(42), v)

	_, err = model.Identifier("99999999999999999999").Int64()
	require.Error(t, err)
}

func TestText_UnmarshalJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		want    model.Text
		wantErr bool
	}{
		{name: "string", raw: `"Dune"`, want: "Dune"},
		{name: "empty string", raw: `""`, want: ""},
		{name: "zero", raw: `0`, want: ""},
		{name: "false", raw: `false`, want: ""},
		{name: "null", raw: `null`, want: ""},
		{name: "empty array", raw: `[]`, want: ""},
		{name: "empty object", raw: `{}`, want: ""},
		{name: "number", raw: `7`, wantErr: true},
		{name: "true", raw: `true`, wantErr: true},
		{name: "array", raw: `["Dune"]`, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var req model.CreateBookRequest
			err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(
				[]byte(`{"title":`+tt.raw+`,"author":"Herbert"}`), &req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, req.Title)
			require.Equal(t, model.Text("Herbert"), req.Author)
		})
	}
}
