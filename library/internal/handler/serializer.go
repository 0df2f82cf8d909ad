package handler

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonSerializer is echo's JSON codec backed by jsoniter.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsonAPI.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := jsonAPI.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.Wrap(err, "decode json").Error()).SetInternal(err)
	}
	return nil
}
