// serializer.go - JSON codec for echo responses and request bodies
package api

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// SonicSerializer implements echo.JSONSerializer on bytedance/sonic with
// encoding/json compatible behaviour.
type SonicSerializer struct {
	api sonic.API
}

// NewSonicSerializer creates a serializer using sonic.ConfigStd
func NewSonicSerializer() *SonicSerializer {
	return &SonicSerializer{api: sonic.ConfigStd}
}

// Serialize writes i as JSON to the response
func (s *SonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := s.api.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize reads the request body into i
func (s *SonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := s.api.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err)).SetInternal(err)
	}
	return nil
}

// mustJSON marshals v for a WebSocket payload, falling back to an empty object
func mustJSON(v interface{}) []byte {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
