package renderclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"cutroom/internal/render"
	"cutroom/internal/renderapi"
)

// TransportError reports a failure to complete an HTTP exchange: a network
// error, a non-success status, or an unreadable response body. The HTTP
// status code is preserved when one was received.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		body := strings.TrimSpace(e.Body)
		if body == "" {
			return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
		}
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: transport failure", e.Op)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports an RPC error envelope returned by the service, with
// code and message preserved.
type ProtocolError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// Is maps the service's not-found code onto render.ErrNotFound so the
// orchestrator can branch without importing wire details.
func (e *ProtocolError) Is(target error) bool {
	return target == render.ErrNotFound && e.Code == renderapi.CodeNotFound
}
