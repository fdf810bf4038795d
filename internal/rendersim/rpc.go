package rendersim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cutroom/internal/logging"
	"cutroom/internal/renderapi"
)

const maxRequestBytes = 32 << 20

// rpcError carries a JSON-RPC error code through handler returns.
type rpcError struct {
	code    int
	message string
}

func (e *rpcError) Error() string { return e.message }

func errInvalidParams(format string, args ...any) *rpcError {
	return &rpcError{code: renderapi.CodeInvalidParams, message: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...any) *rpcError {
	return &rpcError{code: renderapi.CodeNotFound, message: fmt.Sprintf(format, args...)}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeRPCError(w, 0, renderapi.CodeParseError, "read request body")
		return
	}

	var req renderapi.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, 0, renderapi.CodeParseError, "malformed JSON-RPC request")
		return
	}
	if req.JSONRPC != renderapi.Version {
		writeRPCError(w, req.ID, renderapi.CodeInvalidRequest, "jsonrpc must be "+renderapi.Version)
		return
	}
	if req.Method == "" {
		writeRPCError(w, req.ID, renderapi.CodeInvalidRequest, "method is required")
		return
	}

	result, err := s.dispatch(req.Method, req.Params)
	if err != nil {
		var rpcErr *rpcError
		if errors.As(err, &rpcErr) {
			writeRPCError(w, req.ID, rpcErr.code, rpcErr.message)
			return
		}
		s.logger.Error("rpc handler failed",
			logging.String(logging.FieldMethod, req.Method),
			logging.Error(err),
		)
		writeRPCError(w, req.ID, renderapi.CodeInternalError, "internal error")
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) dispatch(method string, params json.RawMessage) (any, error) {
	switch method {
	case renderapi.MethodCompositionCreate, renderapi.MethodCompositionUpdate:
		return s.handleCompositionPut(params)
	case renderapi.MethodCompositionGet:
		return s.handleCompositionGet(params)
	case renderapi.MethodCompositionDelete:
		return s.handleCompositionDelete(params)
	case renderapi.MethodCompositionList:
		return renderapi.CompositionListResult{Compositions: s.registry.list()}, nil
	case renderapi.MethodRenderStart:
		return s.handleRenderStart(params)
	case renderapi.MethodRenderStatus:
		return s.handleRenderStatus(params)
	case renderapi.MethodRenderCancel:
		return s.handleRenderCancel(params)
	case renderapi.MethodRenderPreview:
		return s.handleRenderPreview(params)
	case renderapi.MethodIntentParse:
		return s.handleIntentParse(params)
	default:
		return nil, &rpcError{code: renderapi.CodeMethodNotFound, message: "unknown method " + method}
	}
}

func (s *Server) handleCompositionPut(params json.RawMessage) (any, error) {
	var p renderapi.CompositionCreateParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Document.Composition.ID) == "" {
		return nil, errInvalidParams("document.composition.id is required")
	}
	s.registry.put(p.Document)
	s.logger.Info("composition stored",
		logging.String(logging.FieldCompositionID, p.Document.Composition.ID),
		logging.Int("tracks", len(p.Document.Tracks)),
	)
	return renderapi.CompositionResult{Document: p.Document}, nil
}

func (s *Server) handleCompositionGet(params json.RawMessage) (any, error) {
	var p renderapi.CompositionIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.CompositionID == "" {
		return nil, errInvalidParams("compositionId is required")
	}
	doc, ok := s.registry.get(p.CompositionID)
	if !ok {
		return nil, errNotFound("composition %s not found", p.CompositionID)
	}
	return renderapi.CompositionResult{Document: doc}, nil
}

func (s *Server) handleCompositionDelete(params json.RawMessage) (any, error) {
	var p renderapi.CompositionIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.CompositionID == "" {
		return nil, errInvalidParams("compositionId is required")
	}
	if !s.registry.delete(p.CompositionID) {
		return nil, errNotFound("composition %s not found", p.CompositionID)
	}
	return renderapi.DeletedResult{Deleted: true}, nil
}

func (s *Server) handleRenderStart(params json.RawMessage) (any, error) {
	var p renderapi.RenderStartParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.CompositionID == "" {
		return nil, errInvalidParams("compositionId is required")
	}
	opts := p.Options.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, errInvalidParams("%s", err.Error())
	}
	doc, ok := s.registry.get(p.CompositionID)
	if !ok {
		return nil, errNotFound("composition %s not found", p.CompositionID)
	}
	job := s.engine.start(doc.Composition, opts)
	return renderapi.RenderJobResult{Job: job}, nil
}

func (s *Server) handleRenderStatus(params json.RawMessage) (any, error) {
	var p renderapi.JobIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.JobID == "" {
		return nil, errInvalidParams("jobId is required")
	}
	job, ok := s.engine.status(p.JobID)
	if !ok {
		return nil, errNotFound("job %s not found", p.JobID)
	}
	return renderapi.RenderJobResult{Job: job}, nil
}

func (s *Server) handleRenderCancel(params json.RawMessage) (any, error) {
	var p renderapi.JobIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.JobID == "" {
		return nil, errInvalidParams("jobId is required")
	}
	if _, ok := s.engine.status(p.JobID); !ok {
		return nil, errNotFound("job %s not found", p.JobID)
	}
	// Cancelling an already-terminal job acknowledges with cancelled=false.
	return renderapi.RenderCancelResult{Cancelled: s.engine.cancelJob(p.JobID)}, nil
}

func (s *Server) handleRenderPreview(params json.RawMessage) (any, error) {
	var p renderapi.RenderPreviewParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.CompositionID == "" {
		return nil, errInvalidParams("compositionId is required")
	}
	if p.Frame < 0 {
		return nil, errInvalidParams("frame must not be negative")
	}
	doc, ok := s.registry.get(p.CompositionID)
	if !ok {
		return nil, errNotFound("composition %s not found", p.CompositionID)
	}
	result, err := buildPreview(doc, p.Scale)
	if err != nil {
		return nil, &rpcError{code: renderapi.CodeRenderFailed, message: err.Error()}
	}
	return result, nil
}

func (s *Server) handleIntentParse(params json.RawMessage) (any, error) {
	var p renderapi.IntentParseParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Text) == "" {
		return nil, errInvalidParams("text is required")
	}
	doc, explanation := parseIntent(p.Text)
	return renderapi.IntentParseResult{Document: doc, Explanation: explanation}, nil
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errInvalidParams("params are required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidParams("malformed params: %s", err.Error())
	}
	return nil
}

func writeResult(w http.ResponseWriter, id int64, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		writeRPCError(w, id, renderapi.CodeInternalError, "encode result")
		return
	}
	writeEnvelope(w, renderapi.Response{JSONRPC: renderapi.Version, Result: payload, ID: id})
}

func writeRPCError(w http.ResponseWriter, id int64, code int, message string) {
	writeEnvelope(w, renderapi.Response{
		JSONRPC: renderapi.Version,
		Error:   &renderapi.ErrorObject{Code: code, Message: message},
		ID:      id,
	})
}

// writeEnvelope always answers 200; failures live in the JSON-RPC error
// object, not the HTTP status.
func writeEnvelope(w http.ResponseWriter, resp renderapi.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
