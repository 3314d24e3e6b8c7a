package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultMaxBodyLog = 10000

var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"api-key":       true,
	"x-api-key":     true,
	"x-auth-token":  true,
	"cookie":        true,
	"set-cookie":    true,
}

var sensitiveKeys = []string{
	"api_key", "apikey", "api-key",
	"password", "secret", "token",
	"authorization", "auth",
}

// HTTPLogger logs chat API traffic at debug level
type HTTPLogger struct {
	logger      *Logger
	maxBodySize int
}

// NewHTTPLogger creates a new HTTP logger
func NewHTTPLogger(logger *Logger) *HTTPLogger {
	if logger == nil {
		logger = DefaultLogger
	}
	return &HTTPLogger{
		logger:      logger,
		maxBodySize: defaultMaxBodyLog,
	}
}

// SetMaxBodySize sets the maximum body size to log (in bytes)
func (h *HTTPLogger) SetMaxBodySize(size int) {
	h.maxBodySize = size
}

// LogRequest logs an outgoing request with sensitive headers and JSON keys redacted
func (h *HTTPLogger) LogRequest(req *http.Request, body []byte) {
	fields := Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": redactHeaders(req.Header),
	}
	if len(body) > 0 {
		fields["body"] = h.bodyField(body, true)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("HTTP Request", fields)
}

// LogResponse logs a completed, non-streaming response
func (h *HTTPLogger) LogResponse(resp *http.Response, body []byte, duration time.Duration) {
	fields := Fields{
		"status":      resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
	}
	if len(body) > 0 {
		fields["body"] = h.bodyField(body, false)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("HTTP Response", fields)
}

// LogError logs a transport failure
func (h *HTTPLogger) LogError(err error, req *http.Request) {
	h.logger.Error("HTTP Error", err, Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})
}

func (h *HTTPLogger) bodyField(body []byte, redact bool) interface{} {
	var parsed interface{}
	if json.Valid(body) && json.Unmarshal(body, &parsed) == nil {
		if redact {
			return redactSensitiveFields(parsed)
		}
		return parsed
	}
	return truncateBody(body, h.maxBodySize)
}

// Transport wraps an http.RoundTripper and logs every exchange through an HTTPLogger.
// Streaming responses are logged once the body is drained or closed.
type Transport struct {
	wrapped http.RoundTripper
	logger  *HTTPLogger
	logBody bool
}

// NewLoggingRoundTripper creates a new logging round tripper
func NewLoggingRoundTripper(wrapped http.RoundTripper, logger *HTTPLogger, logBody bool) *Transport {
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	return &Transport{
		wrapped: wrapped,
		logger:  logger,
		logBody: logBody,
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if t.logBody && req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}
	t.logger.LogRequest(req, reqBody)

	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		t.logger.LogError(err, req)
		return nil, err
	}

	if isStreamingResponse(resp) {
		t.logger.logger.Debug("HTTP Stream Started", Fields{"status": resp.StatusCode})
		resp.Body = &streamBody{ReadCloser: resp.Body, logger: t.logger.logger, start: start}
		return resp, nil
	}

	var respBody []byte
	if t.logBody {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}
	t.logger.LogResponse(resp, respBody, time.Since(start))
	return resp, nil
}

// streamBody counts bytes and reads of a server-sent event stream
type streamBody struct {
	io.ReadCloser
	logger *Logger
	start  time.Time

	once   sync.Once
	bytes  int
	chunks int
}

func (s *streamBody) Read(p []byte) (int, error) {
	n, err := s.ReadCloser.Read(p)
	if n > 0 {
		s.bytes += n
		s.chunks++
	}
	if err == io.EOF {
		s.finish()
	}
	return n, err
}

func (s *streamBody) Close() error {
	s.finish()
	return s.ReadCloser.Close()
}

func (s *streamBody) finish() {
	s.once.Do(func() {
		s.logger.Debug("HTTP Stream Ended", Fields{
			"duration_ms": time.Since(s.start).Milliseconds(),
			"total_bytes": s.bytes,
			"chunk_count": s.chunks,
		})
	})
}

func redactHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, v := range h {
		if isSensitiveHeader(k) {
			headers[k] = "[REDACTED]"
		} else if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}

func isSensitiveHeader(name string) bool {
	return sensitiveHeaders[strings.ToLower(name)]
}

func truncateBody(body []byte, maxSize int) string {
	if len(body) <= maxSize {
		return string(body)
	}
	return string(body[:maxSize]) + "...[truncated]"
}

func isStreamingResponse(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return strings.Contains(contentType, "text/event-stream") ||
		strings.Contains(contentType, "application/x-ndjson")
}

// redactSensitiveFields walks decoded JSON and masks values under credential-like keys
func redactSensitiveFields(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			if isSensitiveKey(k) {
				result[k] = "[REDACTED]"
			} else {
				result[k] = redactSensitiveFields(val)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = redactSensitiveFields(item)
		}
		return result
	default:
		return data
	}
}

func isSensitiveKey(k string) bool {
	keyLower := strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if strings.Contains(keyLower, s) {
			return true
		}
	}
	return false
}
