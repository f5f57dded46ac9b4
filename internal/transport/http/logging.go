package http

import (
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
	redacted           = "redacted"
)

// Credentials and reset links must never reach the logs. Any field whose name
// contains one of these fragments is replaced.
var sensitiveKeyFragments = []string{"password", "token", "secret", "authorization"}

type requestLogLine struct {
	Time      string `json:"time"`
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id"`
	RemoteIP  string `json:"remote_ip"`
	LatencyMS int64  `json:"latency_ms"`
	Request   struct {
		Method string      `json:"method"`
		URI    string      `json:"uri"`
		Body   interface{} `json:"body,omitempty"`
	} `json:"request"`
	Response struct {
		Status int         `json:"status"`
		Body   interface{} `json:"body,omitempty"`
		Error  string      `json:"error,omitempty"`
	} `json:"response"`
}

func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			line := requestLogLine{
				Time:      v.StartTime.UTC().Format(time.RFC3339),
				UserID:    "anonymous",
				RemoteIP:  v.RemoteIP,
				LatencyMS: v.Latency.Milliseconds(),
				RequestID: v.RequestID,
			}
			if claims, ok := CurrentClaims(c); ok {
				line.UserID = claims.UserID.String()
			}
			line.Request.Method = v.Method
			line.Request.URI = redactQuery(v.URI)
			line.Request.Body = c.Get(requestBodyLogKey)
			line.Response.Status = v.Status
			line.Response.Body = c.Get(responseBodyLogKey)
			if v.Error != nil {
				line.Response.Error = v.Error.Error()
			}

			buf, err := json.Marshal(line)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if summary := sanitizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
		if summary := sanitizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != nil {
			c.Set(responseBodyLogKey, summary)
		}
	}))
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func sanitizeBody(body []byte, contentType string) interface{} {
	if len(body) == 0 {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(contentType))

	if strings.HasPrefix(lowered, "application/json") || json.Valid(body) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err == nil {
			return limitJSONSize(sanitizeJSON(data))
		}
	}

	if strings.HasPrefix(lowered, "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil && len(values) > 0 {
			fields := make(map[string]interface{}, len(values))
			for key, vals := range values {
				if isSensitiveKey(key) {
					fields[key] = redacted
					continue
				}
				fields[key] = clampString(strings.Join(vals, ","))
			}
			return limitJSONSize(fields)
		}
	}

	if containsBinaryBytes(body) {
		return "binary"
	}
	text := string(body)
	if isSensitiveKey(text) {
		return redacted
	}
	return clampString(text)
}

func sanitizeJSON(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			if isSensitiveKey(key) {
				result[key] = redacted
				continue
			}
			result[key] = sanitizeJSON(val)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = sanitizeJSON(item)
		}
		return result
	case string:
		if containsBinaryBytes([]byte(v)) {
			return "binary"
		}
		return clampString(v)
	default:
		return v
	}
}

// redactQuery hides sensitive query parameters such as ?token= in reset links.
func redactQuery(uri string) string {
	path, rawQuery, ok := strings.Cut(uri, "?")
	if !ok || rawQuery == "" {
		return uri
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path
	}
	changed := false
	for key := range values {
		if isSensitiveKey(key) {
			values.Set(key, redacted)
			changed = true
		}
	}
	if !changed {
		return uri
	}
	return path + "?" + values.Encode()
}

func limitJSONSize(value interface{}) interface{} {
	buf, err := json.Marshal(value)
	if err != nil || len(buf) <= maxLoggedBody {
		return value
	}
	return map[string]interface{}{"_truncated": true, "_bytes": len(buf)}
}

func containsBinaryBytes(data []byte) bool {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return true
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return true
		}
		data = data[size:]
	}
	return false
}

func clampString(value string) string {
	if len(value) <= maxLoggedBody {
		return value
	}
	truncated := value[:maxLoggedBody]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "...(truncated)"
}
