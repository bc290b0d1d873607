package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"learnhub/pkg/respond"
)

var curlies = strings.NewReplacer("{", "[", "}", "]")

// Sanitize drops operator-looking keys (leading "$" or containing ".") from JSON
// bodies and query strings and turns curly braces in string values into brackets.
func Sanitize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			r.URL.RawQuery = sanitizeQuery(r.URL.Query()).Encode()
		}
		if r.Body != nil && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			raw, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				respond.Fail(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if len(bytes.TrimSpace(raw)) > 0 {
				var v interface{}
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.UseNumber()
				if err := dec.Decode(&v); err != nil {
					respond.Fail(w, http.StatusBadRequest, "invalid request body")
					return
				}
				if raw, err = json.Marshal(SanitizeValue(v)); err != nil {
					respond.Fail(w, http.StatusBadRequest, "invalid request body")
					return
				}
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))
			r.ContentLength = int64(len(raw))
		}
		next.ServeHTTP(w, r)
	})
}

func SanitizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return curlies.Replace(t)
	case []interface{}:
		for i := range t {
			t[i] = SanitizeValue(t[i])
		}
		return t
	case map[string]interface{}:
		for k, val := range t {
			if forbiddenKey(k) {
				delete(t, k)
				continue
			}
			t[k] = SanitizeValue(val)
		}
		return t
	default:
		return v
	}
}

func sanitizeQuery(q url.Values) url.Values {
	for k, vals := range q {
		if forbiddenKey(k) {
			delete(q, k)
			continue
		}
		for i := range vals {
			vals[i] = curlies.Replace(vals[i])
		}
	}
	return q
}

func forbiddenKey(k string) bool {
	return strings.HasPrefix(k, "$") || strings.Contains(k, ".")
}
