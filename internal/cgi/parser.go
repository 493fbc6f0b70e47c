// Package cgi converts the raw stdout of git-http-backend (CGI-style
// headers, a blank line, then the body) into a structured HTTP response.
// Grounded on original_source/src/route/git.rs's parse_headers /
// header_end_index, reimplemented idiomatically rather than transliterated.
package cgi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rybkr/gitphantom/internal/apperr"
)

// Response is the structured result of parsing a git-http-backend reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

const separator = "\r\n\r\n"

// Parse splits output into CGI headers and body at the first blank line,
// parses a "Status: NNN reason" header into an HTTP status code (defaulting
// to 200 OK when absent), and copies every other header verbatim,
// preserving repeated header names.
func Parse(output []byte) (*Response, error) {
	idx := strings.Index(string(output), separator)
	if idx < 0 {
		return nil, apperr.New(apperr.KindFailedParseGitResponse)
	}

	headerRegion := string(output[:idx])
	body := output[idx+len(separator):]

	resp := &Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       body,
	}

	if headerRegion == "" {
		return resp, nil
	}

	for _, line := range strings.Split(headerRegion, "\r\n") {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			// Malformed header line; discard per spec.md §4.7.
			continue
		}

		if strings.EqualFold(name, "Status") {
			code, ok := parseStatus(value)
			if !ok {
				return nil, apperr.New(apperr.KindFailedParseGitResponse)
			}
			resp.StatusCode = code
			continue
		}

		if !validHeaderName(name) {
			return nil, apperr.New(apperr.KindFailedParseGitResponse)
		}
		resp.Header.Add(name, value)
	}

	return resp, nil
}

// parseStatus accepts "NNN Reason Phrase" or bare "NNN" (no reason phrase
// is an accepted edge case per spec.md §4.7).
func parseStatus(value string) (int, bool) {
	codeStr, _, _ := strings.Cut(value, " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil || code < 100 || code > 599 {
		return 0, false
	}
	return code, true
}

func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r == ':' || r > '~' {
			return false
		}
	}
	return true
}
