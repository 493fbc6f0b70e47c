// Package types holds the value types shared between the guest handler,
// the owner session, and the database layer. None of them carry behavior
// beyond (de)serialization; they exist so a UserID is never accidentally
// used where a RequestID is expected.
package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

// UserID is the stable external identity of an owner or guest.
type UserID int64

// SessionToken is an opaque bearer credential minted by the identity store.
type SessionToken uuid.UUID

func (t SessionToken) String() string {
	return uuid.UUID(t).String()
}

// ParseSessionToken parses the bearer value presented in an Authorization header.
func ParseSessionToken(s string) (SessionToken, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken(id), nil
}

// RequestID correlates one guest request with its eventual owner response.
type RequestID uuid.UUID

func (id RequestID) String() string {
	return uuid.UUID(id).String()
}

func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

func ParseRequestID(s string) (RequestID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(id), nil
}

// RequestNotify is the payload published on the "owner" channel. It carries
// everything the CLI needs to drive git-http-backend except the request
// body, which stays in the request store to keep pub/sub payloads small.
type RequestNotify struct {
	To            UserID    `json:"to"`
	ID            RequestID `json:"id"`
	PathInfo      string    `json:"path_info"`
	RequestMethod string    `json:"request_method"`
	QueryString   *string   `json:"query_string,omitempty"`
	ContentLength *string   `json:"content_length,omitempty"`
	ContentType   *string   `json:"content_type,omitempty"`
}

// GitRequest is the server→client websocket frame. PathInfo never carries a
// leading '/'; the CLI is responsible for prefixing one.
type GitRequest struct {
	ID              RequestID `json:"id"`
	PathInfo        string    `json:"path_info"`
	RequiredMethod  string    `json:"required_method"`
	QueryString     *string   `json:"query_string,omitempty"`
	ContentLength   *string   `json:"content_length,omitempty"`
	ContentType     *string   `json:"content_type,omitempty"`
	Body            []byte    `json:"body"`
}

// ToGitRequest merges a RequestNotify with the request body loaded from the
// request store, producing the message actually sent over the websocket.
func (n RequestNotify) ToGitRequest(body []byte) GitRequest {
	return GitRequest{
		ID:             n.ID,
		PathInfo:       n.PathInfo,
		RequiredMethod: n.RequestMethod,
		QueryString:    n.QueryString,
		ContentLength:  n.ContentLength,
		ContentType:    n.ContentType,
		Body:           body,
	}
}

// GitResponse is the client→server websocket frame: the raw concatenation of
// CGI headers, a blank line, and body, exactly as git-http-backend wrote it.
type GitResponse struct {
	ID     RequestID `json:"id"`
	Output []byte    `json:"output"`
}

// MarshalJSON/UnmarshalJSON for GitRequest/GitResponse encode their byte
// slices as JSON number arrays ("body":[1,2,3]) rather than encoding/json's
// default base64 string, matching the wire format the CLI's serde_json
// produces for a plain Vec<u8> (no serde_bytes tag).

func bytesToInts(b []byte) []int {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return ints
}

func intsToBytes(ints []int) []byte {
	b := make([]byte, len(ints))
	for i, v := range ints {
		b[i] = byte(v)
	}
	return b
}

func (r GitRequest) MarshalJSON() ([]byte, error) {
	type alias GitRequest
	return json.Marshal(struct {
		alias
		Body []int `json:"body"`
	}{alias: alias(r), Body: bytesToInts(r.Body)})
}

func (r *GitRequest) UnmarshalJSON(data []byte) error {
	type alias GitRequest
	var aux struct {
		alias
		Body []int `json:"body"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = GitRequest(aux.alias)
	r.Body = intsToBytes(aux.Body)
	return nil
}

func (r GitResponse) MarshalJSON() ([]byte, error) {
	type alias GitResponse
	return json.Marshal(struct {
		alias
		Output []int `json:"output"`
	}{alias: alias(r), Output: bytesToInts(r.Output)})
}

func (r *GitResponse) UnmarshalJSON(data []byte) error {
	type alias GitResponse
	var aux struct {
		alias
		Output []int `json:"output"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = GitResponse(aux.alias)
	r.Output = intsToBytes(aux.Output)
	return nil
}

// MarshalJSON/UnmarshalJSON for UUID-based types delegate to uuid.UUID so
// they serialize as standard UUID strings, not byte arrays.

func (id RequestID) MarshalJSON() ([]byte, error) {
	return json.Marshal(uuid.UUID(id).String())
}

func (id *RequestID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*id = RequestID(parsed)
	return nil
}

func (t SessionToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(uuid.UUID(t).String())
}

func (t *SessionToken) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*t = SessionToken(parsed)
	return nil
}
