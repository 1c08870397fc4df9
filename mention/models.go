// Package mention finds @mentions in free text and resolves them to users.
package mention

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a mention does not lead to any user.
var ErrNotFound = errors.New("user not found")

// A Candidate is a user a mention may refer to.
type Candidate struct {
	ID        string `json:"id"`
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
}

// DisplayName returns the full name of the candidate.
func (c Candidate) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// State tells how far a token got resolved.
type State string

const (
	// Pending tokens are resolved with a user search once activated.
	Pending State = "pending"
	// Resolved tokens carry the id of the user they refer to.
	Resolved State = "resolved"
	// Inert tokens are plain text; activating them reports ErrNotFound.
	Inert State = "inert"
)

// A Token is one @mention. Start and End are byte offsets into the parsed
// text, End is exclusive, and Raw includes the leading "@".
type Token struct {
	Raw         string `json:"raw"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	State       State  `json:"state"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Name returns the mentioned name without the "@".
func (t Token) Name() string {
	return strings.TrimPrefix(t.Raw, "@")
}

// Navigable reports whether the token should render as a link.
func (t Token) Navigable() bool {
	return t.State != Inert
}

// A Segment is a piece of parsed text, either literal text or a mention.
type Segment struct {
	Text    string `json:"text"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Mention *Token `json:"mention,omitempty"`
}

// Viewer identifies the user looking at the text.
type Viewer struct {
	ID       string
	FullName string
}

// Resolution is where activating a mention leads.
type Resolution struct {
	UserID   string `json:"user_id"`
	IsSelf   bool   `json:"is_self"`
	Route    string `json:"route"`
	Strategy string `json:"strategy,omitempty"`
}
