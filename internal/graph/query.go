package graph

import (
	"fmt"
	"strings"
)

// Expr is a Drive search expression. It serializes to Drive's query
// language with String and can be evaluated against a Node with Match,
// so in-memory stores answer the same queries as the API.
type Expr interface {
	String() string
	Match(n *Node) bool

	render(nested bool) string
}

// NameEq matches nodes whose name equals name exactly.
func NameEq(name string) Expr { return nameEq(name) }

// MimeEq matches nodes with the given MIME type.
func MimeEq(mimeType string) Expr { return mimeEq(mimeType) }

// InParents matches nodes that have parentID among their parents.
func InParents(parentID string) Expr { return inParents(parentID) }

// SharedWithMe matches nodes shared with the caller by someone else.
func SharedWithMe() Expr { return sharedWithMe{} }

// NotTrashed excludes nodes in the trash.
func NotTrashed() Expr { return notTrashed{} }

// And matches when every operand matches.
func And(exprs ...Expr) Expr { return and(exprs) }

// Or matches when at least one operand matches.
func Or(exprs ...Expr) Expr { return or(exprs) }

type (
	nameEq       string
	mimeEq       string
	inParents    string
	sharedWithMe struct{}
	notTrashed   struct{}
	and          []Expr
	or           []Expr
)

func (e nameEq) String() string     { return e.render(false) }
func (e nameEq) Match(n *Node) bool { return n.Name == string(e) }

func (e nameEq) render(bool) string {
	return fmt.Sprintf("name = '%s'", escapeQuery(string(e)))
}

func (e mimeEq) String() string     { return e.render(false) }
func (e mimeEq) Match(n *Node) bool { return n.MimeType == string(e) }

func (e mimeEq) render(bool) string {
	return fmt.Sprintf("mimeType = '%s'", escapeQuery(string(e)))
}

func (e inParents) String() string     { return e.render(false) }
func (e inParents) Match(n *Node) bool { return n.HasParent(string(e)) }

func (e inParents) render(bool) string {
	return fmt.Sprintf("'%s' in parents", escapeQuery(string(e)))
}

func (sharedWithMe) String() string     { return "sharedWithMe = true" }
func (sharedWithMe) Match(n *Node) bool { return n.SharedWithMe }
func (sharedWithMe) render(bool) string { return "sharedWithMe = true" }

func (notTrashed) String() string     { return "trashed = false" }
func (notTrashed) Match(n *Node) bool { return !n.Trashed }
func (notTrashed) render(bool) string { return "trashed = false" }

func (e and) String() string            { return e.render(false) }
func (e and) render(nested bool) string { return join(e, " and ", nested) }

func (e or) String() string     { return e.render(false) }
func (e or) render(bool) string { return join(e, " or ", true) }

func (e and) Match(n *Node) bool {
	for _, x := range e {
		if !x.Match(n) {
			return false
		}
	}

	return true
}

func (e or) Match(n *Node) bool {
	for _, x := range e {
		if x.Match(n) {
			return true
		}
	}

	return false
}

func join(exprs []Expr, sep string, paren bool) string {
	if len(exprs) == 1 {
		return exprs[0].render(paren)
	}

	parts := make([]string, len(exprs))
	for i, x := range exprs {
		parts[i] = x.render(true)
	}

	s := strings.Join(parts, sep)
	if paren && len(exprs) > 1 {
		return "(" + s + ")"
	}

	return s
}

// escapeQuery escapes a literal for a single-quoted Drive query string.
// Backslashes go first so the quote escapes are not doubled.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)

	return s
}
