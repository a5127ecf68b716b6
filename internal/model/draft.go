package model

import (
	"fmt"
	"strings"

	"mvdan.cc/xurls/v2"
)

// webURL matches a complete http(s) URL.
var webURL = mustStrict(`https?://`)

func mustStrict(scheme string) func(string) string {
	re, err := xurls.StrictMatchingScheme(scheme)
	if err != nil {
		panic(fmt.Sprintf("model: compile url pattern: %v", err))
	}
	return re.FindString
}

// NewStory is a submission draft. All fields are required.
type NewStory struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// ValidationError names the first draft field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Normalize trims surrounding whitespace from every field.
func (d NewStory) Normalize() NewStory {
	return NewStory{
		Title:  strings.TrimSpace(d.Title),
		Author: strings.TrimSpace(d.Author),
		URL:    strings.TrimSpace(d.URL),
	}
}

// Validate checks the draft in form order: author, title, url.
func (d NewStory) Validate() error {
	d = d.Normalize()
	switch {
	case d.Author == "":
		return &ValidationError{Field: "author", Reason: "is required"}
	case d.Title == "":
		return &ValidationError{Field: "title", Reason: "is required"}
	case d.URL == "":
		return &ValidationError{Field: "url", Reason: "is required"}
	case webURL(d.URL) != d.URL:
		return &ValidationError{Field: "url", Reason: "must be a single http(s) link"}
	}
	return nil
}
