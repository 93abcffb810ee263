// Package summarize turns a chat thread into a draft knowledge-base
// article using a text-generation model.
package summarize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoMessages is returned for a thread with nothing to summarize.
var ErrNoMessages = errors.New("no messages found in thread")

// Message is one message of a thread.
type Message struct {
	User string `json:"user,omitempty"`
	Text string `json:"text"`
	TS   string `json:"ts"`
}

// Thread is a conversation to summarize, with the metadata needed to link
// back to it.
type Thread struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name,omitempty"`
	ThreadTS    string    `json:"thread_ts"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Messages    []Message `json:"messages"`
}

// ReadThread decodes a JSON thread from r.
func ReadThread(r io.Reader) (*Thread, error) {
	var t Thread
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode thread: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.ChannelName == "" {
		t.ChannelName = t.ChannelID
	}
	return &t, nil
}

// Validate checks that the thread can be summarized and linked.
func (t *Thread) Validate() error {
	switch {
	case t.ChannelID == "":
		return errors.New("thread channel_id is required")
	case t.ThreadTS == "":
		return errors.New("thread thread_ts is required")
	case len(t.Messages) == 0:
		return ErrNoMessages
	}
	return nil
}

// Content is the text handed to the model: message texts separated by
// blank lines. Authors and timestamps are left out.
func (t *Thread) Content() string {
	texts := make([]string, len(t.Messages))
	for i, m := range t.Messages {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n\n")
}

// LastTS returns the timestamp of the newest message, or the thread
// timestamp when messages carry none.
func (t *Thread) LastTS() string {
	if n := len(t.Messages); n > 0 && t.Messages[n-1].TS != "" {
		return t.Messages[n-1].TS
	}
	return t.ThreadTS
}
