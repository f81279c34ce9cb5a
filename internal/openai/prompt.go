package openai

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode"
)

// SessionKeyPrefix prefixes keys derived from a system prompt.
const SessionKeyPrefix = "openai-"

// sessionKeyEncodedLen is the number of base64 characters kept in a key.
const sessionKeyEncodedLen = 32

var roleTags = map[string]string{
	"system":    "[System]",
	"user":      "[User]",
	"assistant": "[Assistant]",
	"tool":      "[Tool Result]",
}

// MessageText extracts the text of a message: the content string itself, or
// the newline-joined text parts of an array content. Anything else is empty.
func MessageText(content json.RawMessage) string {
	raw := bytes.TrimSpace(content)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var parts []ContentPart
		if err := json.Unmarshal(raw, &parts); err != nil {
			return ""
		}
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.Type == "text" {
				texts = append(texts, p.Text)
			}
		}
		return strings.Join(texts, "\n")
	}
	return ""
}

// RoleTag returns the prefix used for a role in the flattened prompt.
func RoleTag(role string) string {
	if tag, ok := roleTags[role]; ok {
		return tag
	}
	if role == "" {
		return "[User]"
	}
	r := []rune(role)
	r[0] = unicode.ToUpper(r[0])
	return "[" + string(r) + "]"
}

// FlattenPrompt renders the message array as one prompt: each non-empty
// message becomes "<tag>: <text>", separated by a blank line.
func FlattenPrompt(messages []ChatMessage) string {
	blocks := make([]string, 0, len(messages))
	for _, m := range messages {
		text := MessageText(m.Content)
		if text == "" {
			continue
		}
		blocks = append(blocks, RoleTag(m.Role)+": "+text)
	}
	return strings.Join(blocks, "\n\n")
}

// SystemPrompt returns the text of the first system message.
func SystemPrompt(messages []ChatMessage) (string, bool) {
	for _, m := range messages {
		if m.Role == "system" {
			return MessageText(m.Content), true
		}
	}
	return "", false
}

// SessionKey derives the session key shared by all requests carrying the
// same system prompt. ok is false when there is no system message.
func SessionKey(messages []ChatMessage) (key string, ok bool) {
	system, ok := SystemPrompt(messages)
	if !ok {
		return "", false
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(system))
	if len(encoded) > sessionKeyEncodedLen {
		encoded = encoded[:sessionKeyEncodedLen]
	}
	return SessionKeyPrefix + encoded, true
}
