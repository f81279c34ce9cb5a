package openai

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(role, content string) ChatMessage {
	raw, _ := json.Marshal(content)
	return ChatMessage{Role: role, Content: raw}
}

func TestMessageText(t *testing.T) {
	assert.Equal(t, "hello", MessageText(json.RawMessage(`"hello"`)))
	assert.Equal(t, "a\nb", MessageText(json.RawMessage(
		`[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"x"}},{"type":"text","text":"b"}]`)))
	assert.Equal(t, "", MessageText(json.RawMessage(`null`)))
	assert.Equal(t, "", MessageText(json.RawMessage(`42`)))
	assert.Equal(t, "", MessageText(nil))
}

func TestFlattenPrompt(t *testing.T) {
	messages := []ChatMessage{
		msg("system", "Be brief."),
		msg("user", "Hi"),
		msg("assistant", ""),
		msg("assistant", "Hello!"),
		msg("tool", `{"temp":21}`),
		{Role: "user", Content: json.RawMessage(`[{"type":"text","text":"line1"},{"type":"text","text":"line2"}]`)},
	}

	want := strings.Join([]string{
		"[System]: Be brief.",
		"[User]: Hi",
		"[Assistant]: Hello!",
		`[Tool Result]: {"temp":21}`,
		"[User]: line1\nline2",
	}, "\n\n")
	assert.Equal(t, want, FlattenPrompt(messages))
}

func TestFlattenPromptEmpty(t *testing.T) {
	assert.Equal(t, "", FlattenPrompt([]ChatMessage{msg("user", "")}))
}

func TestRoleTagUnknownRole(t *testing.T) {
	assert.Equal(t, "[Developer]", RoleTag("developer"))
}

func TestSessionKeySharedSystemPrompt(t *testing.T) {
	system := "You are a helpful assistant that answers questions about Go."

	a, ok := SessionKey([]ChatMessage{msg("system", system), msg("user", "first question")})
	require.True(t, ok)
	b, ok := SessionKey([]ChatMessage{msg("system", system), msg("user", "a different question")})
	require.True(t, ok)
	c, ok := SessionKey([]ChatMessage{msg("system", "You are a pirate."), msg("user", "first question")})
	require.True(t, ok)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	encoded := base64.StdEncoding.EncodeToString([]byte(system))
	assert.Equal(t, SessionKeyPrefix+encoded[:32], a)
}

func TestSessionKeyShortSystemPrompt(t *testing.T) {
	key, ok := SessionKey([]ChatMessage{msg("system", "hi")})
	require.True(t, ok)
	assert.Equal(t, SessionKeyPrefix+"aGk=", key)
}

func TestSessionKeyWithoutSystemMessage(t *testing.T) {
	_, ok := SessionKey([]ChatMessage{msg("user", "hello")})
	assert.False(t, ok)
}
