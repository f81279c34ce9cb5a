package openai

import (
	"iter"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// StreamChunkSize is the number of characters per content chunk.
const StreamChunkSize = 20

const finishReasonStop = "stop"

// NewCompletionID returns an OpenAI-style completion id.
func NewCompletionID() string {
	return "chatcmpl-" + uuid.New().String()
}

// EstimateTokens approximates a token count as ceil(characters / 4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// NewUsage estimates usage for a prompt/completion pair.
func NewUsage(prompt, completion string) *Usage {
	p, c := EstimateTokens(prompt), EstimateTokens(completion)
	return &Usage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}
}

// NewCompletion builds a non-streaming completion object.
func NewCompletion(model, prompt, text string) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		ID:      NewCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ResponseMessage{Role: "assistant", Content: text},
				FinishReason: finishReasonStop,
			},
		},
		Usage: NewUsage(prompt, text),
	}
}

// Slices yields text in consecutive pieces of at most size characters.
// Splitting is on rune boundaries.
func Slices(text string, size int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if size <= 0 {
			size = StreamChunkSize
		}
		for len(text) > 0 {
			end, count := 0, 0
			for end < len(text) && count < size {
				_, w := utf8.DecodeRuneInString(text[end:])
				end += w
				count++
			}
			if !yield(text[:end]) {
				return
			}
			text = text[end:]
		}
	}
}

// StreamChunks replays a complete result as a chunk sequence: one opening
// chunk carrying the assistant role, one chunk per content slice, and one
// closing chunk with the finish reason. The [DONE] sentinel is left to the writer.
func StreamChunks(model, text string) iter.Seq[*StreamChunk] {
	id := NewCompletionID()
	created := time.Now().Unix()
	chunk := func(delta Delta, finish *string) *StreamChunk {
		return &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []ChunkChoice{{Index: 0, Delta: delta, FinishReason: finish}},
		}
	}

	return func(yield func(*StreamChunk) bool) {
		if !yield(chunk(Delta{Role: "assistant"}, nil)) {
			return
		}
		for part := range Slices(text, StreamChunkSize) {
			if !yield(chunk(Delta{Content: part}, nil)) {
				return
			}
		}
		stop := finishReasonStop
		yield(chunk(Delta{}, &stop))
	}
}
