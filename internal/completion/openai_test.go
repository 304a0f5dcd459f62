package completion

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-chat/contextd/internal/turn"
)

func scoredText(role turn.Role, content string) turn.ScoredTurn {
	return turn.ScoredTurn{Turn: turn.Turn{
		ID:        uuid.New(),
		UserID:    "u1",
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}}
}

func TestNewOpenAIClient_Defaults(t *testing.T) {
	c := NewOpenAIClient(Config{APIKey: "k"})

	assert.Equal(t, openai.GPT4VisionPreview, c.cfg.Model)
	assert.Equal(t, 4096, c.cfg.MaxTokens)
}

func TestMessages_PlainTextRoles(t *testing.T) {
	actx := turn.AssembledContext{Turns: []turn.ScoredTurn{
		scoredText(turn.RoleUser, "hello"),
		scoredText(turn.RoleAssistant, "hi there"),
	}}

	msgs := Messages(actx)
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[1].Role)
	assert.Empty(t, msgs[1].MultiContent)
}

func TestMessages_ImageBecomesDataURL(t *testing.T) {
	st := scoredText(turn.RoleUser, "look at this")
	st.Attachments = []turn.ImageRef{{
		Hash:     "abc123",
		Data:     []byte{0xff, 0xd8, 0xff},
		MIMEType: "image/jpeg",
	}}
	actx := turn.AssembledContext{Turns: []turn.ScoredTurn{st}}

	msgs := Messages(actx)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].MultiContent, 2)
	assert.Equal(t, openai.ChatMessagePartTypeText, msgs[0].MultiContent[0].Type)
	assert.Equal(t, "look at this", msgs[0].MultiContent[0].Text)

	img := msgs[0].MultiContent[1]
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, img.Type)
	require.NotNil(t, img.ImageURL)
	assert.True(t, strings.HasPrefix(img.ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestMessages_DuplicateImageBecomesBackReference(t *testing.T) {
	st := scoredText(turn.RoleUser, "same one again")
	st.Attachments = []turn.ImageRef{{Hash: "abc123", IsDuplicate: true}}
	actx := turn.AssembledContext{Turns: []turn.ScoredTurn{st}}

	msgs := Messages(actx)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].MultiContent, 2)
	assert.Equal(t, openai.ChatMessagePartTypeText, msgs[0].MultiContent[1].Type)
	assert.Contains(t, msgs[0].MultiContent[1].Text, "abc123")
	assert.Contains(t, msgs[0].MultiContent[1].Text, "repeated")
}

func TestMessages_RemoteURLPassedThrough(t *testing.T) {
	st := scoredText(turn.RoleUser, "hosted image")
	st.Attachments = []turn.ImageRef{{Hash: "h1", URL: "https://img.example/x.png"}}
	actx := turn.AssembledContext{Turns: []turn.ScoredTurn{st}}

	msgs := Messages(actx)
	require.Len(t, msgs[0].MultiContent, 2)
	assert.Equal(t, "https://img.example/x.png", msgs[0].MultiContent[1].ImageURL.URL)
}

func TestMessages_MissingMIMEDefaultsToJPEG(t *testing.T) {
	st := scoredText(turn.RoleUser, "thumb")
	st.Attachments = []turn.ImageRef{{Hash: "h2", Data: []byte{1, 2, 3}}}
	actx := turn.AssembledContext{Turns: []turn.ScoredTurn{st}}

	msgs := Messages(actx)
	assert.True(t, strings.HasPrefix(msgs[0].MultiContent[1].ImageURL.URL, "data:image/jpeg;base64,"))
}
