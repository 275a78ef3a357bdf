package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	defaultChatModel = "gpt-4o-mini"
	defaultTTSModel  = "gpt-4o-mini-tts"
	defaultTTSVoice  = "coral"

	// maxSpeechLength bounds TTS input; longer analyses are cut with a
	// spoken marker so listeners know the text was shortened.
	maxSpeechLength   = 4000
	speechTruncSuffix = "... (truncated for text-to-speech)"

	speechInstructions = "Speak in an advisable, professional tone suitable for business analysis."
)

// Config for the Analyzer. SpeechKey falls back to APIKey; empty models and
// voice fall back to the defaults.
type Config struct {
	APIKey    string
	SpeechKey string
	ChatModel string
	TTSModel  string
	TTSVoice  string
}

// Analyzer wraps the OpenAI chat and speech endpoints. The two credentials
// can differ, so it keeps one client per concern.
type Analyzer struct {
	chat openai.Client
	tts  openai.Client

	chatKey   string
	speechKey string
	chatModel string
	ttsModel  string
	ttsVoice  string
}

func New(cfg Config) *Analyzer {
	if cfg.SpeechKey == "" {
		cfg.SpeechKey = cfg.APIKey
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultChatModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = defaultTTSModel
	}
	if cfg.TTSVoice == "" {
		cfg.TTSVoice = defaultTTSVoice
	}

	return &Analyzer{
		chat:      openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		tts:       openai.NewClient(option.WithAPIKey(cfg.SpeechKey)),
		chatKey:   cfg.APIKey,
		speechKey: cfg.SpeechKey,
		chatModel: cfg.ChatModel,
		ttsModel:  cfg.TTSModel,
		ttsVoice:  cfg.TTSVoice,
	}
}

// Narrative generates the analysis text for the assembled input.
func (a *Analyzer) Narrative(ctx context.Context, in Input) (string, error) {
	if a.chatKey == "" {
		return "", fmt.Errorf("openai api key is not configured")
	}

	resp, err := a.chat.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildPrompt(in)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Speech renders text as MP3 audio, fully buffered.
func (a *Analyzer) Speech(ctx context.Context, text string) ([]byte, error) {
	if a.speechKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}

	resp, err := a.tts.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(a.ttsModel),
		Voice:          openai.AudioSpeechNewParamsVoice(a.ttsVoice),
		Input:          TruncateForSpeech(text),
		Instructions:   openai.String(speechInstructions),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return audio, nil
}

// TruncateForSpeech enforces the TTS input bound, counting characters
// rather than bytes so multi-byte text is not cut mid-rune.
func TruncateForSpeech(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSpeechLength {
		return text
	}
	return string(runes[:maxSpeechLength]) + speechTruncSuffix
}
