package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/audioscribe/backend/internal/srt"
)

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// SettingResolver returns the current value of a setting, or "" when unset
type SettingResolver func() string

// GeminiTranscriber transcribes audio using the Google Gemini API. The audio
// is sent inline with an instruction prompt and a response schema that
// constrains the reply to an array of {start, end, text} objects.
type GeminiTranscriber struct {
	apiKey        string          // startup credential from the environment
	modelResolver SettingResolver // dynamically resolves model from DB
	keyResolver   SettingResolver // settings override for the credential
	apiBase       string
	httpClient    *http.Client
}

func NewGeminiTranscriber(apiKey string, modelResolver, keyResolver SettingResolver) *GeminiTranscriber {
	return &GeminiTranscriber{
		apiKey:        apiKey,
		modelResolver: modelResolver,
		keyResolver:   keyResolver,
		apiBase:       geminiAPIBase,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (g *GeminiTranscriber) currentModel() string {
	if g.modelResolver != nil {
		if m := g.modelResolver(); m != "" {
			return m
		}
	}
	return "gemini-2.0-flash"
}

// currentKey prefers a key stored in settings over the environment one, so
// the credential can be rotated without a restart.
func (g *GeminiTranscriber) currentKey() string {
	if g.keyResolver != nil {
		if k := g.keyResolver(); k != "" {
			return k
		}
	}
	return g.apiKey
}

func (g *GeminiTranscriber) Name() string {
	return "gemini"
}

// segmentSchema is the responseSchema sent with every request: a JSON array
// of objects with required start/end/text fields.
var segmentSchema = map[string]interface{}{
	"type": "ARRAY",
	"items": map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"start": map[string]interface{}{"type": "NUMBER", "description": "segment start in seconds"},
			"end":   map[string]interface{}{"type": "NUMBER", "description": "segment end in seconds"},
			"text":  map[string]interface{}{"type": "STRING", "description": "subtitle text"},
		},
		"required": []string{"start", "end", "text"},
	},
}

func (g *GeminiTranscriber) Transcribe(ctx context.Context, req Request) ([]srt.Segment, error) {
	apiKey := g.currentKey()
	if apiKey == "" {
		return nil, &Error{Message: "Gemini API key not configured"}
	}
	if len(req.Audio) == 0 {
		return nil, &Error{Message: "empty audio payload"}
	}

	model := g.currentModel()
	prompt := promptFor(req.ReferenceText).build()
	log.Printf("[gemini] using model: %s, audio=%d bytes mime=%s reference=%t",
		model, len(req.Audio), req.MimeType, req.ReferenceText != "")

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]string{
							"mime_type": req.MimeType,
							"data":      base64.StdEncoding.EncodeToString(req.Audio),
						},
					},
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.0,
			"responseMimeType": "application/json",
			"responseSchema":   segmentSchema,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, wrapError(err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.apiBase, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, wrapError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapError(fmt.Errorf("Gemini API request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, wrapError(fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, string(body)))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, wrapError(fmt.Errorf("parse response: %w", err))
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		log.Printf("[gemini] empty response body: %s", string(body))
		if geminiResp.PromptFeedback.BlockReason != "" {
			return nil, wrapError(fmt.Errorf("Gemini blocked: %s", geminiResp.PromptFeedback.BlockReason))
		}
		return nil, wrapError(fmt.Errorf("empty Gemini response"))
	}

	if fr := geminiResp.Candidates[0].FinishReason; fr != "" && fr != "STOP" {
		log.Printf("[gemini] WARNING: finishReason=%s", fr)
	}

	segments, err := decodeSegments(geminiResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}

	log.Printf("[gemini] transcription complete: %d segments", len(segments))
	return segments, nil
}

// decodeSegments parses the model's JSON text into validated segments. The
// response schema already constrains the shape service-side; the checks here
// guard against the model ignoring it.
func decodeSegments(text string) ([]srt.Segment, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, wrapError(fmt.Errorf("parse segments: %w", err))
	}
	if _, ok := raw.([]interface{}); !ok {
		return nil, ErrResponseFormat
	}

	var segments []srt.Segment
	if err := json.Unmarshal([]byte(text), &segments); err != nil {
		return nil, wrapError(fmt.Errorf("parse segments: %w", err))
	}

	for i, seg := range segments {
		if seg.Start < 0 {
			return nil, wrapError(fmt.Errorf("segment %d: negative start time %v", i+1, seg.Start))
		}
		if seg.End < seg.Start {
			return nil, wrapError(fmt.Errorf("segment %d: end %v before start %v", i+1, seg.End, seg.Start))
		}
	}

	return segments, nil
}
