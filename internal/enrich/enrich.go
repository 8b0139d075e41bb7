// Package enrich asks a Gemini model for the metadata of a song.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/Nixie-Tech-LLC/bandroom/internal/metrics"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	requestTimeout = 30 * time.Second
)

var ErrUnavailable = errors.New("enrichment unavailable")

// Result holds what the model found. Fields it could not fill are nil.
type Result struct {
	Artist   *string `json:"artist"`
	Duration *string `json:"duration"`
	Chords   *string `json:"chords"`
	Lyrics   *string `json:"lyrics"`
	Genre    *string `json:"genre"`
	Enriched bool    `json:"enriched"`
}

// Generator turns a prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	gen Generator
}

// New returns a Client backed by the Gemini API. An empty apiKey gives a
// Client whose every call reports ErrUnavailable.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		log.Warn().Msg("[enrich] GEMINI_API_KEY not set, songs will not be enriched")
		return &Client{}, nil
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{gen: &gemini{client: client, model: model}}, nil
}

func NewWithGenerator(gen Generator) *Client {
	return &Client{gen: gen}
}

type gemini struct {
	client *genai.Client
	model  string
}

func (g *gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

const promptTemplate = `You are a music assistant for an amateur band.
For the song %q by %q, answer with a single JSON object and nothing else:
{"artist": string, "duration": "MM:SS", "chords": string, "lyrics": string, "genre": string}
Use null for anything you do not know. Chords should list the progression per section.`

// Enrich never returns a partially filled Result together with an error:
// on failure the Result is empty and the error wraps ErrUnavailable.
func (c *Client) Enrich(ctx context.Context, title, artist string) (Result, error) {
	if c == nil || c.gen == nil {
		metrics.Enrichments.WithLabelValues("unconfigured").Inc()
		return Result{}, fmt.Errorf("%w: no api key", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	text, err := c.gen.Generate(ctx, fmt.Sprintf(promptTemplate, title, artist))
	if err != nil {
		metrics.Enrichments.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("title", title).Msg("[enrich] Enrich: generation failed")
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	res, err := parse(text)
	if err != nil {
		metrics.Enrichments.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("title", title).Msg("[enrich] Enrich: unreadable answer")
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	metrics.Enrichments.WithLabelValues("ok").Inc()
	return res, nil
}

// parse accepts the JSON object alone or wrapped in a markdown code fence.
func parse(text string) (Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return Result{}, err
	}
	for _, f := range []**string{&res.Artist, &res.Duration, &res.Chords, &res.Lyrics, &res.Genre} {
		if *f != nil && strings.TrimSpace(**f) == "" {
			*f = nil
		}
	}
	res.Enriched = true
	return res, nil
}
