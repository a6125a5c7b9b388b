// Package prediction asks a hosted text-generation model for a match outcome.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strings"
	"text/template"
	"time"

	"golang.org/x/oauth2"

	"github.com/lepinkainen/cricket-forge/pkg/api"
	"github.com/lepinkainen/cricket-forge/pkg/cache"
	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	httputil "github.com/lepinkainen/cricket-forge/pkg/http"
)

// Defaults for the hosted inference endpoint.
const (
	DefaultEndpoint  = "https://api-inference.huggingface.co/models"
	DefaultModel     = "HuggingFaceH4/zephyr-7b-beta"
	DefaultCacheSize = 256
	DefaultCacheTTL  = time.Hour
)

var (
	// ErrInvalidMatch is returned for a match without an id.
	ErrInvalidMatch = errors.New("invalid match data")
	// ErrNoPrediction means the model answered but no usable JSON was found.
	ErrNoPrediction = errors.New("model response contained no prediction")
)

var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

var promptTemplate = template.Must(template.New("prompt").Funcs(template.FuncMap{"join": strings.Join}).Parse(`
You are a cricket expert. Predict the winner of the following match based on general cricket knowledge.
Match: {{.Name}}
Teams: {{join .Teams " vs "}}
Venue: {{.Venue}}
Format: {{.MatchType}}
Date: {{.Date}}

Provide the response in the following JSON format ONLY:
{
  "winner": "Team Name",
  "probability": 75,
  "reasoning": "Brief explanation why"
}
`))

// Config configures a Predictor.
type Config struct {
	Endpoint string
	Model    string
	// Token is the API bearer token. Without one every prediction is a mock.
	Token   string
	Timeout time.Duration
	Retry   *api.RetryPolicy
}

// Predictor produces match predictions and caches them per match id.
type Predictor struct {
	client *httputil.Client
	url    string
	token  bool
	policy *api.RetryPolicy
	cache  *cache.LRU[cricket.Prediction]
	intn   func(int) int
}

// New creates a Predictor. predictions may be nil to disable caching.
func New(cfg Config, predictions *cache.LRU[cricket.Prediction]) *Predictor {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = api.InferenceRetryPolicy()
	}

	httpConfig := httputil.DefaultConfig()
	httpConfig.Timeout = cfg.Timeout
	httpConfig.Headers = map[string]string{"Accept": "application/json"}
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
		httpConfig.Transport = &oauth2.Transport{Source: src}
	}

	return &Predictor{
		client: httputil.NewClient(httpConfig),
		url:    strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Model,
		token:  cfg.Token != "",
		policy: cfg.Retry,
		cache:  predictions,
		intn:   rand.IntN,
	}
}

// Predict returns a prediction for match. When the model cannot be reached a
// mock prediction is returned instead; mocks are not cached.
func (p *Predictor) Predict(ctx context.Context, match cricket.MatchRecord) (cricket.Prediction, error) {
	if strings.TrimSpace(match.ID) == "" {
		return cricket.Prediction{}, ErrInvalidMatch
	}
	if p.cache != nil {
		if cached, ok := p.cache.Get(match.ID); ok {
			slog.Debug("Using cached prediction", "match", match.ID)
			return cached, nil
		}
	}

	if !p.token {
		slog.Warn("No prediction API token configured, using mock prediction", "match", match.ID)
		return p.mock(match), nil
	}

	var text string
	err := api.Do(ctx, "prediction", p.policy, func(ctx context.Context) error {
		var err error
		text, err = p.generate(ctx, match)
		return err
	})
	if err != nil {
		slog.Warn("Prediction API unavailable, falling back to mock", "match", match.ID, "error", err)
		return p.mock(match), nil
	}

	prediction, err := ParseGenerated(text)
	if err != nil {
		return cricket.Prediction{}, fmt.Errorf("failed to parse prediction for %s: %w", match.ID, err)
	}
	prediction.MatchID = match.ID

	if p.cache != nil {
		p.cache.Put(match.ID, prediction)
	}
	return prediction, nil
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
	Temperature    float64 `json:"temperature"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

func (p *Predictor) generate(ctx context.Context, match cricket.MatchRecord) (string, error) {
	var prompt bytes.Buffer
	if err := promptTemplate.Execute(&prompt, match); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}

	body, err := json.Marshal(inferenceRequest{
		Inputs: prompt.String(),
		Parameters: inferenceParameters{
			MaxNewTokens:   200,
			ReturnFullText: false,
			Temperature:    0.1,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := p.client.PostWithContext(ctx, p.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to call inference API: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		payload, err := httputil.ReadResponseBody(resp, 4<<10)
		if err != nil {
			slog.Debug("Failed to read error body", "error", err)
		}
		return "", &api.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
			RetryAfter: api.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var generations []generation
	if err := httputil.DecodeJSONResponse(resp, &generations); err != nil {
		return "", err
	}
	if len(generations) == 0 || generations[0].GeneratedText == "" {
		return "", ErrNoPrediction
	}
	return generations[0].GeneratedText, nil
}

// ParseGenerated pulls the JSON object out of free model output. The
// probability is clamped to 0..100.
func ParseGenerated(text string) (cricket.Prediction, error) {
	block := jsonBlock.FindString(text)
	if block == "" {
		return cricket.Prediction{}, ErrNoPrediction
	}

	var raw struct {
		Winner      string  `json:"winner"`
		Probability float64 `json:"probability"`
		Reasoning   string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return cricket.Prediction{}, fmt.Errorf("%w: %v", ErrNoPrediction, err)
	}
	if strings.TrimSpace(raw.Winner) == "" {
		return cricket.Prediction{}, ErrNoPrediction
	}

	return cricket.Prediction{
		Winner:      strings.TrimSpace(raw.Winner),
		Probability: int(math.Round(min(max(raw.Probability, 0), 100))),
		Reasoning:   strings.TrimSpace(raw.Reasoning),
	}, nil
}

// mock picks one of the teams with a 55-84% probability.
func (p *Predictor) mock(match cricket.MatchRecord) cricket.Prediction {
	teams := match.Teams
	if len(teams) == 0 {
		teams = []string{"Team A", "Team B"}
	}
	winner := teams[p.intn(len(teams))]
	return cricket.Prediction{
		MatchID:     match.ID,
		Winner:      winner,
		Probability: 55 + p.intn(30),
		Reasoning:   fmt.Sprintf("Based on recent form and head-to-head records, %s has a slight edge in these conditions.", winner),
		Mock:        true,
	}
}
