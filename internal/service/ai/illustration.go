package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/util"
	apperrors "github.com/casaiglesia/casa-server/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// baseStylePrompt constrains every generated illustration to the abstract
// line-drawing look used across event graphics.
const baseStylePrompt = `Create an abstract, artistic line drawing illustration.

CRITICAL REQUIREMENTS:
- ABSOLUTELY NO TEXT of any kind in the image
- NO labels, NO annotations, NO captions, NO metadata
- The image must be PURELY VISUAL with ZERO written words

ARTISTIC STYLE - Very Important:
- Abstract and suggestive, NOT literal or realistic
- Loose, gestural lines that SUGGEST the subject rather than depicting it precisely
- Think: quick artistic sketch, not technical drawing
- Lines should be expressive and fluid, like a single continuous stroke
- Minimalist: use the FEWEST lines possible to evoke the concept
- Style inspiration: Matisse line drawings, Picasso single-line art, Japanese sumi-e
- The viewer should FEEL the subject, not see an exact representation
- Embrace negative space - what you DON'T draw is as important as what you draw
- Lines: Medium gray (#888888), varying thickness for artistic expression
- Background: Solid white
- NO detailed objects, NO realistic proportions, NO technical precision`

var eventPrompts = map[string]string{
	"mesa_abierta": `Subject: The FEELING of gathering around a table

DO NOT draw a literal table with chairs. Instead, evoke:
- Circular or curved lines suggesting togetherness
- Abstract shapes that hint at gathering, communion, sharing
- Perhaps overlapping circles suggesting plates or people
- A single continuous line that flows and connects
- The warmth of breaking bread together

Think of it as: "What does community feel like?" not "What does a table look like?"

Style: Like a quick sketch an artist would make to capture the ESSENCE of a dinner gathering in just a few strokes.`,

	"culto_dominical": `Subject: Sacred worship space
Elements to include:
- Simple altar or communion table
- Cross element (subtle, not dominant)
- Candles (2-3)
- Open book suggesting liturgy
- Architectural arches or window suggestion

The illustration should evoke reverence and sacred gathering.`,

	"estudio_biblico": `Subject: Contemplative study scene
Elements to include:
- Open book (Bible)
- Reading lamp or candle
- Coffee cup or tea
- Notebook with pen
- Perhaps glasses
- Cozy, intimate setting

The illustration should evoke learning, reflection, and community discussion.`,

	"retiro": `Subject: Nature retreat setting
Elements to include:
- Mountain or hill silhouettes
- Simple trees (perhaps 2-3)
- Path or trail
- Sun or moon suggestion
- Birds in flight (simple lines)

The illustration should evoke peace, nature, and spiritual journey.`,

	"navidad": `Subject: Nativity / Christmas scene
Elements to include:
- Simple stable structure
- Star above
- Manger suggestion
- Perhaps shepherds or wise men silhouettes
- Minimal decorative elements

The illustration should evoke the sacred simplicity of Christmas.`,

	"cuaresma": `Subject: Lenten contemplation
Elements to include:
- Cross (central but not overwhelming)
- Crown of thorns (subtle)
- Desert landscape suggestion
- Sparse vegetation
- Path leading forward

The illustration should evoke reflection, journey, and preparation.`,

	"pascua": `Subject: Easter resurrection
Elements to include:
- Empty tomb (stone rolled away)
- Sunrise rays
- Lilies or spring flowers
- Garden setting
- Light breaking through

The illustration should evoke hope, renewal, and joy.`,

	"bautismo": `Subject: Baptism scene
Elements to include:
- Water (waves or river)
- Shell (baptismal symbol)
- Dove descending
- Light rays from above
- Simple font or basin

The illustration should evoke new life and sacred ritual.`,

	"comunidad": `Subject: Community gathering
Elements to include:
- Circle of simple human figures
- Joined hands suggestion
- Central focal point (cross, candle, or table)
- Inclusive, welcoming arrangement
- Unity and connection

The illustration should evoke belonging and togetherness.`,

	"musica": `Subject: Sacred music
Elements to include:
- Musical notes floating
- Simple instrument (guitar, piano keys, or organ pipes)
- Sound waves
- Perhaps choir silhouettes
- Hymnal or sheet music

The illustration should evoke worship through music.`,

	"oracion": `Subject: Prayer and meditation
Elements to include:
- Praying hands
- Candle flame
- Rosary or prayer beads
- Kneeling figure silhouette
- Ascending elements (smoke, light)

The illustration should evoke contemplation and connection with the divine.`,

	"generic": `Subject: Anglican church symbol
Elements to include:
- Canterbury cross or Celtic cross
- Architectural church elements
- Candles
- Simple floral elements
- Open doors (welcoming)

The illustration should evoke the Anglican tradition with warmth.`,
}

// IllustrationService generates event artwork and promotional copy.
type IllustrationService struct {
	manager    *ModelManager
	imageModel string
	logger     *zap.Logger
}

type IllustrationRequest struct {
	EventType      string
	CustomElements string
	NumberOfImages int
}

type IllustrationResult struct {
	Images [][]byte
	Prompt string
}

// EventCopy is the promotional text block generated alongside an illustration.
type EventCopy struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Caption  string `json:"caption"`
}

func NewIllustrationService(manager *ModelManager, imageModel string, logger *zap.Logger) *IllustrationService {
	if imageModel == "" {
		imageModel = "imagen-4.0-generate-001"
	}
	return &IllustrationService{
		manager:    manager,
		imageModel: imageModel,
		logger:     logger,
	}
}

// EventTypes lists the event types with a dedicated prompt template.
func EventTypes() []string {
	types := make([]string, 0, len(eventPrompts))
	for t := range eventPrompts {
		types = append(types, t)
	}
	return types
}

// BuildPrompt assembles the full Imagen prompt for an event type. Unknown
// types fall back to the generic church prompt.
func BuildPrompt(eventType, customElements string) string {
	eventPrompt, ok := eventPrompts[eventType]
	if !ok {
		eventPrompt = eventPrompts["generic"]
	}

	var b strings.Builder
	b.WriteString(baseStylePrompt)
	b.WriteString("\n\n")
	b.WriteString(eventPrompt)
	b.WriteString(`

Additional requirements:
- Output size: 800x600 pixels (will be scaled)
- The illustration will be placed on the RIGHT side of a graphic
- Leave more visual weight on the left side of the composition
- The final image will be made very transparent (15% opacity)
- Must work well when overlaid on a white/cream background`)

	if customElements != "" {
		b.WriteString("\n\nCustom elements to incorporate:\n")
		b.WriteString(util.TruncateString(customElements, constants.AIInputLimits.MaxPromptLength))
	}

	return b.String()
}

func (s *IllustrationService) Generate(ctx context.Context, req IllustrationRequest) (*IllustrationResult, error) {
	client := s.manager.GetGeminiClient()
	if client == nil {
		return nil, fmt.Errorf("gemini client not available")
	}

	count := req.NumberOfImages
	if count <= 0 || count > 4 {
		count = 4
	}

	prompt := BuildPrompt(req.EventType, req.CustomElements)

	s.logger.Info("Generating illustration",
		zap.String("event_type", req.EventType),
		zap.String("model", s.imageModel),
		zap.Int("count", count),
	)

	resp, err := client.Models.GenerateImages(ctx, s.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		AspectRatio:    "1:1",
	})
	if err != nil {
		s.logger.Error("Imagen generation failed", zap.Error(err))
		return nil, apperrors.NewAPIError("image generation failed", 502, map[string]any{
			"event_type": req.EventType,
			"model":      s.imageModel,
			"error":      err.Error(),
		})
	}

	if len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("no images returned for event type %q", req.EventType)
	}

	images := make([][]byte, 0, len(resp.GeneratedImages))
	for _, gen := range resp.GeneratedImages {
		if gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
			continue
		}
		images = append(images, gen.Image.ImageBytes)
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("generated images contained no data")
	}

	s.logger.Info("Illustration generated", zap.Int("images", len(images)))

	return &IllustrationResult{Images: images, Prompt: prompt}, nil
}

// GenerateCopy produces Spanish promotional text for an event using the
// JSON model pipeline (Gemini primary, OpenAI fallback).
func (s *IllustrationService) GenerateCopy(ctx context.Context, eventType, eventName, details string) (*EventCopy, error) {
	prompt := fmt.Sprintf(`Genera el texto promocional para un evento de una iglesia anglicana en Madrid.

Tipo de evento: %s
Nombre: %s
Detalles: %s

Responde SOLO con JSON válido con esta estructura:
{"title": "...", "subtitle": "...", "caption": "..."}

- "title": título corto y cálido (máximo 6 palabras)
- "subtitle": una línea que invite a participar
- "caption": texto para redes sociales (máximo 280 caracteres), tono cercano, sin hashtags`,
		eventType,
		util.TruncateString(eventName, 200),
		util.TruncateString(details, constants.AIInputLimits.MaxPromptLength),
	)

	var copyText EventCopy
	metadata, err := s.manager.GenerateJSON(ctx, prompt, PresetCreative, &copyText, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate event copy: %w", err)
	}

	s.logger.Info("Event copy generated",
		zap.String("event_type", eventType),
		zap.String("provider", metadata.Provider),
		zap.Bool("used_fallback", metadata.UsedFallback),
	)

	if copyText.Title == "" {
		return nil, fmt.Errorf("model returned empty title for event %q", eventName)
	}

	return &copyText, nil
}
