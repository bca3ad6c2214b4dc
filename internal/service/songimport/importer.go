package songimport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/cache"
	"github.com/casaiglesia/casa-server/internal/util"
	"go.uber.org/zap"
)

const importerTimeout = 15 * time.Second

var brTag = regexp.MustCompile(`[ \t\r\n]*<br[ \t]*/?>[ \t\r\n]*`)

// Importer fetches a hymnal page and extracts a song draft from it.
type Importer struct {
	httpClient *http.Client
	cache      *cache.CacheService
	logger     *zap.Logger
	baseURL    string
}

// ImportedSong is the parsed draft before it is saved to the catalog.
type ImportedSong struct {
	Title     string               `json:"title"`
	Author    string               `json:"author,omitempty"`
	Sections  []domain.SongSection `json:"sections"`
	SourceURL string               `json:"source_url"`
}

func NewImporter(baseURL string, cacheService *cache.CacheService, logger *zap.Logger) *Importer {
	return &Importer{
		httpClient: &http.Client{
			Timeout: importerTimeout,
		},
		cache:   cacheService,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Import fetches the hymnal page at path and parses it into a song draft.
// Results are cached briefly so repeated previews don't refetch.
func (im *Importer) Import(ctx context.Context, path string) (*ImportedSong, error) {
	pageURL, err := im.resolveURL(path)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("songimport:%s", pageURL)
	if im.cache != nil {
		var cached ImportedSong
		if err := im.cache.Get(ctx, cacheKey, &cached); err == nil && cached.Title != "" {
			im.logger.Debug("Import cache hit", zap.String("url", pageURL))
			return &cached, nil
		}
	}

	im.logger.Info("Fetching hymnal page", zap.String("url", pageURL))

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; CasaServer/1.0)")

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	song, err := im.Parse(resp.Body, pageURL)
	if err != nil {
		return nil, err
	}

	if im.cache != nil {
		if err := im.cache.Set(ctx, cacheKey, song, constants.CacheTTL.LyricsImport); err != nil {
			im.logger.Warn("Failed to cache imported song", zap.Error(err))
		}
	}

	im.logger.Info("Hymnal page imported",
		zap.String("title", song.Title),
		zap.Int("sections", len(song.Sections)))

	return song, nil
}

// Parse extracts the song draft from hymnal page HTML.
func (im *Importer) Parse(r io.Reader, sourceURL string) (*ImportedSong, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		return nil, &StructureChangedError{Message: "no title found - HTML structure may have changed"}
	}

	author := strings.TrimSpace(doc.Find(".author, .autor, .compositor").First().Text())
	author = strings.TrimPrefix(author, "Autor:")
	author = strings.TrimSpace(author)

	sections := im.parseSections(doc)
	if len(sections) == 0 {
		return nil, &StructureChangedError{Message: "no lyrics sections found - HTML structure may have changed"}
	}

	return &ImportedSong{
		Title:     title,
		Author:    author,
		Sections:  sections,
		SourceURL: sourceURL,
	}, nil
}

func (im *Importer) parseSections(doc *goquery.Document) []domain.SongSection {
	sections := make([]domain.SongSection, 0)

	doc.Find(".lyrics .verse, .letra .estrofa, .letra .coro").Each(func(i int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.AttrOr("data-label", ""))
		if label == "" {
			if sel.HasClass("coro") {
				label = "Coro"
			} else {
				label = fmt.Sprintf("Estrofa %d", len(sections)+1)
			}
		}

		lines := blockText(sel)
		if lines == "" {
			return
		}

		sections = append(sections, domain.SongSection{Label: label, Lines: lines})
	})

	if len(sections) > 0 {
		return sections
	}

	// Older hymnal pages put the whole lyric in one <pre> or .letra block.
	raw := blockText(doc.Find(".lyrics, .letra, pre").First())
	if raw == "" {
		return sections
	}

	for _, block := range strings.Split(raw, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		label := fmt.Sprintf("Estrofa %d", len(sections)+1)
		if looksLikeChorus(block) {
			label = "Coro"
		}

		sections = append(sections, domain.SongSection{Label: label, Lines: block})
	}

	return sections
}

// Slug builds the catalog slug for an imported title.
func (im *Importer) Slug(title string) string {
	return util.Slugify(title)
}

func (im *Importer) resolveURL(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}

	if im.baseURL == "" {
		return "", fmt.Errorf("hymnal base URL not configured")
	}

	joined, err := url.JoinPath(im.baseURL, path)
	if err != nil {
		return "", fmt.Errorf("invalid hymnal path %q: %w", path, err)
	}
	return joined, nil
}

// blockText renders a selection's text with <br> preserved as newlines.
func blockText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	html, err := sel.Html()
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}

	// Swallow whitespace around each <br> so the markup's own newline does
	// not stack with the replacement and produce a phantom blank line.
	html = brTag.ReplaceAllString(html, "\n")

	frag, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(frag.Text(), "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func looksLikeChorus(block string) bool {
	first := strings.ToLower(strings.SplitN(block, "\n", 2)[0])
	return strings.HasPrefix(first, "coro") || strings.HasPrefix(first, "estribillo")
}

type StructureChangedError struct {
	Message string
}

func (e *StructureChangedError) Error() string {
	return e.Message
}

func IsStructureError(err error) bool {
	_, ok := err.(*StructureChangedError)
	return ok
}
