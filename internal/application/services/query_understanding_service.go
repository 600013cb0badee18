package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/providers"
	"github.com/cartloom/marketplace/backend/internal/nlp"
	"github.com/cartloom/marketplace/backend/pkg/config"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	priceRangeRegex  = regexp.MustCompile(`(?i)\$(\d+(?:\.\d+)?)\s*(?:to|-)\s*\$(\d+(?:\.\d+)?)`)
	singlePriceRegex = regexp.MustCompile(`(?i)(under|less than|below|above|over|more than)\s*\$(\d+(?:\.\d+)?)`)
)

var categoryIndicators = []string{"category", "categories", "in", "from", "section"}

var brandIndicators = []string{"brand", "by", "from", "made by"}

// valueVocabulary is the fixed value/ethics vocabulary matched as
// case-insensitive substrings of the whole query.
var valueVocabulary = []string{
	"sustainable", "ethical", "eco-friendly", "organic", "fair trade", "handmade",
}

var filterTriggers = []string{"filter", "show", "find", "where", "with"}

var sortTriggers = []string{"sort", "order", "arrange"}

var (
	degradedCounterOnce sync.Once
	degradedCounter     metric.Int64Counter
)

// TextCategory is a labeled set of example texts for ClassifyText.
type TextCategory struct {
	Name     string
	Examples []string
}

// QueryUnderstandingService turns a raw search string into a normalized
// query, extracted filters, and a coarse intent. Pure except for the
// optional interpretation cache; safe for unlimited concurrent use.
type QueryUnderstandingService struct {
	minTokenLength int
	cacheTTL       int
	cache          providers.CacheProvider
	logger         *zerolog.Logger
}

// NewQueryUnderstandingService creates a new service from config.
func NewQueryUnderstandingService(cfg config.NLPConfig, logger *zerolog.Logger) *QueryUnderstandingService {
	minLen := cfg.MinTokenLength
	if minLen <= 0 {
		minLen = 2
	}
	ttl := cfg.InterpretationCacheTTLSeconds
	if ttl <= 0 {
		ttl = 86400
	}
	return &QueryUnderstandingService{
		minTokenLength: minLen,
		cacheTTL:       ttl,
		logger:         logger,
	}
}

// SetCache sets the cache provider for processed-query results.
func (s *QueryUnderstandingService) SetCache(cache providers.CacheProvider) {
	s.cache = cache
}

// ProcessQuery runs the full understanding pipeline. It never fails
// from the caller's point of view: any internal panic degrades to a
// pass-through result with empty entities and filters.
func (s *QueryUnderstandingService) ProcessQuery(query string) (result *entities.ProcessedQuery) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("query", query).
				Msg("query understanding degraded to pass-through")
			s.recordDegraded()
			result = entities.DegradedQuery(query)
		}
	}()

	cacheKey := "query_interp:" + strings.ToLower(strings.TrimSpace(query))
	if s.cache != nil {
		if data, err := s.cache.Get(context.Background(), cacheKey); err == nil {
			var cached entities.ProcessedQuery
			if json.Unmarshal(data, &cached) == nil {
				return &cached
			}
		}
	}

	tokens := nlp.TokenizeAndClean(query, s.minTokenLength)
	stems := nlp.StemAll(tokens)
	extracted := s.extractEntities(query)
	intent := s.determineIntent(tokens)
	filters := s.deriveFilters(query, extracted)
	processed := buildProcessedQuery(tokens, extracted)

	result = &entities.ProcessedQuery{
		OriginalQuery:  query,
		ProcessedQuery: processed,
		Tokens:         tokens,
		Stems:          stems,
		Entities:       extracted,
		Intent:         intent,
		Filters:        filters,
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(context.Background(), cacheKey, data, s.cacheTTL)
		}
	}

	return result
}

// extractEntities recognizes typed sub-spans in the original query,
// independent of tokenization.
func (s *QueryUnderstandingService) extractEntities(query string) []entities.QueryEntity {
	found := []entities.QueryEntity{}

	for _, m := range priceRangeRegex.FindAllStringSubmatch(query, -1) {
		minPrice, err1 := strconv.ParseFloat(m[1], 64)
		maxPrice, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		found = append(found, entities.QueryEntity{
			Type:  entities.EntityPriceRange,
			Value: formatPrice(minPrice) + "-" + formatPrice(maxPrice),
		})
	}

	for _, m := range singlePriceRegex.FindAllStringSubmatch(query, -1) {
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		entityType := entities.EntityMinPrice
		switch strings.ToLower(m[1]) {
		case "under", "less than", "below":
			entityType = entities.EntityMaxPrice
		}
		found = append(found, entities.QueryEntity{
			Type:  entityType,
			Value: formatPrice(price),
		})
	}

	for _, value := range findAfterIndicator(query, categoryIndicators) {
		found = append(found, entities.QueryEntity{Type: entities.EntityCategory, Value: value})
	}
	for _, value := range findAfterIndicator(query, brandIndicators) {
		found = append(found, entities.QueryEntity{Type: entities.EntityBrand, Value: value})
	}

	lowered := strings.ToLower(query)
	for _, value := range valueVocabulary {
		if strings.Contains(lowered, value) {
			found = append(found, entities.QueryEntity{Type: entities.EntityValue, Value: value})
		}
	}

	return found
}

// findAfterIndicator captures candidate values following indicator
// words. Each indicator's first standalone occurrence yields the next
// word, and additionally the two-word phrase when a third word exists
// and is not itself an indicator. Both candidates are kept so
// downstream matching can prefer the more specific phrase.
func findAfterIndicator(query string, indicators []string) []string {
	words := strings.Fields(strings.ToLower(query))
	values := []string{}

	isIndicator := func(w string) bool {
		for _, ind := range indicators {
			if w == ind {
				return true
			}
		}
		return false
	}

	for _, indicator := range indicators {
		for i, word := range words {
			if word != indicator {
				continue
			}
			if i+1 < len(words) {
				values = append(values, words[i+1])
				if i+2 < len(words) && !isIndicator(words[i+2]) {
					values = append(values, words[i+1]+" "+words[i+2])
				}
			}
			break
		}
	}

	return values
}

// determineIntent classifies intent from the cleaned tokens. Filter
// triggers are checked before sort triggers; first match wins.
func (s *QueryUnderstandingService) determineIntent(tokens []string) entities.Intent {
	contains := func(triggers []string) bool {
		for _, tok := range tokens {
			for _, trig := range triggers {
				if tok == trig {
					return true
				}
			}
		}
		return false
	}

	if contains(filterTriggers) {
		return entities.IntentFilter
	}
	if contains(sortTriggers) {
		return entities.IntentSort
	}
	return entities.IntentSearch
}

// deriveFilters folds extracted entities into structured filters.
// Later entities of the same kind win for scalar fields; categories
// and values accumulate.
func (s *QueryUnderstandingService) deriveFilters(query string, extracted []entities.QueryEntity) entities.SearchFilters {
	filters := entities.SearchFilters{}

	for _, entity := range extracted {
		switch entity.Type {
		case entities.EntityPriceRange:
			parts := strings.SplitN(entity.Value, "-", 2)
			if len(parts) != 2 {
				continue
			}
			if minPrice, err := strconv.ParseFloat(parts[0], 64); err == nil {
				filters.PriceMin = &minPrice
			}
			if maxPrice, err := strconv.ParseFloat(parts[1], 64); err == nil {
				filters.PriceMax = &maxPrice
			}
		case entities.EntityMinPrice:
			if price, err := strconv.ParseFloat(entity.Value, 64); err == nil {
				filters.PriceMin = &price
			}
		case entities.EntityMaxPrice:
			if price, err := strconv.ParseFloat(entity.Value, 64); err == nil {
				filters.PriceMax = &price
			}
		case entities.EntityCategory:
			filters.Categories = append(filters.Categories, entity.Value)
		case entities.EntityBrand:
			filters.BrandName = entity.Value
		case entities.EntityValue:
			filters.Values = append(filters.Values, entity.Value)
		}
	}

	lowered := strings.ToLower(query)
	if strings.Contains(lowered, "in stock") || strings.Contains(lowered, "available") {
		filters.InStock = true
	}

	return filters
}

// buildProcessedQuery removes tokens matching extracted entity values
// and joins the rest. Removal is token-level, so multi-word entity
// values never match and their constituent words stay in the query.
func buildProcessedQuery(tokens []string, extracted []entities.QueryEntity) string {
	entityValues := make(map[string]struct{}, len(extracted))
	for _, entity := range extracted {
		entityValues[strings.ToLower(entity.Value)] = struct{}{}
	}

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, isEntity := entityValues[tok]; isEntity {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExtractKeywords returns the top terms of a single document by tf-idf
// score, excluding stopwords and short terms.
func (s *QueryUnderstandingService) ExtractKeywords(text string, maxKeywords int) (keywords []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("keyword extraction failed")
			keywords = []string{}
		}
	}()
	if maxKeywords <= 0 {
		maxKeywords = 5
	}
	return nlp.NewDocument(text).Keywords(maxKeywords)
}

// CalculateSimilarity computes Jaccard similarity over the stemmed,
// cleaned token sets of two texts. Two empty token sets score 0.
func (s *QueryUnderstandingService) CalculateSimilarity(textA, textB string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("similarity calculation failed")
			score = 0
		}
	}()

	setA := stemSet(textA, s.minTokenLength)
	setB := stemSet(textB, s.minTokenLength)

	union := len(setA)
	intersection := 0
	for stem := range setB {
		if _, ok := setA[stem]; ok {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// ClassifyText assigns text to the candidate category whose examples
// are most similar on average. Returns "unknown" below a 0.1 floor.
func (s *QueryUnderstandingService) ClassifyText(text string, categories []TextCategory) (name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("text classification failed")
			name = "unknown"
		}
	}()

	best := ""
	bestScore := 0.0
	for _, category := range categories {
		if len(category.Examples) == 0 {
			continue
		}
		sum := 0.0
		for _, example := range category.Examples {
			sum += s.CalculateSimilarity(text, example)
		}
		avg := sum / float64(len(category.Examples))
		if avg > bestScore {
			bestScore = avg
			best = category.Name
		}
	}

	if bestScore > 0.1 {
		return best
	}
	return "unknown"
}

// GenerateEmbeddings returns the single-document tf-idf score vector in
// term discovery order. This is a bag-of-weights vector, not a dense
// semantic embedding; dimensionality varies with vocabulary size.
func (s *QueryUnderstandingService) GenerateEmbeddings(text string) (vec []float64) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("embedding generation failed")
			vec = []float64{}
		}
	}()
	return nlp.NewDocument(text).Embedding()
}

func stemSet(text string, minLength int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range nlp.TokenizeAndClean(text, minLength) {
		set[nlp.Stem(tok)] = struct{}{}
	}
	return set
}

func initDegradedCounter() {
	meter := otel.Meter("github.com/cartloom/marketplace/backend/query_understanding")
	counter, err := meter.Int64Counter(
		"search.query_understanding.degraded",
		metric.WithDescription("Count of queries that fell back to pass-through processing"),
	)
	if err == nil {
		degradedCounter = counter
	}
}

func (s *QueryUnderstandingService) recordDegraded() {
	degradedCounterOnce.Do(initDegradedCounter)
	if degradedCounter == nil {
		return
	}
	degradedCounter.Add(context.Background(), 1)
}
