package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"lexibridge/internal/aggregate"
	"lexibridge/internal/history"
	"lexibridge/internal/reader"
	"lexibridge/internal/review"
	"lexibridge/internal/settings"
	"lexibridge/internal/translation"
)

// maxPageTextChars clips extracted page text before translation.
const maxPageTextChars = aggregate.MaxInputLength

type translateRequest struct {
	Text       string   `json:"text"`
	SourceLang string   `json:"sourceLang"`
	TargetLang string   `json:"targetLang"`
	Providers  []string `json:"providers,omitempty"`
	SkipSave   bool     `json:"skipSave,omitempty"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}

	ctx := c.Request().Context()
	prefs, err := s.settings.Preferences(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load preferences failed")
		return internalError(c, "Failed to load settings")
	}
	creds, err := s.settings.Credentials(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load credentials failed")
		return internalError(c, "Failed to load settings")
	}

	targetLang := strings.TrimSpace(req.TargetLang)
	if targetLang == "" {
		targetLang = prefs.TargetLang
	}
	sourceLang := strings.TrimSpace(req.SourceLang)
	if sourceLang == "" {
		sourceLang = prefs.SourceLang
	}
	enabled := req.Providers
	if len(enabled) == 0 {
		enabled = prefs.EnabledProviders
	}

	result, err := s.aggregator.Translate(ctx, aggregate.Input{
		Text:             req.Text,
		SourceLang:       sourceLang,
		TargetLang:       targetLang,
		Credentials:      creds,
		EnabledProviders: enabled,
	})
	if err != nil {
		return s.translateError(c, err)
	}

	if !req.SkipSave && s.historyDB != nil {
		s.saveHistory(c, result)
	}
	return success(c, result)
}

func (s *Server) translateError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, aggregate.ErrEmptyInput):
		return failUnprocessable(c, map[string]string{"text": "is required"})
	case errors.Is(err, aggregate.ErrInputTooLong):
		return failUnprocessable(c, map[string]string{"text": err.Error()})
	case errors.Is(err, aggregate.ErrSameLanguage):
		return fail(c, http.StatusUnprocessableEntity, "Source and target language are the same", nil)
	case errors.Is(err, aggregate.ErrRateLimited):
		return fail(c, http.StatusTooManyRequests, "Too many translation requests", nil)
	case errors.Is(err, aggregate.ErrNoProvidersEnabled):
		return fail(c, http.StatusConflict, "No translation providers are configured", nil)
	case errors.Is(err, aggregate.ErrNoUsableResult):
		return fail(c, http.StatusBadGateway, "All translation providers failed", nil)
	default:
		s.logger.Error().Err(err).Msg("translate failed")
		return internalError(c, "Translation failed")
	}
}

func (s *Server) saveHistory(c echo.Context, result *aggregate.Result) {
	if !history.ShouldPersist(result.Original, result.Primary, result.SourceLang) {
		return
	}
	_, err := s.historyDB.Add(c.Request().Context(), history.AddParams{
		Original:     result.Original,
		Translation:  result.Primary,
		SourceLang:   result.SourceLang,
		TargetLang:   result.TargetLang,
		Translations: result.Translations,
		Dictionary:   result.Dictionary,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("persist history record failed")
	}
}

type translatePageRequest struct {
	URL        string `json:"url"`
	TargetLang string `json:"targetLang"`
}

func (s *Server) handleTranslatePage(c echo.Context) error {
	var req translatePageRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if strings.TrimSpace(req.URL) == "" {
		return failValidation(c, map[string]string{"url": "is required"})
	}

	ctx := c.Request().Context()
	text, err := reader.FetchText(ctx, req.URL, "")
	if err != nil {
		s.logger.Warn().Err(err).Str("url", req.URL).Msg("page fetch failed")
		return fail(c, http.StatusBadGateway, "Failed to extract page content", nil)
	}
	clipped, truncated := reader.TruncateText(text, maxPageTextChars)

	prefs, err := s.settings.Preferences(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load preferences failed")
		return internalError(c, "Failed to load settings")
	}
	creds, err := s.settings.Credentials(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load credentials failed")
		return internalError(c, "Failed to load settings")
	}

	targetLang := strings.TrimSpace(req.TargetLang)
	if targetLang == "" {
		targetLang = prefs.TargetLang
	}

	result, err := s.aggregator.Translate(ctx, aggregate.Input{
		Text:             clipped,
		SourceLang:       translation.SourceAuto,
		TargetLang:       targetLang,
		Credentials:      creds,
		EnabledProviders: prefs.EnabledProviders,
	})
	if err != nil {
		return s.translateError(c, err)
	}

	return success(c, map[string]any{
		"url":       req.URL,
		"truncated": truncated,
		"result":    result,
	})
}

func (s *Server) handleHistoryList(c echo.Context) error {
	records, err := s.historyDB.List(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list history failed")
		return internalError(c, "Failed to load history")
	}
	return success(c, map[string]any{"items": records})
}

func (s *Server) handleHistoryClear(c echo.Context) error {
	if err := s.historyDB.Clear(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("clear history failed")
		return internalError(c, "Failed to clear history")
	}
	return success(c, nil)
}

func (s *Server) handleHistoryDelete(c echo.Context) error {
	index, err := strconv.Atoi(strings.TrimSpace(c.Param("index")))
	if err != nil {
		return failValidation(c, map[string]string{"index": "must be an integer"})
	}

	if err := s.historyDB.DeleteAt(c.Request().Context(), index); err != nil {
		if errors.Is(err, history.ErrIndexOutOfRange) {
			return failNotFound(c, "History record not found")
		}
		s.logger.Error().Err(err).Int("index", index).Msg("delete history record failed")
		return internalError(c, "Failed to delete history record")
	}
	return success(c, nil)
}

func (s *Server) handleSettingsGet(c echo.Context) error {
	export, err := s.settings.ExportRedacted(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("export settings failed")
		return internalError(c, "Failed to load settings")
	}
	return success(c, export)
}

func (s *Server) handleSettingsPut(c echo.Context) error {
	var prefs settings.Preferences
	if err := c.Bind(&prefs); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if strings.TrimSpace(prefs.TargetLang) == "" {
		return failValidation(c, map[string]string{"targetLang": "is required"})
	}

	if err := s.settings.SavePreferences(c.Request().Context(), prefs); err != nil {
		s.logger.Error().Err(err).Msg("save preferences failed")
		return internalError(c, "Failed to save settings")
	}
	return success(c, prefs)
}

func (s *Server) handleSettingsImport(c echo.Context) error {
	body, err := readBodyLimited(c, 1<<20)
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not read request body"})
	}

	payload, err := s.settings.Import(c.Request().Context(), body)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	imported := map[string]any{
		"preferences": payload.Preferences != nil,
		"credentials": len(payload.Credentials),
	}
	return successWithStatus(c, http.StatusCreated, imported)
}

func (s *Server) handleCredentialPut(c echo.Context) error {
	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	if provider == "" {
		return failValidation(c, map[string]string{"provider": "is required"})
	}
	if _, err := s.registry.Provider(provider); err != nil {
		return failNotFound(c, "Unknown translation provider")
	}

	var cred translation.Credential
	if err := c.Bind(&cred); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}

	if err := s.settings.SaveCredential(c.Request().Context(), provider, cred); err != nil {
		s.logger.Error().Err(err).Str("provider", provider).Msg("save credential failed")
		return internalError(c, "Failed to save credential")
	}
	return successWithStatus(c, http.StatusCreated, map[string]any{"provider": provider})
}

func (s *Server) handleCredentialDelete(c echo.Context) error {
	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	if provider == "" {
		return failValidation(c, map[string]string{"provider": "is required"})
	}

	if err := s.settings.DeleteCredential(c.Request().Context(), provider); err != nil {
		s.logger.Error().Err(err).Str("provider", provider).Msg("delete credential failed")
		return internalError(c, "Failed to delete credential")
	}
	return success(c, nil)
}

func (s *Server) handleReviewList(c echo.Context) error {
	words, err := s.reviews.List(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list review words failed")
		return internalError(c, "Failed to load review words")
	}
	return success(c, map[string]any{"items": words})
}

type reviewUpsertRequest struct {
	SourceText     string `json:"sourceText"`
	Translation    string `json:"translation"`
	SourceLang     string `json:"sourceLang"`
	TargetLanguage string `json:"targetLanguage"`
}

func (s *Server) handleReviewUpsert(c echo.Context) error {
	var req reviewUpsertRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if strings.TrimSpace(req.SourceText) == "" {
		return failValidation(c, map[string]string{"sourceText": "is required"})
	}
	if strings.TrimSpace(req.Translation) == "" {
		return failValidation(c, map[string]string{"translation": "is required"})
	}

	word, err := s.reviews.Upsert(c.Request().Context(), review.UpsertParams{
		SourceText:     req.SourceText,
		Translation:    req.Translation,
		SourceLang:     req.SourceLang,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("upsert review word failed")
		return internalError(c, "Failed to save review word")
	}
	return successWithStatus(c, http.StatusCreated, word)
}

func (s *Server) handleReviewDelete(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.reviews.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, review.ErrWordNotFound) {
			return failNotFound(c, "Review word not found")
		}
		s.logger.Error().Err(err).Str("word_uuid", id).Msg("delete review word failed")
		return internalError(c, "Failed to delete review word")
	}
	return success(c, nil)
}

func (s *Server) handleReviewDue(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), 20, 1, 100)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	words, err := s.reviews.DueWords(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list due review words failed")
		return internalError(c, "Failed to load due words")
	}
	return success(c, map[string]any{"items": words, "limit": limit})
}

func (s *Server) handleReviewImport(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), 20, 1, 100)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	imported, err := s.reviews.ImportFromHistory(c.Request().Context(), s.historyDB, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("import review words failed")
		return internalError(c, "Failed to import review words")
	}
	return success(c, map[string]any{"imported": imported})
}

type reviewAnswerRequest struct {
	Correct bool `json:"correct"`
}

func (s *Server) handleReviewAnswer(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	var req reviewAnswerRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}

	word, err := s.reviews.RecordAnswer(c.Request().Context(), id, req.Correct)
	if err != nil {
		if errors.Is(err, review.ErrWordNotFound) {
			return failNotFound(c, "Review word not found")
		}
		s.logger.Error().Err(err).Str("word_uuid", id).Msg("record review answer failed")
		return internalError(c, "Failed to record answer")
	}
	return success(c, word)
}
