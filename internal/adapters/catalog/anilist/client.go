package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
)

const (
	DefaultURL            = "https://graphql.anilist.co"
	DefaultRequestTimeout = 30 * time.Second
	SearchPageSize        = 25
	maxResponseBytes      = 4 << 20
)

// Client is the AniList GraphQL implementation of ports.Catalog.
type Client struct {
	URL            string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Catalog = Client{}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c Client) FindUser(ctx context.Context, idOrName string) (domain.User, error) {
	var data userData
	err := c.findByIDOrName(ctx, idOrName, queryUserByID, queryUserByName, nil, &data, func() bool { return data.User != nil })
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return data.User.toDomain(), nil
}

func (c Client) FindMedia(ctx context.Context, idOrName string, mediaType domain.MediaType) (domain.Media, error) {
	var data mediaData
	extra := map[string]any{"type": string(mediaType)}
	err := c.findByIDOrName(ctx, idOrName, queryMediaByID, queryMediaByName, extra, &data, func() bool { return data.Media != nil })
	if err != nil {
		return domain.Media{}, fmt.Errorf("find %s: %w", strings.ToLower(string(mediaType)), err)
	}
	return data.Media.toDomain(), nil
}

func (c Client) FindCharacter(ctx context.Context, idOrName string) (domain.Character, error) {
	var data characterData
	err := c.findByIDOrName(ctx, idOrName, queryCharacterByID, queryCharacterByName, nil, &data, func() bool { return data.Character != nil })
	if err != nil {
		return domain.Character{}, fmt.Errorf("find character: %w", err)
	}
	return data.Character.toDomain(), nil
}

func (c Client) SearchMedia(ctx context.Context, query string, mediaType domain.MediaType) ([]domain.Media, error) {
	variables := searchVariables(query)
	if mediaType != "" {
		variables["type"] = string(mediaType)
	}

	var data pageData
	if err := c.post(ctx, querySearchMedia, variables, &data); err != nil {
		return nil, fmt.Errorf("search media: %w", err)
	}

	media := make([]domain.Media, 0, len(data.Page.Media))
	for _, item := range data.Page.Media {
		media = append(media, item.toDomain())
	}
	return media, nil
}

func (c Client) SearchCharacters(ctx context.Context, query string) ([]domain.Character, error) {
	var data pageData
	if err := c.post(ctx, querySearchCharacters, searchVariables(query), &data); err != nil {
		return nil, fmt.Errorf("search characters: %w", err)
	}

	characters := make([]domain.Character, 0, len(data.Page.Characters))
	for _, item := range data.Page.Characters {
		characters = append(characters, item.toDomain())
	}
	return characters, nil
}

func (c Client) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	var data pageData
	if err := c.post(ctx, querySearchUsers, searchVariables(query), &data); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	users := make([]domain.User, 0, len(data.Page.Users))
	for _, item := range data.Page.Users {
		users = append(users, item.toDomain())
	}
	return users, nil
}

// GetListEntry returns ports.ErrNotFound when the media is not on the user's
// list. Every other failure wraps ports.ErrTransient or is a request error.
func (c Client) GetListEntry(ctx context.Context, catalogUserID int, mediaID int) (domain.ListEntry, error) {
	var data listEntryData
	variables := map[string]any{"userId": catalogUserID, "mediaId": mediaID}
	if err := c.post(ctx, queryListEntry, variables, &data); err != nil {
		return domain.ListEntry{}, fmt.Errorf("get list entry of user %d for media %d: %w", catalogUserID, mediaID, err)
	}
	if data.MediaList == nil {
		return domain.ListEntry{}, fmt.Errorf("get list entry of user %d for media %d: %w", catalogUserID, mediaID, ports.ErrNotFound)
	}
	return data.MediaList.toDomain(), nil
}

func (c Client) SeasonalMedia(ctx context.Context, season domain.Season, year int, page int, perPage int) ([]domain.Media, error) {
	variables := map[string]any{"season": string(season), "year": year, "page": page, "perPage": perPage}

	var data pageData
	if err := c.post(ctx, querySeasonal, variables, &data); err != nil {
		return nil, fmt.Errorf("seasonal media %s %d: %w", season, year, err)
	}

	media := make([]domain.Media, 0, len(data.Page.Media))
	for _, item := range data.Page.Media {
		media = append(media, item.toDomain())
	}
	return media, nil
}

func (c Client) TopMedia(ctx context.Context, catalogUserID int, page int, perPage int) ([]domain.TopEntry, error) {
	variables := map[string]any{"userId": catalogUserID, "page": page, "perPage": perPage}

	var data pageData
	if err := c.post(ctx, queryTopMedia, variables, &data); err != nil {
		return nil, fmt.Errorf("top media of user %d: %w", catalogUserID, err)
	}

	entries := make([]domain.TopEntry, 0, len(data.Page.MediaList))
	for _, item := range data.Page.MediaList {
		entries = append(entries, domain.TopEntry{Media: item.Media.toDomain(), Score: item.Score})
	}
	return entries, nil
}

// findByIDOrName tries a numeric lookup first and falls back to a name
// search, mirroring how users type either form in chat.
func (c Client) findByIDOrName(ctx context.Context, idOrName, byID, byName string, extra map[string]any, out any, found func() bool) error {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return ports.ErrNotFound
	}

	if id, err := strconv.Atoi(idOrName); err == nil && id > 0 {
		err := c.post(ctx, byID, withVariables(extra, "id", id), out)
		switch {
		case err == nil && found():
			return nil
		case err != nil && !errors.Is(err, ports.ErrNotFound):
			return err
		}
	}

	if err := c.post(ctx, byName, withVariables(extra, "search", idOrName), out); err != nil {
		return err
	}
	if !found() {
		return ports.ErrNotFound
	}
	return nil
}

func (c Client) post(ctx context.Context, query string, variables map[string]any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("post graphql query: %w: %w", ports.ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ports.ErrTransient, resp.StatusCode)
	}

	var payload graphQLResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return fmt.Errorf("decode graphql response: %w: %w", ports.ErrTransient, err)
	}

	if gqlErr := classifyErrors(resp.StatusCode, payload.Errors); gqlErr != nil {
		return gqlErr
	}
	if len(payload.Data) == 0 || string(payload.Data) == "null" {
		return fmt.Errorf("%w: graphql response has no data", ports.ErrTransient)
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w: %w", ports.ErrTransient, err)
	}
	return nil
}

func classifyErrors(statusCode int, gqlErrors []graphQLError) error {
	for _, gqlErr := range gqlErrors {
		if gqlErr.Status == http.StatusNotFound {
			return ports.ErrNotFound
		}
	}
	if statusCode == http.StatusNotFound {
		return ports.ErrNotFound
	}

	if len(gqlErrors) > 0 {
		messages := make([]string, 0, len(gqlErrors))
		for _, gqlErr := range gqlErrors {
			if gqlErr.Status == http.StatusTooManyRequests || gqlErr.Status >= http.StatusInternalServerError {
				return fmt.Errorf("%w: %s", ports.ErrTransient, gqlErr.Message)
			}
			messages = append(messages, gqlErr.Message)
		}
		return fmt.Errorf("graphql: %s", strings.Join(messages, "; "))
	}
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("graphql: status %d", statusCode)
	}
	return nil
}

func (c Client) endpoint() (string, error) {
	raw := c.URL
	if raw == "" {
		raw = DefaultURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("catalog url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("catalog url host is required")
	}
	return parsed.String(), nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, requestTimeout)
}

func searchVariables(query string) map[string]any {
	return map[string]any{"search": strings.TrimSpace(query), "page": 1, "perPage": SearchPageSize}
}

func withVariables(base map[string]any, key string, value any) map[string]any {
	variables := make(map[string]any, len(base)+1)
	for k, v := range base {
		variables[k] = v
	}
	variables[key] = value
	return variables
}
