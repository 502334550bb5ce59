package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/domain"
)

const apiBaseURL = "https://discord.com/api/v10"

// Discord-side error code for a member that left or was removed.
const errCodeUnknownMember = 10007

// APIError is a non-2xx response carrying the platform's error payload.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord API error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// RestClient talks to the chat platform's REST API with a bot token.
type RestClient struct {
	baseURL string
	token   string
	http    *fasthttp.Client
	logger  zerolog.Logger
}

func NewRestClient(token string, logger zerolog.Logger) *RestClient {
	return &RestClient{
		baseURL: apiBaseURL,
		token:   token,
		http: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.DiscordAPITimeout,
			WriteTimeout:        constants.DiscordAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger.With().Str("component", "discord").Logger(),
	}
}

type memberResponse struct {
	Roles []domain.RoleID `json:"roles"`
}

func (c *RestClient) GetMemberRoles(ctx context.Context, guildID domain.GuildID, userID domain.UserID) ([]domain.RoleID, error) {
	url := fmt.Sprintf("%s/guilds/%s/members/%s", c.baseURL, guildID, userID)

	body, err := c.do(ctx, fasthttp.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}

	var member memberResponse
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, err
	}

	return member.Roles, nil
}

func (c *RestClient) AddMemberRole(ctx context.Context, guildID domain.GuildID, userID domain.UserID, roleID domain.RoleID) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", c.baseURL, guildID, userID, roleID)

	_, err := c.do(ctx, fasthttp.MethodPut, url, nil, "")
	return err
}

func (c *RestClient) RemoveMemberRole(ctx context.Context, guildID domain.GuildID, userID domain.UserID, roleID domain.RoleID) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", c.baseURL, guildID, userID, roleID)

	_, err := c.do(ctx, fasthttp.MethodDelete, url, nil, "")
	return err
}

type messageResponse struct {
	ID string `json:"id"`
}

type messagePayload struct {
	Content         string           `json:"content"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

func (c *RestClient) SendMessage(ctx context.Context, channelID domain.ChannelID, message Message) (string, error) {
	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)

	payload := messagePayload{
		Content:         message.Content,
		AllowedMentions: message.AllowedMentions,
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	if len(message.Files) > 0 {
		body, contentType, err = multipartBody(payload, message.Files)
		if err != nil {
			return "", err
		}
	} else {
		body, err = json.Marshal(payload)
		if err != nil {
			return "", err
		}
		contentType = "application/json"
	}

	respBody, err := c.do(ctx, fasthttp.MethodPost, url, body, contentType)
	if err != nil {
		return "", err
	}

	var sent messageResponse
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return "", err
	}

	return sent.ID, nil
}

type threadPayload struct {
	Name                string `json:"name"`
	AutoArchiveDuration int    `json:"auto_archive_duration"`
	Type                int    `json:"type"`
}

// CreateThread opens a public thread under the channel.
func (c *RestClient) CreateThread(ctx context.Context, channelID domain.ChannelID, name string) (domain.ChannelID, error) {
	url := fmt.Sprintf("%s/channels/%s/threads", c.baseURL, channelID)

	body, err := json.Marshal(threadPayload{
		Name:                name,
		AutoArchiveDuration: int(constants.ThreadAutoArchive.Minutes()),
		Type:                11,
	})
	if err != nil {
		return "", err
	}

	respBody, err := c.do(ctx, fasthttp.MethodPost, url, body, "application/json")
	if err != nil {
		return "", err
	}

	var thread messageResponse
	if err := json.Unmarshal(respBody, &thread); err != nil {
		return "", err
	}

	return domain.ChannelID(thread.ID), nil
}

func (c *RestClient) PinMessage(ctx context.Context, channelID domain.ChannelID, messageID string) error {
	url := fmt.Sprintf("%s/channels/%s/pins/%s", c.baseURL, channelID, messageID)

	_, err := c.do(ctx, fasthttp.MethodPut, url, nil, "")
	return err
}

type rateLimitResponse struct {
	RetryAfter float64 `json:"retry_after"`
}

func (c *RestClient) do(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	for {
		respBody, retryAfter, err := c.doOnce(ctx, method, url, body, contentType)
		if retryAfter <= 0 {
			return respBody, err
		}

		c.logger.Warn().Dur("retry_after", retryAfter).Str("url", url).Msg("rate limited, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryAfter):
		}
	}
}

func (c *RestClient) doOnce(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, time.Duration, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bot "+c.token)
	if len(body) > 0 {
		req.Header.SetContentType(contentType)
		req.SetBody(body)
	}

	deadline := time.Now().Add(constants.DiscordAPITimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	status := resp.StatusCode()
	respBody := append([]byte(nil), resp.Body()...)

	if status == fasthttp.StatusTooManyRequests {
		var limited rateLimitResponse
		retryAfter := time.Second
		if err := json.Unmarshal(respBody, &limited); err == nil && limited.RetryAfter > 0 {
			retryAfter = time.Duration(limited.RetryAfter * float64(time.Second))
		}
		return nil, retryAfter, nil
	}

	if status < 200 || status > 299 {
		apiErr := &APIError{StatusCode: status}
		_ = json.Unmarshal(respBody, apiErr)

		if apiErr.Code == errCodeUnknownMember {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownMember, apiErr.Message)
		}
		return nil, 0, apiErr
	}

	return respBody, 0, nil
}

func multipartBody(payload messagePayload, files []File) ([]byte, string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormField("payload_json")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payloadJSON); err != nil {
		return nil, "", err
	}

	for i, file := range files {
		part, err := writer.CreateFormFile(fmt.Sprintf("files[%d]", i), file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Body); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
