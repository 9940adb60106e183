// Package telegram is a minimal Bot API client covering the calls the
// prompt battle bot needs: long polling, messaging, membership checks and
// document upload.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

func NewClient(token string) *Client {
	return &Client{
		token: token,
		// Long polls run up to 30s server-side; leave headroom.
		httpClient: &http.Client{Timeout: 50 * time.Second},
		baseURL:    fmt.Sprintf("https://api.telegram.org/bot%s", token),
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp.Body)
}

func decodeResponse(r io.Reader) (json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram: %s", apiResp.Description)
	}
	return apiResp.Result, nil
}

func (c *Client) GetMe(ctx context.Context) (User, error) {
	result, err := c.call(ctx, "getMe", struct{}{})
	if err != nil {
		return User{}, err
	}
	var me User
	if err := json.Unmarshal(result, &me); err != nil {
		return User{}, fmt.Errorf("unmarshal: %w", err)
	}
	return me, nil
}

// GetUpdates long-polls for updates past offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	result, err := c.call(ctx, "getUpdates", getUpdatesRequest{Offset: offset, Timeout: timeoutSeconds})
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return updates, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup interface{}) error {
	req := sendMessageRequest{ChatID: chatID, Text: text}
	if replyMarkup != nil {
		rm, err := json.Marshal(replyMarkup)
		if err != nil {
			return fmt.Errorf("marshal markup: %w", err)
		}
		req.ReplyMarkup = rm
	}
	_, err := c.call(ctx, "sendMessage", req)
	return err
}

// SendPhoto sends a photo already stored on Telegram servers by file id.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	_, err := c.call(ctx, "sendPhoto", sendPhotoRequest{ChatID: chatID, Photo: fileID, Caption: caption})
	return err
}

// SendDocument uploads a file as a document via multipart form data.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("form: %w", err)
		}
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendDocument", &buf)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	_, err = decodeResponse(resp.Body)
	return err
}

// GetChatMember reports the user's membership in a chat or channel; the
// chat may be a numeric id or an @channelname.
func (c *Client) GetChatMember(ctx context.Context, chatID string, userID int64) (ChatMember, error) {
	result, err := c.call(ctx, "getChatMember", getChatMemberRequest{ChatID: chatID, UserID: userID})
	if err != nil {
		return ChatMember{}, err
	}
	var member ChatMember
	if err := json.Unmarshal(result, &member); err != nil {
		return ChatMember{}, fmt.Errorf("unmarshal: %w", err)
	}
	return member, nil
}

// SetMyCommands registers the command list, optionally scoped to one chat.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand, scope interface{}) error {
	req := setMyCommandsRequest{Commands: commands}
	if scope != nil {
		s, err := json.Marshal(scope)
		if err != nil {
			return fmt.Errorf("marshal scope: %w", err)
		}
		req.Scope = s
	}
	_, err := c.call(ctx, "setMyCommands", req)
	return err
}
