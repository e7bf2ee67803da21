package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gymtrack_app_echo/internal/config"
)

// WahaService talks to a WAHA (WhatsApp HTTP API) instance
type WahaService struct {
	baseURL string
	apiKey  string
	session string
	client  *http.Client

	// pauses between seen, typing and send
	pauses [3]time.Duration
}

func NewWahaService(cfg config.WahaConfig) *WahaService {
	url := strings.TrimRight(cfg.BaseURL, "/")
	if url == "" {
		url = "http://waha:3000"
	}
	return &WahaService{
		baseURL: url,
		apiKey:  cfg.APIKey,
		session: "default",
		client:  &http.Client{Timeout: 15 * time.Second},
		pauses:  [3]time.Duration{100 * time.Millisecond, 150 * time.Millisecond, 50 * time.Millisecond},
	}
}

func (s *WahaService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (s *WahaService) chatAction(ctx context.Context, endpoint, chatID string) error {
	return s.makeRequest(ctx, http.MethodPost, endpoint, map[string]string{
		"chatId":  chatID,
		"session": s.session,
	})
}

func (s *WahaService) sendText(ctx context.Context, chatID, text string) error {
	return s.makeRequest(ctx, http.MethodPost, "/api/sendText", map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": s.session,
	})
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NormalizeChatID normalizes WhatsApp chat IDs by adding required suffixes and standardizing country codes
func NormalizeChatID(chatID string) string {
	chatID = strings.TrimSpace(chatID)

	// If it's already a group ID, it's correct
	if strings.HasSuffix(chatID, "@g.us") {
		return chatID
	}

	chatID = strings.TrimSuffix(chatID, "@c.us")
	chatID = strings.TrimPrefix(chatID, "+")

	// Standardize Indonesian numbers starting with '0' to '62'
	if strings.HasPrefix(chatID, "0") {
		chatID = "62" + strings.TrimPrefix(chatID, "0")
	}

	return chatID + "@c.us"
}

// GroupChatID appends the group suffix when it is missing
func GroupChatID(groupID string) string {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" || strings.HasSuffix(groupID, "@g.us") {
		return groupID
	}
	return groupID + "@g.us"
}

// SendMessage sends a message with authentic behavior (seen -> typing -> stop typing -> send)
func (s *WahaService) SendMessage(ctx context.Context, chatID, text string) error {
	chatID = NormalizeChatID(chatID)

	if err := s.chatAction(ctx, "/api/sendSeen", chatID); err != nil {
		return fmt.Errorf("failed to send seen: %w", err)
	}
	if err := pause(ctx, s.pauses[0]); err != nil {
		return err
	}

	if err := s.chatAction(ctx, "/api/startTyping", chatID); err != nil {
		return fmt.Errorf("failed to start typing: %w", err)
	}
	if err := pause(ctx, s.pauses[1]); err != nil {
		return err
	}

	if err := s.chatAction(ctx, "/api/stopTyping", chatID); err != nil {
		return fmt.Errorf("failed to stop typing: %w", err)
	}
	if err := pause(ctx, s.pauses[2]); err != nil {
		return err
	}

	if err := s.sendText(ctx, chatID, text); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}

	return nil
}
