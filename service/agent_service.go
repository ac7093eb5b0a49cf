package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"finance-agent/domain"
)

const (
	agentAPIVersion = "2021-06-14"
	fallbackReply   = "I processed your request, but didn't receive a text response."
)

type AgentConfig struct {
	InstanceURL string
	AgentEnvID  string
	Timeout     time.Duration
}

// AgentService forwards chat messages to the orchestrate assistant runtime
// and returns the first text reply.
type AgentService struct {
	instanceURL string
	envID       string
	tokens      TokenSource
	httpClient  *http.Client
	log         logrus.FieldLogger
}

type agentMessageRequest struct {
	Input agentInput `json:"input"`
}

type agentInput struct {
	MessageType string `json:"message_type"`
	Text        string `json:"text"`
}

type agentMessageResponse struct {
	Output struct {
		Generic []struct {
			Text string `json:"text"`
		} `json:"generic"`
	} `json:"output"`
}

func NewAgentService(cfg AgentConfig, tokens TokenSource, log logrus.FieldLogger) *AgentService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AgentService{
		instanceURL: strings.TrimRight(strings.TrimSpace(cfg.InstanceURL), "/"),
		envID:       strings.TrimSpace(cfg.AgentEnvID),
		tokens:      tokens,
		httpClient:  &http.Client{Timeout: timeout},
		log:         log.WithField("component", "agent"),
	}
}

func (s *AgentService) Chat(ctx context.Context, text string) (domain.ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatReply{}, domain.InvalidInput("text is required")
	}
	if s.envID == "" {
		return domain.ChatReply{}, domain.AgentNotConfigured("missing ORCH_AGENT_ENV_ID")
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return domain.ChatReply{}, err
	}

	body, err := json.Marshal(agentMessageRequest{
		Input: agentInput{MessageType: "text", Text: text},
	})
	if err != nil {
		return domain.ChatReply{}, err
	}

	endpoint := fmt.Sprintf("%s/instances/api/v2/assistants/%s/message?version=%s",
		s.instanceURL, url.PathEscape(s.envID), agentAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.log.WithField("status", resp.StatusCode).Warn("agent runtime rejected message")
		return domain.ChatReply{}, &domain.UpstreamError{
			Service:    "agent",
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	var msg agentMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return domain.ChatReply{}, fmt.Errorf("decode agent response: %w", err)
	}

	reply := ""
	if len(msg.Output.Generic) > 0 {
		reply = msg.Output.Generic[0].Text
	}
	if reply == "" {
		reply = fallbackReply
	}
	return domain.ChatReply{Reply: reply}, nil
}
