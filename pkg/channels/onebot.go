// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/command"
	"github.com/zhufengning/lingbot/pkg/config"
	"github.com/zhufengning/lingbot/pkg/logger"
)

// OneBotChannel speaks the OneBot v11 protocol over a WebSocket
// client connection. It is the only channel with a member directory,
// so group rank features work here.
type OneBotChannel struct {
	*BaseChannel
	config      config.OneBotConfig
	conn        *websocket.Conn
	ctx         context.Context
	cancel      context.CancelFunc
	dedup       map[string]struct{}
	dedupRing   []string
	dedupIdx    int
	mu          sync.Mutex
	writeMu     sync.Mutex
	apiWaitMu   sync.Mutex
	echoCounter int64
	nowFunc     func() time.Time
	apiWaiters  map[string]chan oneBotAPIResponse
}

type oneBotRawEvent struct {
	PostType      string          `json:"post_type"`
	MessageType   string          `json:"message_type"`
	SubType       string          `json:"sub_type"`
	MessageID     json.RawMessage `json:"message_id"`
	UserID        json.RawMessage `json:"user_id"`
	GroupID       json.RawMessage `json:"group_id"`
	RawMessage    string          `json:"raw_message"`
	Message       json.RawMessage `json:"message"`
	Sender        json.RawMessage `json:"sender"`
	SelfID        json.RawMessage `json:"self_id"`
	Time          json.RawMessage `json:"time"`
	MetaEventType string          `json:"meta_event_type"`
	Echo          string          `json:"echo"`
	RetCode       json.RawMessage `json:"retcode"`
	Status        BotStatus       `json:"status"`
}

// BotStatus tolerates both the object and bare-string forms different
// OneBot implementations emit.
type BotStatus struct {
	Online bool `json:"online"`
	Good   bool `json:"good"`
	Text   string
}

func (s *BotStatus) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*s = BotStatus{}
		return nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = BotStatus{Text: strings.TrimSpace(text)}
		return nil
	}

	var obj struct {
		Online bool `json:"online"`
		Good   bool `json:"good"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = BotStatus{Online: obj.Online, Good: obj.Good}
	return nil
}

type oneBotSender struct {
	UserID   json.RawMessage `json:"user_id"`
	Nickname string          `json:"nickname"`
	Card     string          `json:"card"`
}

type oneBotEvent struct {
	MessageType   string
	MessageID     string
	UserID        int64
	GroupID       int64
	Content       string
	Mentioned     bool
	Mentions      []string
	Sender        oneBotSender
	SelfID        int64
	Time          int64
	MetaEventType string
}

type oneBotAPIRequest struct {
	Action string      `json:"action"`
	Params interface{} `json:"params"`
	Echo   string      `json:"echo,omitempty"`
}

type oneBotSendPrivateMsgParams struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

type oneBotSendGroupMsgParams struct {
	GroupID int64  `json:"group_id"`
	Message string `json:"message"`
}

type oneBotGroupMemberParams struct {
	GroupID int64 `json:"group_id"`
	UserID  int64 `json:"user_id,omitempty"`
	NoCache bool  `json:"no_cache"`
}

type oneBotGroupMember struct {
	UserID   json.RawMessage `json:"user_id"`
	Nickname string          `json:"nickname"`
	Card     string          `json:"card"`
	Title    string          `json:"title"`
}

type oneBotAPIResponse struct {
	Status  string          `json:"status"`
	RetCode json.RawMessage `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Wording string          `json:"wording"`
	Echo    string          `json:"echo"`
}

func NewOneBotChannel(cfg config.OneBotConfig, messageBus *bus.MessageBus) (*OneBotChannel, error) {
	const dedupSize = 1024

	return &OneBotChannel{
		BaseChannel: NewBaseChannel("onebot", messageBus, cfg.AllowFrom),
		config:      cfg,
		dedup:       make(map[string]struct{}, dedupSize),
		dedupRing:   make([]string, dedupSize),
		nowFunc:     time.Now,
		apiWaiters:  make(map[string]chan oneBotAPIResponse),
	}, nil
}

func (c *OneBotChannel) Start(ctx context.Context) error {
	if c.config.WSUrl == "" {
		return fmt.Errorf("OneBot ws_url not configured")
	}

	logger.InfoCF("onebot", "Starting OneBot channel", map[string]interface{}{
		"ws_url": c.config.WSUrl,
	})

	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.connect(); err != nil {
		logger.WarnCF("onebot", "Initial connection failed, will retry in background", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		go c.listen()
	}

	if c.config.ReconnectInterval > 0 {
		go c.reconnectLoop()
	} else if c.conn == nil {
		return fmt.Errorf("failed to connect to OneBot and reconnect is disabled")
	}

	c.setRunning(true)
	logger.InfoC("onebot", "OneBot channel started successfully")

	return nil
}

func (c *OneBotChannel) connect() error {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	header := make(map[string][]string)
	if c.config.AccessToken != "" {
		header["Authorization"] = []string{"Bearer " + c.config.AccessToken}
	}

	conn, _, err := dialer.Dial(c.config.WSUrl, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	logger.InfoC("onebot", "WebSocket connected")
	return nil
}

func (c *OneBotChannel) reconnectLoop() {
	interval := time.Duration(c.config.ReconnectInterval) * time.Second
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(interval):
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()

			if conn == nil {
				logger.InfoC("onebot", "Attempting to reconnect...")
				if err := c.connect(); err != nil {
					logger.ErrorCF("onebot", "Reconnect failed", map[string]interface{}{
						"error": err.Error(),
					})
				} else {
					go c.listen()
				}
			}
		}
	}
}

func (c *OneBotChannel) Stop(ctx context.Context) error {
	logger.InfoC("onebot", "Stopping OneBot channel")
	c.setRunning(false)

	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	return nil
}

func (c *OneBotChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("OneBot channel not running")
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("OneBot WebSocket not connected")
	}

	action, params, err := c.buildSendRequest(msg)
	if err != nil {
		return err
	}

	req := oneBotAPIRequest{
		Action: action,
		Params: params,
		Echo:   c.nextEcho("send"),
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal OneBot request: %w", err)
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()

	if err != nil {
		logger.ErrorCF("onebot", "Failed to send message", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return err
}

func (c *OneBotChannel) nextEcho(prefix string) string {
	c.writeMu.Lock()
	c.echoCounter++
	echo := fmt.Sprintf("%s_%d", prefix, c.echoCounter)
	c.writeMu.Unlock()
	return echo
}

func (c *OneBotChannel) buildSendRequest(msg bus.OutboundMessage) (string, interface{}, error) {
	chatID := msg.ChatID

	if groupID, ok := strings.CutPrefix(chatID, "group:"); ok {
		id, err := strconv.ParseInt(groupID, 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid group ID in chatID: %s", chatID)
		}
		return "send_group_msg", oneBotSendGroupMsgParams{
			GroupID: id,
			Message: msg.Content,
		}, nil
	}

	userID := strings.TrimPrefix(chatID, "private:")
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid chatID for OneBot: %s", chatID)
	}
	return "send_private_msg", oneBotSendPrivateMsgParams{
		UserID:  id,
		Message: msg.Content,
	}, nil
}

func (c *OneBotChannel) callOneBotAPI(action string, params interface{}, timeout time.Duration) (*oneBotAPIResponse, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("OneBot WebSocket not connected")
	}

	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	echo := c.nextEcho("api")
	waiter := make(chan oneBotAPIResponse, 1)

	c.apiWaitMu.Lock()
	c.apiWaiters[echo] = waiter
	c.apiWaitMu.Unlock()

	defer func() {
		c.apiWaitMu.Lock()
		delete(c.apiWaiters, echo)
		c.apiWaitMu.Unlock()
	}()

	req := oneBotAPIRequest{
		Action: action,
		Params: params,
		Echo:   echo,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OneBot API request: %w", err)
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write OneBot API request: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var done <-chan struct{}
	if c.ctx != nil {
		done = c.ctx.Done()
	}

	select {
	case resp := <-waiter:
		return &resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("OneBot API request timeout: action=%s", action)
	case <-done:
		return nil, fmt.Errorf("OneBot channel stopped")
	}
}

// GroupMembers implements the router's member directory through the
// get_group_member_list API.
func (c *OneBotChannel) GroupMembers(groupID string) ([]command.Member, error) {
	gid, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid group ID: %s", groupID)
	}

	resp, err := c.callOneBotAPI("get_group_member_list", oneBotGroupMemberParams{GroupID: gid}, 0)
	if err != nil {
		return nil, err
	}

	var raw []oneBotGroupMember
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return nil, fmt.Errorf("parse group member list: %w", err)
	}

	members := make([]command.Member, 0, len(raw))
	for _, m := range raw {
		userID, err := parseJSONInt64(m.UserID)
		if err != nil {
			continue
		}
		members = append(members, command.Member{
			UserID:   strconv.FormatInt(userID, 10),
			Nickname: m.Nickname,
			Card:     m.Card,
			Title:    m.Title,
		})
	}
	return members, nil
}

// MemberInfo resolves one member's in-group display fields.
func (c *OneBotChannel) MemberInfo(groupID, userID string) (command.Member, error) {
	gid, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return command.Member{}, fmt.Errorf("invalid group ID: %s", groupID)
	}
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return command.Member{}, fmt.Errorf("invalid user ID: %s", userID)
	}

	resp, err := c.callOneBotAPI("get_group_member_info", oneBotGroupMemberParams{GroupID: gid, UserID: uid}, 0)
	if err != nil {
		return command.Member{}, err
	}

	var raw oneBotGroupMember
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return command.Member{}, fmt.Errorf("parse group member info: %w", err)
	}

	return command.Member{
		UserID:   userID,
		Nickname: raw.Nickname,
		Card:     raw.Card,
		Title:    raw.Title,
	}, nil
}

func (c *OneBotChannel) listen() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()

			if conn == nil {
				logger.WarnC("onebot", "WebSocket connection is nil, listener exiting")
				return
			}

			_, message, err := conn.ReadMessage()
			if err != nil {
				logger.ErrorCF("onebot", "WebSocket read error", map[string]interface{}{
					"error": err.Error(),
				})
				c.mu.Lock()
				if c.conn != nil {
					c.conn.Close()
					c.conn = nil
				}
				c.mu.Unlock()
				return
			}

			var raw oneBotRawEvent
			if err := json.Unmarshal(message, &raw); err != nil {
				logger.WarnCF("onebot", "Failed to unmarshal raw event", map[string]interface{}{
					"error":   err.Error(),
					"payload": string(message),
				})
				continue
			}

			if raw.Echo != "" {
				c.dispatchAPIResponse(raw, message)
				continue
			}

			rawCopy := raw
			go c.handleRawEvent(&rawCopy)
		}
	}
}

func (c *OneBotChannel) dispatchAPIResponse(raw oneBotRawEvent, payload []byte) {
	var resp oneBotAPIResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		resp = oneBotAPIResponse{Echo: raw.Echo}
	}

	if resp.Echo == "" {
		resp.Echo = raw.Echo
	}
	if resp.Status == "" {
		resp.Status = raw.Status.Text
	}

	c.apiWaitMu.Lock()
	waiter := c.apiWaiters[resp.Echo]
	c.apiWaitMu.Unlock()
	if waiter == nil {
		return
	}

	select {
	case waiter <- resp:
	default:
	}
}

func parseJSONInt64(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(s, 10, 64)
	}
	return 0, fmt.Errorf("cannot parse as int64: %s", string(raw))
}

func parseJSONString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type parseMessageResult struct {
	Text      string
	Mentioned bool
	Mentions  []string
}

var oneBotCQPattern = regexp.MustCompile(`\[CQ:([a-zA-Z0-9_]+)(?:,([^\]]*))?\]`)

// parseMessageContentEx extracts plain text and @-mention targets
// from either message encoding OneBot uses: a CQ-code string or a
// segment array. Mentions of the bot itself set Mentioned instead of
// appearing in Mentions.
func parseMessageContentEx(raw json.RawMessage, rawMessage string, selfID int64) parseMessageResult {
	if len(raw) == 0 {
		return parseMessageResult{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseOneBotCQMessage(s, selfID)
	}

	var segments []map[string]interface{}
	if err := json.Unmarshal(raw, &segments); err == nil {
		var text strings.Builder
		result := parseMessageResult{}
		selfIDStr := strconv.FormatInt(selfID, 10)
		for _, seg := range segments {
			segType, _ := seg["type"].(string)
			data, _ := seg["data"].(map[string]interface{})
			switch segType {
			case "text":
				if data != nil {
					if t, ok := data["text"].(string); ok {
						text.WriteString(t)
					}
				}
			case "at":
				if data == nil {
					continue
				}
				qqVal := oneBotDataString(data["qq"])
				if selfID > 0 && (qqVal == selfIDStr || qqVal == "all") {
					result.Mentioned = true
				} else if qqVal != "" {
					result.Mentions = append(result.Mentions, qqVal)
				}
			}
		}
		result.Text = strings.TrimSpace(text.String())
		return result
	}

	trimmedRaw := strings.TrimSpace(rawMessage)
	return parseMessageResult{Text: trimmedRaw}
}

func oneBotDataString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func parseOneBotCQMessage(content string, selfID int64) parseMessageResult {
	matches := oneBotCQPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return parseMessageResult{Text: strings.TrimSpace(content)}
	}

	selfIDStr := strconv.FormatInt(selfID, 10)
	result := parseMessageResult{}
	var textBuilder strings.Builder
	cursor := 0

	for _, m := range matches {
		if m[0] > cursor {
			textBuilder.WriteString(content[cursor:m[0]])
		}

		segType := content[m[2]:m[3]]
		paramsRaw := ""
		if m[4] >= 0 && m[5] >= 0 {
			paramsRaw = content[m[4]:m[5]]
		}
		params := parseOneBotCQParams(paramsRaw)

		if segType == "at" {
			qqVal := strings.TrimSpace(params["qq"])
			if selfID > 0 && (qqVal == selfIDStr || qqVal == "all") {
				result.Mentioned = true
			} else if qqVal != "" {
				result.Mentions = append(result.Mentions, qqVal)
			}
		}
		cursor = m[1]
	}

	if cursor < len(content) {
		textBuilder.WriteString(content[cursor:])
	}

	result.Text = strings.TrimSpace(textBuilder.String())
	return result
}

func parseOneBotCQParams(params string) map[string]string {
	result := make(map[string]string)
	if params == "" {
		return result
	}

	for _, item := range strings.Split(params, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		result[key] = strings.TrimSpace(parts[1])
	}
	return result
}

func (c *OneBotChannel) handleRawEvent(raw *oneBotRawEvent) {
	switch raw.PostType {
	case "message":
		evt, err := c.normalizeMessageEvent(raw)
		if err != nil {
			logger.WarnCF("onebot", "Failed to normalize message event", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		c.handleMessage(evt)
	case "meta_event":
		c.handleMetaEvent(raw)
	default:
		logger.DebugCF("onebot", "Ignoring event", map[string]interface{}{
			"post_type": raw.PostType,
			"sub_type":  raw.SubType,
		})
	}
}

func (c *OneBotChannel) normalizeMessageEvent(raw *oneBotRawEvent) (*oneBotEvent, error) {
	userID, err := parseJSONInt64(raw.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w (raw: %s)", err, string(raw.UserID))
	}

	groupID, _ := parseJSONInt64(raw.GroupID)
	selfID, _ := parseJSONInt64(raw.SelfID)
	ts, _ := parseJSONInt64(raw.Time)
	messageID := parseJSONString(raw.MessageID)

	parsed := parseMessageContentEx(raw.Message, raw.RawMessage, selfID)
	mentioned := parsed.Mentioned

	content := parsed.Text
	if content == "" {
		content = strings.TrimSpace(raw.RawMessage)
	}
	if content != "" && selfID > 0 {
		cqAt := fmt.Sprintf("[CQ:at,qq=%d]", selfID)
		if strings.Contains(content, cqAt) {
			mentioned = true
			content = strings.TrimSpace(strings.ReplaceAll(content, cqAt, ""))
		}
	}

	var sender oneBotSender
	if len(raw.Sender) > 0 {
		if err := json.Unmarshal(raw.Sender, &sender); err != nil {
			logger.WarnCF("onebot", "Failed to parse sender", map[string]interface{}{
				"error":  err.Error(),
				"sender": string(raw.Sender),
			})
		}
	}

	return &oneBotEvent{
		MessageType:   raw.MessageType,
		MessageID:     messageID,
		UserID:        userID,
		GroupID:       groupID,
		Content:       content,
		Mentioned:     mentioned,
		Mentions:      parsed.Mentions,
		Sender:        sender,
		SelfID:        selfID,
		Time:          ts,
		MetaEventType: raw.MetaEventType,
	}, nil
}

func (c *OneBotChannel) handleMetaEvent(raw *oneBotRawEvent) {
	switch raw.MetaEventType {
	case "lifecycle":
		logger.InfoCF("onebot", "Lifecycle event", map[string]interface{}{
			"sub_type": raw.SubType,
		})
	case "heartbeat":
		logger.DebugC("onebot", "Heartbeat received")
	default:
		logger.DebugCF("onebot", "Unknown meta_event_type", map[string]interface{}{
			"meta_event_type": raw.MetaEventType,
		})
	}
}

func (c *OneBotChannel) handleMessage(evt *oneBotEvent) {
	if c.isDuplicate(evt.MessageID) {
		logger.DebugCF("onebot", "Duplicate message, skipping", map[string]interface{}{
			"message_id": evt.MessageID,
		})
		return
	}

	content := strings.TrimSpace(evt.Content)
	if content == "" {
		return
	}

	senderID := strconv.FormatInt(evt.UserID, 10)
	if !c.IsAllowed(senderID) {
		logger.DebugCF("onebot", "Message ignored (sender not allowed)", map[string]interface{}{
			"sender":     senderID,
			"message_id": evt.MessageID,
		})
		return
	}

	senderName := evt.Sender.Card
	if senderName == "" {
		senderName = evt.Sender.Nickname
	}

	var chatID, groupIDStr string
	switch evt.MessageType {
	case "private":
		chatID = "private:" + senderID

	case "group":
		groupIDStr = strconv.FormatInt(evt.GroupID, 10)
		if !c.isGroupAllowed(groupIDStr) {
			logger.DebugCF("onebot", "Group message ignored (group not allowed)", map[string]interface{}{
				"sender": senderID,
				"group":  groupIDStr,
			})
			return
		}

		triggered, stripped := c.checkGroupTrigger(content, evt.Mentioned)
		if !triggered {
			return
		}
		content = stripped
		chatID = "group:" + groupIDStr

	default:
		logger.WarnCF("onebot", "Unknown message type, cannot route", map[string]interface{}{
			"type":       evt.MessageType,
			"message_id": evt.MessageID,
		})
		return
	}

	logger.DebugCF("onebot", "Forwarding message to bus", map[string]interface{}{
		"sender_id": senderID,
		"chat_id":   chatID,
	})

	c.Publish(bus.InboundMessage{
		Channel:    c.Name(),
		SenderID:   senderID,
		SenderName: senderName,
		ChatID:     chatID,
		GroupID:    groupIDStr,
		Content:    content,
		Mentions:   evt.Mentions,
	})
}

func (c *OneBotChannel) isDuplicate(messageID string) bool {
	if messageID == "" || messageID == "0" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.dedup[messageID]; exists {
		return true
	}

	if old := c.dedupRing[c.dedupIdx]; old != "" {
		delete(c.dedup, old)
	}
	c.dedupRing[c.dedupIdx] = messageID
	c.dedup[messageID] = struct{}{}
	c.dedupIdx = (c.dedupIdx + 1) % len(c.dedupRing)

	return false
}

// checkGroupTrigger decides whether a group message is addressed to
// the bot. With no prefixes configured every group message passes
// through and the router filters non-commands.
func (c *OneBotChannel) checkGroupTrigger(content string, mentioned bool) (bool, string) {
	if mentioned {
		return true, strings.TrimSpace(content)
	}

	if len(c.config.GroupTriggerPrefix) == 0 {
		return true, content
	}

	for _, prefix := range c.config.GroupTriggerPrefix {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(content, prefix) {
			return true, strings.TrimSpace(strings.TrimPrefix(content, prefix))
		}
	}
	return false, content
}

func (c *OneBotChannel) isGroupAllowed(groupID string) bool {
	if len(c.config.AllowGroups) == 0 {
		return true
	}

	for _, allowed := range c.config.AllowGroups {
		normalized := strings.TrimSpace(strings.TrimPrefix(allowed, "group:"))
		if normalized == groupID {
			return true
		}
	}
	return false
}
