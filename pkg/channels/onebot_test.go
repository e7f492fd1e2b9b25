package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/config"
)

func TestParseMessageContentEx_SegmentArray(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"text","data":{"text":"lq rank "}},
		{"type":"at","data":{"qq":"2002"}}
	]`)

	result := parseMessageContentEx(raw, "", 9999)

	if result.Text != "lq rank" {
		t.Fatalf("text = %q, want %q", result.Text, "lq rank")
	}
	if result.Mentioned {
		t.Fatal("bot should not be mentioned")
	}
	if len(result.Mentions) != 1 || result.Mentions[0] != "2002" {
		t.Fatalf("mentions = %v, want [2002]", result.Mentions)
	}
}

func TestParseMessageContentEx_SelfMentionSetsMentioned(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"at","data":{"qq":"9999"}},
		{"type":"text","data":{"text":" lq"}}
	]`)

	result := parseMessageContentEx(raw, "", 9999)

	if !result.Mentioned {
		t.Fatal("expected bot mention to be detected")
	}
	if len(result.Mentions) != 0 {
		t.Fatalf("mentions = %v, want empty", result.Mentions)
	}
	if result.Text != "lq" {
		t.Fatalf("text = %q, want %q", result.Text, "lq")
	}
}

func TestParseMessageContentEx_NumericQQValue(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"at","data":{"qq":2002}},
		{"type":"text","data":{"text":"lq"}}
	]`)

	result := parseMessageContentEx(raw, "", 9999)

	if len(result.Mentions) != 1 || result.Mentions[0] != "2002" {
		t.Fatalf("mentions = %v, want [2002]", result.Mentions)
	}
}

func TestParseMessageContentEx_CQString(t *testing.T) {
	raw := json.RawMessage(`"lq initialize [CQ:at,qq=2002] --confirm"`)

	result := parseMessageContentEx(raw, "", 9999)

	if result.Text != "lq initialize  --confirm" {
		t.Fatalf("text = %q", result.Text)
	}
	if len(result.Mentions) != 1 || result.Mentions[0] != "2002" {
		t.Fatalf("mentions = %v, want [2002]", result.Mentions)
	}
}

func TestParseMessageContentEx_CQStringMentionAll(t *testing.T) {
	raw := json.RawMessage(`"[CQ:at,qq=all] hello"`)

	result := parseMessageContentEx(raw, "", 9999)

	if !result.Mentioned {
		t.Fatal("expected @all to count as a bot mention")
	}
	if result.Text != "hello" {
		t.Fatalf("text = %q, want %q", result.Text, "hello")
	}
}

func TestCheckGroupTrigger(t *testing.T) {
	msgBus := bus.NewMessageBus()
	ch, err := NewOneBotChannel(config.OneBotConfig{
		GroupTriggerPrefix: []string{"!"},
	}, msgBus)
	if err != nil {
		t.Fatalf("NewOneBotChannel() error = %v", err)
	}

	if ok, got := ch.checkGroupTrigger("!lq", false); !ok || got != "lq" {
		t.Fatalf("prefix trigger = (%v, %q), want (true, lq)", ok, got)
	}
	if ok, _ := ch.checkGroupTrigger("lq", false); ok {
		t.Fatal("message without prefix should not trigger")
	}
	if ok, got := ch.checkGroupTrigger("lq", true); !ok || got != "lq" {
		t.Fatalf("mention trigger = (%v, %q), want (true, lq)", ok, got)
	}
}

func TestCheckGroupTrigger_NoPrefixPassesEverything(t *testing.T) {
	msgBus := bus.NewMessageBus()
	ch, err := NewOneBotChannel(config.OneBotConfig{}, msgBus)
	if err != nil {
		t.Fatalf("NewOneBotChannel() error = %v", err)
	}

	if ok, got := ch.checkGroupTrigger("随便聊聊", false); !ok || got != "随便聊聊" {
		t.Fatalf("trigger = (%v, %q), want passthrough", ok, got)
	}
}

func TestOneBotHandleMessage_GroupAllowedByDefault(t *testing.T) {
	msgBus := bus.NewMessageBus()
	ch, err := NewOneBotChannel(config.OneBotConfig{}, msgBus)
	if err != nil {
		t.Fatalf("NewOneBotChannel() error = %v", err)
	}

	ch.handleMessage(&oneBotEvent{
		MessageType: "group",
		MessageID:   "m1",
		UserID:      2002,
		GroupID:     1001,
		Content:     "lq",
		Mentioned:   true,
		Mentions:    []string{"3003"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	msg, ok := msgBus.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected inbound message, got none")
	}
	if msg.ChatID != "group:1001" {
		t.Fatalf("chat_id = %q, want %q", msg.ChatID, "group:1001")
	}
	if msg.GroupID != "1001" {
		t.Fatalf("group_id = %q, want %q", msg.GroupID, "1001")
	}
	if len(msg.Mentions) != 1 || msg.Mentions[0] != "3003" {
		t.Fatalf("mentions = %v, want [3003]", msg.Mentions)
	}
}

func TestOneBotHandleMessage_GroupNotAllowed(t *testing.T) {
	msgBus := bus.NewMessageBus()
	ch, err := NewOneBotChannel(config.OneBotConfig{
		AllowGroups: config.FlexibleStringSlice{"1001"},
	}, msgBus)
	if err != nil {
		t.Fatalf("NewOneBotChannel() error = %v", err)
	}

	ch.handleMessage(&oneBotEvent{
		MessageType: "group",
		MessageID:   "m2",
		UserID:      2002,
		GroupID:     2222,
		Content:     "lq",
		Mentioned:   true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, ok := msgBus.ConsumeInbound(ctx); ok {
		t.Fatal("message from disallowed group should be dropped")
	}
}

func TestOneBotIsDuplicate(t *testing.T) {
	msgBus := bus.NewMessageBus()
	ch, err := NewOneBotChannel(config.OneBotConfig{}, msgBus)
	if err != nil {
		t.Fatalf("NewOneBotChannel() error = %v", err)
	}

	if ch.isDuplicate("a1") {
		t.Fatal("first sighting should not be duplicate")
	}
	if !ch.isDuplicate("a1") {
		t.Fatal("second sighting should be duplicate")
	}
	if ch.isDuplicate("") {
		t.Fatal("empty message id is never deduplicated")
	}
}

func TestOneBotIsDuplicate_RingEviction(t *testing.T) {
	msgBus := bus.NewMessageBus()
	ch, err := NewOneBotChannel(config.OneBotConfig{}, msgBus)
	if err != nil {
		t.Fatalf("NewOneBotChannel() error = %v", err)
	}

	ch.isDuplicate("first")
	for i := 0; i < len(ch.dedupRing); i++ {
		ch.isDuplicate(fmt.Sprintf("filler-%d", i))
	}

	if ch.isDuplicate("first") {
		t.Fatal("evicted id should no longer be duplicate")
	}
}

func TestBotStatusUnmarshal(t *testing.T) {
	var s BotStatus
	if err := json.Unmarshal([]byte(`{"online":true,"good":true}`), &s); err != nil {
		t.Fatalf("unmarshal object: %v", err)
	}
	if !s.Online || !s.Good {
		t.Fatalf("status = %+v, want online and good", s)
	}

	if err := json.Unmarshal([]byte(`"ok"`), &s); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if s.Text != "ok" {
		t.Fatalf("text = %q, want %q", s.Text, "ok")
	}
}

func TestBuildSendRequest(t *testing.T) {
	msgBus := bus.NewMessageBus()
	ch, err := NewOneBotChannel(config.OneBotConfig{}, msgBus)
	if err != nil {
		t.Fatalf("NewOneBotChannel() error = %v", err)
	}

	action, params, err := ch.buildSendRequest(bus.OutboundMessage{ChatID: "group:1001", Content: "hi"})
	if err != nil {
		t.Fatalf("buildSendRequest() error = %v", err)
	}
	if action != "send_group_msg" {
		t.Fatalf("action = %q, want send_group_msg", action)
	}
	if p, ok := params.(oneBotSendGroupMsgParams); !ok || p.GroupID != 1001 {
		t.Fatalf("params = %+v, want group 1001", params)
	}

	action, params, err = ch.buildSendRequest(bus.OutboundMessage{ChatID: "private:2002", Content: "hi"})
	if err != nil {
		t.Fatalf("buildSendRequest() error = %v", err)
	}
	if action != "send_private_msg" {
		t.Fatalf("action = %q, want send_private_msg", action)
	}
	if p, ok := params.(oneBotSendPrivateMsgParams); !ok || p.UserID != 2002 {
		t.Fatalf("params = %+v, want user 2002", params)
	}

	if _, _, err := ch.buildSendRequest(bus.OutboundMessage{ChatID: "group:abc"}); err == nil {
		t.Fatal("expected error for non-numeric group id")
	}
}
