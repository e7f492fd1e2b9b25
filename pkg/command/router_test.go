package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/config"
	"github.com/zhufengning/lingbot/pkg/jieqian"
	"github.com/zhufengning/lingbot/pkg/lingqian"
	"github.com/zhufengning/lingbot/pkg/permission"
	"github.com/zhufengning/lingbot/pkg/providers"
)

type stubProvider struct {
	reply string
}

func (p *stubProvider) Chat(ctx context.Context, messages []providers.Message, model string, opts map[string]interface{}) (*providers.Response, error) {
	return &providers.Response{Content: p.reply, FinishReason: "stop"}, nil
}

type stubDirectory struct {
	members []Member
}

func (d *stubDirectory) GroupMembers(groupID string) ([]Member, error) {
	return d.members, nil
}

func (d *stubDirectory) MemberInfo(groupID, userID string) (Member, error) {
	for _, m := range d.members {
		if m.UserID == userID {
			return m, nil
		}
	}
	return Member{UserID: userID}, nil
}

type routerFixture struct {
	router  *Router
	msgBus  *bus.MessageBus
	draws   *lingqian.Store
	interps *jieqian.Store
}

func newTestRouter(t *testing.T, admins []string) *routerFixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Lingqian.PicsDir = t.TempDir()

	catalog := lingqian.LoadCatalog(t.TempDir())
	draws := lingqian.NewStore(cfg.DataPath(), catalog)
	interps := jieqian.NewStore(cfg.DataPath())
	gate := lingqian.NewFortuneGate(false, "", "", "", "")

	registry := providers.NewRegistry()
	registry.Register("stub", &stubProvider{reply: "解读结果"})
	registry.SetDefault("stub")
	interpreter := jieqian.NewInterpreter(registry, interps, jieqian.NewGuard(), "", "", "", 5*time.Second)

	perms := permission.NewChecker(admins, false, nil)

	msgBus := bus.NewMessageBus()
	router := NewRouter(cfg, msgBus, catalog, draws, gate, interps, interpreter, perms)
	router.RegisterMemberDirectory("test", &stubDirectory{members: []Member{
		{UserID: "u1", Nickname: "小明", Card: "小明"},
		{UserID: "u2", Nickname: "小红", Card: "小红"},
	}})

	return &routerFixture{router: router, msgBus: msgBus, draws: draws, interps: interps}
}

func (f *routerFixture) send(t *testing.T, content string, mentions ...string) {
	t.Helper()
	f.router.dispatch(context.Background(), bus.InboundMessage{
		Channel:    "test",
		SenderID:   "u1",
		SenderName: "小明",
		ChatID:     "private:u1",
		Content:    content,
		Mentions:   mentions,
	})
}

func (f *routerFixture) sendGroup(t *testing.T, content string, mentions ...string) {
	t.Helper()
	f.router.dispatch(context.Background(), bus.InboundMessage{
		Channel:    "test",
		SenderID:   "u1",
		SenderName: "小明",
		ChatID:     "group:g1",
		GroupID:    "g1",
		Content:    content,
		Mentions:   mentions,
	})
}

func (f *routerFixture) nextReply(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	msg, ok := f.msgBus.SubscribeOutbound(ctx)
	if !ok {
		t.Fatal("expected a reply, got none")
	}
	return msg.Content
}

func (f *routerFixture) expectNoReply(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if msg, ok := f.msgBus.SubscribeOutbound(ctx); ok {
		t.Fatalf("expected no reply, got %q", msg.Content)
	}
}

func TestDispatch_DrawIsIdempotent(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq")
	first := f.nextReply(t)
	if !strings.Contains(first, "「小明」今日灵签") {
		t.Fatalf("draw reply = %q", first)
	}

	f.send(t, "lq")
	second := f.nextReply(t)
	if second != first {
		t.Fatalf("second draw = %q, want same slip as first %q", second, first)
	}
}

func TestDispatch_SlashPrefixAndAliases(t *testing.T) {
	f := newTestRouter(t, nil)

	for _, cmd := range []string{"/lq help", "lingqian help", "抽灵签 help", "灵签 help"} {
		f.send(t, cmd)
		if reply := f.nextReply(t); !strings.Contains(reply, "观音灵签 - 使用帮助") {
			t.Fatalf("%q reply = %q, want help text", cmd, reply)
		}
	}

	for _, cmd := range []string{"jq help", "jieqian help", "解签 help"} {
		f.send(t, cmd)
		if reply := f.nextReply(t); !strings.Contains(reply, "观音解签 - 使用帮助") {
			t.Fatalf("%q reply = %q, want help text", cmd, reply)
		}
	}
}

func TestDispatch_CompoundAliases(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lqhi")
	if reply := f.nextReply(t); !strings.Contains(reply, "还没有灵签历史记录") {
		t.Fatalf("lqhi reply = %q", reply)
	}

	f.send(t, "jieqianhistory")
	if reply := f.nextReply(t); !strings.Contains(reply, "还没有解签历史记录") {
		t.Fatalf("jieqianhistory reply = %q", reply)
	}
}

func TestDispatch_UnknownCommandIgnored(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "hello world")
	f.expectNoReply(t)

	f.send(t, "")
	f.expectNoReply(t)
}

func TestDispatch_DeleteNeedsConfirm(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq delete")
	if reply := f.nextReply(t); !strings.Contains(reply, "--confirm") {
		t.Fatalf("reply = %q, want confirm warning", reply)
	}

	f.send(t, "lq delete --confirm")
	if reply := f.nextReply(t); !strings.Contains(reply, "已删除您除今日外的所有灵签历史记录") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_ResetRequiresAdmin(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq reset --confirm")
	if reply := f.nextReply(t); !strings.Contains(reply, "需要管理员权限") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_ResetAsAdmin(t *testing.T) {
	f := newTestRouter(t, []string{"u1"})

	f.send(t, "lq")
	f.nextReply(t)

	f.send(t, "lq reset --confirm")
	if reply := f.nextReply(t); !strings.Contains(reply, "已重置所有灵签数据") {
		t.Fatalf("reply = %q", reply)
	}
	if _, ok := f.draws.GetToday("u1"); ok {
		t.Fatal("draw data should be gone after reset")
	}
}

func TestDispatch_AdminGateBeforeConfirm(t *testing.T) {
	f := newTestRouter(t, nil)

	// A non-admin is rejected even without --confirm.
	f.send(t, "jq reset")
	if reply := f.nextReply(t); !strings.Contains(reply, "需要管理员权限") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_InitializeOtherRequiresAdmin(t *testing.T) {
	f := newTestRouter(t, nil)

	f.sendGroup(t, "lq initialize --confirm", "u2")
	if reply := f.nextReply(t); !strings.Contains(reply, "初始化他人记录需要管理员权限") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_InitializeSelf(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq")
	f.nextReply(t)

	f.send(t, "lq initialize --confirm")
	if reply := f.nextReply(t); !strings.Contains(reply, "已初始化您的今日灵签记录") {
		t.Fatalf("reply = %q", reply)
	}
	if _, ok := f.draws.GetToday("u1"); ok {
		t.Fatal("today's draw should be cleared")
	}
}

func TestDispatch_GroupWhitelistDropsSilently(t *testing.T) {
	f := newTestRouter(t, nil)
	f.router.perms = permission.NewChecker(nil, true, []string{"allowed"})

	f.sendGroup(t, "lq")
	f.expectNoReply(t)
}

func TestDispatch_QueryOtherWithoutDraw(t *testing.T) {
	f := newTestRouter(t, nil)

	f.sendGroup(t, "lq", "u2")
	if reply := f.nextReply(t); !strings.Contains(reply, "「小红」今日还未抽取灵签") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_JieqianNeedsQuestion(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "jq")
	if reply := f.nextReply(t); !strings.Contains(reply, "请提供要解签的内容") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_JieqianNeedsDraw(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "jq 工作运势")
	if reply := f.nextReply(t); !strings.Contains(reply, "今日还未抽取灵签") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_JieqianFullFlow(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq")
	f.nextReply(t)

	f.send(t, "jq 工作运势如何")
	begin := f.nextReply(t)
	if !strings.Contains(begin, "命运的丝线汇聚") {
		t.Fatalf("begin notice = %q", begin)
	}
	result := f.nextReply(t)
	if !strings.Contains(result, "解读结果") || !strings.Contains(result, "工作运势如何") {
		t.Fatalf("result = %q", result)
	}

	if got := len(f.interps.ListToday("u1")); got != 1 {
		t.Fatalf("persisted interpretations = %d, want 1", got)
	}
}

func TestDispatch_JqListIndexOutOfRange(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq")
	f.nextReply(t)
	f.send(t, "jq 事业")
	f.nextReply(t)
	f.nextReply(t)

	f.send(t, "jq list 5")
	if reply := f.nextReply(t); !strings.Contains(reply, "序号超出范围") {
		t.Fatalf("reply = %q", reply)
	}

	f.send(t, "jq list 1")
	if reply := f.nextReply(t); !strings.Contains(reply, "事业") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_RankOnlyInGroups(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq rank")
	if reply := f.nextReply(t); !strings.Contains(reply, "此指令仅支持在群聊中使用") {
		t.Fatalf("reply = %q", reply)
	}

	f.send(t, "jq rank")
	if reply := f.nextReply(t); !strings.Contains(reply, "排行榜功能仅在群聊中可用") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDispatch_GroupRank(t *testing.T) {
	f := newTestRouter(t, nil)

	f.sendGroup(t, "lq rank")
	if reply := f.nextReply(t); !strings.Contains(reply, "今日群内还没有人抽取灵签") {
		t.Fatalf("reply = %q", reply)
	}

	f.sendGroup(t, "lq")
	f.nextReply(t)

	f.sendGroup(t, "lqrank")
	reply := f.nextReply(t)
	if !strings.Contains(reply, "本群今日灵签榜") || !strings.Contains(reply, "小明") {
		t.Fatalf("rank reply = %q", reply)
	}
}

func TestDispatch_JqHistoryStats(t *testing.T) {
	f := newTestRouter(t, nil)

	f.send(t, "lq")
	f.nextReply(t)
	f.send(t, "jq 学业")
	f.nextReply(t)
	f.nextReply(t)

	f.send(t, "jqhi")
	reply := f.nextReply(t)
	if !strings.Contains(reply, "解签总数: 1") {
		t.Fatalf("history reply = %q", reply)
	}
	if !strings.Contains(reply, "平均日解签数: 1.0") {
		t.Fatalf("history reply = %q, want one-decimal average", reply)
	}
}
