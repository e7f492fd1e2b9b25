// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package command

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/config"
	"github.com/zhufengning/lingbot/pkg/jieqian"
	"github.com/zhufengning/lingbot/pkg/lingqian"
	"github.com/zhufengning/lingbot/pkg/logger"
	"github.com/zhufengning/lingbot/pkg/permission"
)

// ErrUnsupported is returned by channels that have no notion of group
// membership.
var ErrUnsupported = errors.New("member directory not supported on this channel")

// Member is a group member as a channel knows them. Card is the
// in-group display name and falls back to Nickname.
type Member struct {
	UserID   string
	Nickname string
	Card     string
	Title    string
}

// MemberDirectory is implemented by channels that can enumerate group
// members (OneBot). Others return ErrUnsupported.
type MemberDirectory interface {
	GroupMembers(groupID string) ([]Member, error)
	MemberInfo(groupID, userID string) (Member, error)
}

func (m Member) DisplayName() string {
	if m.Card != "" {
		return m.Card
	}
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.UserID
}

// Router consumes inbound command messages from the bus, dispatches
// them to the draw and interpretation handlers, and publishes the
// replies.
type Router struct {
	cfg     *config.Config
	msgBus  *bus.MessageBus
	catalog *lingqian.Catalog
	draws   *lingqian.Store
	fortune *lingqian.FortuneGate
	interps *jieqian.Store
	interp  *jieqian.Interpreter
	perms   *permission.Checker
	members map[string]MemberDirectory
	now     func() time.Time
}

func NewRouter(
	cfg *config.Config,
	msgBus *bus.MessageBus,
	catalog *lingqian.Catalog,
	draws *lingqian.Store,
	fortune *lingqian.FortuneGate,
	interps *jieqian.Store,
	interp *jieqian.Interpreter,
	perms *permission.Checker,
) *Router {
	return &Router{
		cfg:     cfg,
		msgBus:  msgBus,
		catalog: catalog,
		draws:   draws,
		fortune: fortune,
		interps: interps,
		interp:  interp,
		perms:   perms,
		members: make(map[string]MemberDirectory),
		now:     time.Now,
	}
}

// RegisterMemberDirectory wires a channel's member lookup so rank and
// display-name features work there.
func (r *Router) RegisterMemberDirectory(channel string, dir MemberDirectory) {
	r.members[channel] = dir
}

// Run consumes the bus until ctx ends. Each message is handled on its
// own goroutine so a long interpretation does not block other users.
func (r *Router) Run(ctx context.Context) {
	logger.InfoC("router", "command router started")
	for {
		msg, ok := r.msgBus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC("router", "command router stopped")
			return
		}
		go r.dispatch(ctx, msg)
	}
}

func (r *Router) reply(msg bus.InboundMessage, text string) {
	r.msgBus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: text,
	})
}

var lqNames = map[string]bool{
	"lq": true, "lingqian": true, "抽灵签": true, "灵签": true,
}

var jqNames = map[string]bool{
	"jq": true, "jieqian": true, "解签": true,
}

// compoundNames maps the fused command forms to (command, sub).
var compoundNames = map[string][2]string{
	"lqrank":             {"lq", "rank"},
	"lingqianrank":       {"lq", "rank"},
	"lqhistory":          {"lq", "history"},
	"lqhi":               {"lq", "history"},
	"lingqianhistory":    {"lq", "history"},
	"lingqianhi":         {"lq", "history"},
	"lqdelete":           {"lq", "delete"},
	"lqdel":              {"lq", "delete"},
	"lingqiandelete":     {"lq", "delete"},
	"lingqiandel":        {"lq", "delete"},
	"lqinitialize":       {"lq", "initialize"},
	"lqinit":             {"lq", "initialize"},
	"lingqianinitialize": {"lq", "initialize"},
	"lingqianinit":       {"lq", "initialize"},
	"lqreset":            {"lq", "reset"},
	"lqre":               {"lq", "reset"},
	"lingqianreset":      {"lq", "reset"},
	"lingqianre":         {"lq", "reset"},
	"jqrank":             {"jq", "rank"},
	"jieqianrank":        {"jq", "rank"},
	"jqlist":             {"jq", "list"},
	"jieqianlist":        {"jq", "list"},
	"jqhistory":          {"jq", "history"},
	"jqhi":               {"jq", "history"},
	"jieqianhistory":     {"jq", "history"},
	"jieqianhi":          {"jq", "history"},
	"jqdelete":           {"jq", "delete"},
	"jqdel":              {"jq", "delete"},
	"jieqiandelete":      {"jq", "delete"},
	"jieqiandel":         {"jq", "delete"},
	"jqinitialize":       {"jq", "initialize"},
	"jqinit":             {"jq", "initialize"},
	"jieqianinitialize":  {"jq", "initialize"},
	"jieqianinit":        {"jq", "initialize"},
	"jqreset":            {"jq", "reset"},
	"jqre":               {"jq", "reset"},
	"jieqianreset":       {"jq", "reset"},
	"jieqianre":          {"jq", "reset"},
}

var lqSubcommands = map[string]string{
	"help": "help", "rank": "rank",
	"history": "history", "hi": "history",
	"delete": "delete", "del": "delete",
	"initialize": "initialize", "init": "initialize",
	"reset": "reset", "re": "reset",
}

var jqSubcommands = map[string]string{
	"help": "help", "rank": "rank", "list": "list",
	"history": "history", "hi": "history",
	"delete": "delete", "del": "delete",
	"initialize": "initialize", "init": "initialize",
	"reset": "reset", "re": "reset",
}

func (r *Router) dispatch(ctx context.Context, msg bus.InboundMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorCF("router", "handler panicked", map[string]interface{}{
				"channel": msg.Channel,
				"sender":  msg.SenderID,
				"panic":   rec,
			})
			r.reply(msg, "处理指令时发生错误，请稍后重试。")
		}
	}()

	fields := strings.Fields(msg.Content)
	if len(fields) == 0 {
		return
	}

	head := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	cmd, sub := "", ""
	rest := fields[1:]

	switch {
	case lqNames[head]:
		cmd = "lq"
		if len(rest) > 0 {
			sub = lqSubcommands[strings.ToLower(rest[0])]
			if sub != "" {
				rest = rest[1:]
			}
		}
	case jqNames[head]:
		cmd = "jq"
		if len(rest) > 0 {
			sub = jqSubcommands[strings.ToLower(rest[0])]
			if sub != "" {
				rest = rest[1:]
			}
		}
	default:
		if pair, ok := compoundNames[head]; ok {
			cmd, sub = pair[0], pair[1]
		} else {
			return
		}
	}

	if !r.perms.IsGroupAllowed(msg.GroupID) {
		logger.DebugCF("router", "group not whitelisted", map[string]interface{}{
			"group_id": msg.GroupID,
		})
		return
	}

	confirm := strings.Contains(strings.ToLower(msg.Content), "--confirm")
	target := ""
	if len(msg.Mentions) > 0 {
		target = msg.Mentions[0]
	}
	param := strings.Join(rest, " ")

	logger.DebugCF("router", "dispatching command", map[string]interface{}{
		"channel": msg.Channel,
		"sender":  msg.SenderID,
		"command": cmd,
		"sub":     sub,
	})

	if cmd == "lq" {
		switch sub {
		case "help":
			r.reply(msg, lqHelpText)
		case "rank":
			r.handleLqRank(msg)
		case "history":
			r.handleLqHistory(msg, target)
		case "delete":
			r.handleLqDelete(msg, confirm)
		case "initialize":
			r.handleLqInitialize(msg, confirm, target)
		case "reset":
			r.handleLqReset(msg, confirm)
		default:
			r.handleDraw(msg, target)
		}
		return
	}

	switch sub {
	case "help":
		r.reply(msg, jqHelpText)
	case "rank":
		r.handleJqRank(msg)
	case "list":
		r.handleJqList(msg, param, target)
	case "history":
		r.handleJqHistory(msg, target)
	case "delete":
		r.handleJqDelete(msg, param, confirm)
	case "initialize":
		r.handleJqInitialize(msg, confirm, target)
	case "reset":
		r.handleJqReset(msg, confirm)
	default:
		r.handleJieqian(ctx, msg, param)
	}
}

// userInfo resolves a user's display fields, going through the
// channel's member directory for group chats.
func (r *Router) userInfo(msg bus.InboundMessage, userID string) Member {
	fallback := Member{UserID: userID}
	if userID == msg.SenderID {
		fallback.Nickname = msg.SenderName
		fallback.Card = msg.SenderName
	}

	if msg.GroupID == "" {
		return fallback
	}
	dir, ok := r.members[msg.Channel]
	if !ok {
		return fallback
	}
	m, err := dir.MemberInfo(msg.GroupID, userID)
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			logger.WarnCF("router", "member lookup failed", map[string]interface{}{
				"group_id": msg.GroupID,
				"user_id":  userID,
				"error":    err,
			})
		}
		return fallback
	}
	if m.Card == "" {
		m.Card = m.Nickname
	}
	return m
}

// baseVars builds the template variables every reply may use.
func (r *Router) baseVars(msg bus.InboundMessage, m Member) map[string]string {
	global := r.interps.GlobalStats()
	date := r.now().Format("2006-01-02")
	return map[string]string{
		"date":             date,
		"today":            date,
		"user_id":          m.UserID,
		"nickname":         m.Nickname,
		"card":             m.DisplayName(),
		"title":            m.Title,
		"jqhi_total":       itoa(global.Total),
		"jqhi_total_today": itoa(global.TotalToday),
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// slipVars adds the drawn slip's fields, including the inline picture
// for channels that render CQ codes.
func (r *Router) slipVars(vars map[string]string, msg bus.InboundMessage, rec lingqian.DrawRecord) {
	vars["qianxu"] = rec.QianxuChinese
	vars["qianming"] = rec.Qianming
	vars["jixiong"] = rec.Jixiong
	vars["gongwei"] = rec.Gongwei
	vars["lqpic"] = ""
	if msg.Channel == "onebot" {
		if path, ok := lingqian.ImagePath(r.cfg.PicsPath(), rec.Qianxu); ok {
			vars["lqpic"] = "[CQ:image,file=file://" + path + "]\n"
		}
	}
}
