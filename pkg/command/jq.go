// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/jieqian"
	"github.com/zhufengning/lingbot/pkg/logger"
)

// handleJieqian runs the full interpretation flow: gates, busy check,
// begin notice, LLM call, templated result.
func (r *Router) handleJieqian(ctx context.Context, msg bus.InboundMessage, question string) {
	if question == "" {
		r.reply(msg, "❌ 请提供要解签的内容，例如：jq 我想知道工作运势")
		return
	}

	sender := msg.SenderID
	m := r.userInfo(msg, sender)

	if !r.fortune.CheckedToday(sender) {
		r.reply(msg, Render(r.cfg.Lingqian.JrrpTipTemplate, r.baseVars(msg, m)))
		return
	}

	rec, ok := r.draws.GetToday(sender)
	if !ok {
		r.reply(msg, Render(r.cfg.Lingqian.DrawTipTemplate, r.baseVars(msg, m)))
		return
	}

	if r.interp.IsBusy(sender) {
		r.reply(msg, Render(r.cfg.Jieqian.IngTemplate, r.baseVars(msg, m)))
		return
	}

	r.reply(msg, Render(r.cfg.Jieqian.BeginTemplate, r.baseVars(msg, m)))

	outcome := r.interp.Interpret(ctx, sender, r.catalog.Get(rec.Qianxu).Content, question)
	if outcome.Status == jieqian.StatusBusy {
		r.reply(msg, Render(r.cfg.Jieqian.IngTemplate, r.baseVars(msg, m)))
		return
	}

	logger.InfoCF("router", "interpretation finished", map[string]interface{}{
		"user_id": sender,
		"status":  outcome.Status.String(),
	})

	vars := r.baseVars(msg, m)
	r.slipVars(vars, msg, rec)
	vars["content"] = question
	vars["jieqian"] = outcome.Answer
	r.reply(msg, Render(r.cfg.Jieqian.Template, vars))
}

// handleJqList shows today's interpretations, or one of them when a
// 1-based index is given.
func (r *Router) handleJqList(msg bus.InboundMessage, param, target string) {
	userID := msg.SenderID
	if target != "" {
		userID = target
	}
	m := r.userInfo(msg, userID)

	rec, ok := r.draws.GetToday(userID)
	if !ok {
		r.reply(msg, Render(r.cfg.Lingqian.DrawTipTemplate, r.baseVars(msg, m)))
		return
	}

	list := r.interps.ListToday(userID)
	if len(list) == 0 {
		r.reply(msg, Render(r.cfg.Jieqian.TipTemplate, r.baseVars(msg, m)))
		return
	}

	if idx, err := strconv.Atoi(param); err == nil && param != "" {
		if idx < 1 || idx > len(list) {
			r.reply(msg, fmt.Sprintf("❌ 序号超出范围，今日共有 %d 条解签记录。", len(list)))
			return
		}
		item := list[idx-1]
		vars := r.baseVars(msg, m)
		r.slipVars(vars, msg, rec)
		vars["content"] = item.Content
		vars["jieqian"] = item.Result
		r.reply(msg, Render(r.cfg.Jieqian.Template, vars))
		return
	}

	lines := make([]string, 0, len(list))
	for i, item := range list {
		lines = append(lines, fmt.Sprintf("%d.问: %s", i+1, previewText(item.Content, 13)))
	}

	r.reply(msg, fmt.Sprintf(
		"-----「%s」今日解签列表-----\n第 %s 签 %s\n吉凶: %s\n宫位: %s\n---\n%s",
		m.DisplayName(), rec.QianxuChinese, rec.Qianming, rec.Jixiong, rec.Gongwei,
		strings.Join(lines, "\n"),
	))
}

// handleJqRank ranks the group by today's interpretation count, top
// ten.
func (r *Router) handleJqRank(msg bus.InboundMessage) {
	if msg.GroupID == "" {
		r.reply(msg, "❌ 排行榜功能仅在群聊中可用。")
		return
	}

	members, err := r.groupMembers(msg)
	if err != nil || len(members) == 0 {
		r.reply(msg, "❌ 无法获取群成员信息。")
		return
	}

	type rankItem struct {
		member Member
		count  int
	}
	items := make([]rankItem, 0, len(members))
	for _, m := range members {
		if count := len(r.interps.ListToday(m.UserID)); count > 0 {
			items = append(items, rankItem{member: m, count: count})
		}
	}
	if len(items) == 0 {
		r.reply(msg, "📊 今日群内还没有人解签哦～")
		return
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].count > items[j].count })
	if len(items) > 10 {
		items = items[:10]
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		line := Render(r.cfg.Jieqian.RanksContent, map[string]string{
			"card":          item.member.DisplayName(),
			"jieqian_count": itoa(item.count),
		})
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, line))
	}

	r.reply(msg, Render(r.cfg.Jieqian.RanksTemplate, map[string]string{
		"date":          r.now().Format("2006-01-02"),
		"jieqian_ranks": strings.Join(lines, "\n"),
	}))
}

func (r *Router) handleJqHistory(msg bus.InboundMessage, target string) {
	userID := msg.SenderID
	if target != "" {
		userID = target
	}
	m := r.userInfo(msg, userID)

	days := r.interps.History(userID, r.cfg.Jieqian.DisplayCount)
	if len(days) == 0 {
		r.reply(msg, fmt.Sprintf("「%s」还没有解签历史记录。", m.DisplayName()))
		return
	}
	stats := r.interps.Stats(userID)

	lines := make([]string, 0, len(days))
	for _, day := range days {
		lines = append(lines, Render(r.cfg.Jieqian.HistoryContent, map[string]string{
			"date":          day.Date,
			"jieqian_count": itoa(day.Count),
		}))
	}

	r.reply(msg, Render(r.cfg.Jieqian.HistoryTemplate, map[string]string{
		"card":                    m.DisplayName(),
		"jqhi_display":            itoa(len(days)),
		"jqhi_total":              itoa(stats.Total),
		"jqhi_max":                itoa(stats.Max),
		"jqhi_avg":                strconv.FormatFloat(stats.Avg, 'f', 1, 64),
		"jqhi_min":                itoa(stats.Min),
		"jieqian_history_content": strings.Join(lines, "\n"),
	}))
}

// handleJqDelete deletes one of today's records by index, or with
// --confirm everything except today.
func (r *Router) handleJqDelete(msg bus.InboundMessage, param string, confirm bool) {
	sender := msg.SenderID

	if idx, err := strconv.Atoi(param); err == nil && param != "" {
		if _, err := r.interps.DeleteByIndex(sender, idx); err != nil {
			if errors.Is(err, jieqian.ErrOutOfRange) {
				r.reply(msg, fmt.Sprintf("❌ 序号超出范围，今日共有 %d 条解签记录。", len(r.interps.ListToday(sender))))
				return
			}
			logger.ErrorCF("router", "interpretation delete failed", map[string]interface{}{
				"user_id": sender,
				"error":   err,
			})
			r.reply(msg, "❌ 删除历史记录失败，请稍后重试。")
			return
		}
		r.reply(msg, fmt.Sprintf("✅ 已删除今日第 %d 条解签记录。", idx))
		return
	}

	if !confirm {
		r.reply(msg, "⚠️ 删除历史记录需要确认参数，请使用: jq delete --confirm")
		return
	}

	if len(r.interps.History(sender, 1)) == 0 {
		r.reply(msg, "您还没有解签历史记录。")
		return
	}

	if err := r.interps.DeleteExceptToday(sender); err != nil {
		logger.ErrorCF("router", "interpretation history delete failed", map[string]interface{}{
			"user_id": sender,
			"error":   err,
		})
		r.reply(msg, "❌ 删除历史记录失败，请稍后重试。")
		return
	}
	logger.InfoCF("router", "interpretation history deleted except today", map[string]interface{}{
		"user_id": sender,
	})
	r.reply(msg, "✅ 已删除您除今日外的所有解签历史记录。")
}

func (r *Router) handleJqInitialize(msg bus.InboundMessage, confirm bool, target string) {
	if !confirm {
		r.reply(msg, "⚠️ 初始化记录需要确认参数，请使用: jq initialize --confirm")
		return
	}

	targetID := msg.SenderID
	targetName := "您"
	if target != "" && target != msg.SenderID {
		if !r.perms.IsAdmin(msg.SenderID) {
			r.reply(msg, "❌ 初始化他人记录需要管理员权限。")
			return
		}
		targetID = target
		targetName = r.userInfo(msg, target).DisplayName()
	}

	if err := r.interps.ClearToday(targetID); err != nil {
		logger.ErrorCF("router", "interpretation initialize failed", map[string]interface{}{
			"user_id": targetID,
			"error":   err,
		})
		r.reply(msg, fmt.Sprintf("❌ 初始化%s的今日记录失败，请稍后重试。", targetName))
		return
	}
	logger.InfoCF("router", "today interpretation records cleared", map[string]interface{}{
		"by":      msg.SenderID,
		"user_id": targetID,
	})
	r.reply(msg, fmt.Sprintf("✅ 已初始化%s的今日解签记录。", targetName))
}

func (r *Router) handleJqReset(msg bus.InboundMessage, confirm bool) {
	if !r.perms.IsAdmin(msg.SenderID) {
		r.reply(msg, "❌ 重置所有数据需要管理员权限。")
		return
	}
	if !confirm {
		r.reply(msg, "⚠️ 重置所有数据需要确认参数，请使用: jq reset --confirm")
		return
	}

	if err := r.interps.ResetAll(); err != nil {
		logger.ErrorCF("router", "interpretation reset failed", map[string]interface{}{"error": err})
		r.reply(msg, "❌ 重置数据失败，请稍后重试。")
		return
	}
	logger.InfoCF("router", "all interpretation data reset", map[string]interface{}{
		"by": msg.SenderID,
	})
	r.reply(msg, "✅ 已重置所有解签数据。")
}
