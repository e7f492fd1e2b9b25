// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/lingqian"
	"github.com/zhufengning/lingbot/pkg/logger"
)

// handleDraw draws or queries today's slip. A mentioned user is only
// ever queried; drawing happens for the sender alone.
func (r *Router) handleDraw(msg bus.InboundMessage, target string) {
	if target != "" && target != msg.SenderID {
		r.queryDraw(msg, target)
		return
	}

	sender := msg.SenderID
	m := r.userInfo(msg, sender)

	if !r.fortune.CheckedToday(sender) {
		r.reply(msg, Render(r.cfg.Lingqian.JrrpTipTemplate, r.baseVars(msg, m)))
		return
	}

	if rec, ok := r.draws.GetToday(sender); ok {
		vars := r.baseVars(msg, m)
		r.slipVars(vars, msg, rec)
		r.reply(msg, Render(r.cfg.Lingqian.QueryTemplate, vars))
		return
	}

	var bias *lingqian.Bias
	if r.cfg.Fortune.Ratefix {
		bias = r.fortune.BiasFor(sender)
	}

	rec, err := r.draws.DrawOrGet(sender, bias)
	if err != nil {
		logger.ErrorCF("router", "draw failed", map[string]interface{}{
			"user_id": sender,
			"error":   err,
		})
		r.reply(msg, "抽取灵签时发生错误，请稍后重试。")
		return
	}

	vars := r.baseVars(msg, m)
	r.slipVars(vars, msg, rec)
	r.reply(msg, Render(r.cfg.Lingqian.DrawTemplate, vars))
}

func (r *Router) queryDraw(msg bus.InboundMessage, target string) {
	m := r.userInfo(msg, target)
	rec, ok := r.draws.GetToday(target)
	if !ok {
		r.reply(msg, Render(r.cfg.Lingqian.DrawTipTemplate, r.baseVars(msg, m)))
		return
	}
	vars := r.baseVars(msg, m)
	r.slipVars(vars, msg, rec)
	r.reply(msg, Render(r.cfg.Lingqian.QueryTemplate, vars))
}

// handleLqRank lists today's draws of the group, best slip first per
// the catalog's tier table order.
func (r *Router) handleLqRank(msg bus.InboundMessage) {
	if msg.GroupID == "" {
		r.reply(msg, "此指令仅支持在群聊中使用")
		return
	}

	members, err := r.groupMembers(msg)
	if err != nil || len(members) == 0 {
		r.reply(msg, "❌ 无法获取群成员信息。")
		return
	}

	type rankItem struct {
		member Member
		rec    lingqian.DrawRecord
	}
	items := make([]rankItem, 0, len(members))
	for _, m := range members {
		if rec, ok := r.draws.GetToday(m.UserID); ok {
			items = append(items, rankItem{member: m, rec: rec})
		}
	}
	if len(items) == 0 {
		r.reply(msg, "今日群内还没有人抽取灵签")
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		return r.catalog.Priority(items[i].rec.Qianxu) < r.catalog.Priority(items[j].rec.Qianxu)
	})

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, Render(r.cfg.Lingqian.RanksContent, map[string]string{
			"card":     item.member.DisplayName(),
			"qianxu":   item.rec.QianxuChinese,
			"qianming": item.rec.Qianming,
			"jixiong":  item.rec.Jixiong,
		}))
	}

	r.reply(msg, Render(r.cfg.Lingqian.RanksTemplate, map[string]string{
		"date":           r.now().Format("2006-01-02"),
		"lingqian_ranks": strings.Join(lines, "\n"),
	}))
}

func (r *Router) groupMembers(msg bus.InboundMessage) ([]Member, error) {
	dir, ok := r.members[msg.Channel]
	if !ok {
		return nil, ErrUnsupported
	}
	return dir.GroupMembers(msg.GroupID)
}

func (r *Router) handleLqHistory(msg bus.InboundMessage, target string) {
	userID := msg.SenderID
	if target != "" {
		userID = target
	}
	m := r.userInfo(msg, userID)

	records := r.draws.History(userID, r.cfg.Lingqian.DisplayCount)
	if len(records) == 0 {
		r.reply(msg, fmt.Sprintf("「%s」还没有灵签历史记录。", m.DisplayName()))
		return
	}
	stats := r.draws.Stats(userID)

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, Render(r.cfg.Lingqian.HistoryContent, map[string]string{
			"date":     rec.Date,
			"qianxu":   rec.QianxuChinese,
			"qianming": rec.Qianming,
			"jixiong":  rec.Jixiong,
		}))
	}

	r.reply(msg, Render(r.cfg.Lingqian.HistoryTemplate, map[string]string{
		"card":                     m.DisplayName(),
		"lqhi_display":             itoa(len(records)),
		"lqhi_total":               itoa(stats.Total),
		"lqhi_shang_total":         itoa(stats.ShangTotal),
		"lqhi_zhong_total":         itoa(stats.ZhongTotal),
		"lqhi_xia_total":           itoa(stats.XiaTotal),
		"lingqian_history_content": strings.Join(lines, "\n"),
	}))
}

func (r *Router) handleLqDelete(msg bus.InboundMessage, confirm bool) {
	if !confirm {
		r.reply(msg, "⚠️ 删除历史记录需要确认参数，请使用: lq delete --confirm")
		return
	}

	if err := r.draws.DeleteExceptToday(msg.SenderID); err != nil {
		logger.ErrorCF("router", "draw history delete failed", map[string]interface{}{
			"user_id": msg.SenderID,
			"error":   err,
		})
		r.reply(msg, "❌ 删除历史记录失败，请稍后重试。")
		return
	}
	logger.InfoCF("router", "draw history deleted except today", map[string]interface{}{
		"user_id": msg.SenderID,
	})
	r.reply(msg, "✅ 已删除您除今日外的所有灵签历史记录。")
}

func (r *Router) handleLqInitialize(msg bus.InboundMessage, confirm bool, target string) {
	if !confirm {
		r.reply(msg, "⚠️ 初始化记录需要确认参数，请使用: lq initialize --confirm")
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

	if err := r.draws.ClearToday(targetID); err != nil {
		logger.ErrorCF("router", "draw initialize failed", map[string]interface{}{
			"user_id": targetID,
			"error":   err,
		})
		r.reply(msg, fmt.Sprintf("❌ 初始化%s的今日记录失败，请稍后重试。", targetName))
		return
	}
	logger.InfoCF("router", "today draw record cleared", map[string]interface{}{
		"by":      msg.SenderID,
		"user_id": targetID,
	})
	r.reply(msg, fmt.Sprintf("✅ 已初始化%s的今日灵签记录。", targetName))
}

func (r *Router) handleLqReset(msg bus.InboundMessage, confirm bool) {
	if !r.perms.IsAdmin(msg.SenderID) {
		r.reply(msg, "❌ 重置所有数据需要管理员权限。")
		return
	}
	if !confirm {
		r.reply(msg, "⚠️ 重置所有数据需要确认参数，请使用: lq reset --confirm")
		return
	}

	if err := r.draws.ResetAll(); err != nil {
		logger.ErrorCF("router", "draw reset failed", map[string]interface{}{"error": err})
		r.reply(msg, "❌ 重置数据失败，请稍后重试。")
		return
	}
	logger.InfoCF("router", "all draw data reset", map[string]interface{}{
		"by": msg.SenderID,
	})
	r.reply(msg, "✅ 已重置所有灵签数据。")
}
