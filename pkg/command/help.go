// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package command

const lqHelpText = `
🎲 观音灵签 - 使用帮助

🌟 基础指令：
• lq / lingqian / 抽灵签 / 灵签
  - 抽取或查询今日灵签
• lq @某人 / lingqian @某人
  - 查询他人的今日灵签

📊 排行榜：
• lq rank / lqrank
• lingqian rank / lingqianrank
  - 查看群内今日灵签排行榜

📚 历史记录：
• lq history / lq hi / lqhistory / lqhi
• lingqian history / lingqian hi / lingqianhistory / lingqianhi
  - 查看自己的历史记录
• lq history @某人 / lq hi @某人
• lqhistory @某人 / lqhi @某人
• lingqian history @某人 / lingqian hi @某人
• lingqianhistory @某人 / lingqianhi @某人
  - 查看他人的历史记录

🗑️ 数据管理：
• lq delete --confirm / lq del --confirm
• lqdelete --confirm / lqdel --confirm
• lingqian delete --confirm / lingqian del --confirm
• lingqiandelete --confirm / lingqiandel --confirm
  - 删除自己除今日外的历史记录

⚙️ 管理员指令：
• lq initialize --confirm / lq init --confirm
• lqinitialize --confirm / lqinit --confirm
• lingqian initialize --confirm / lingqian init --confirm
• lingqianinitialize --confirm / lingqianinit --confirm
  - 初始化自己今日记录
• lq initialize @某人 --confirm / lq init @某人 --confirm
• lqinitialize @某人 --confirm / lqinit @某人 --confirm
• lingqian initialize @某人 --confirm / lingqian init @某人 --confirm
• lingqianinitialize @某人 --confirm / lingqianinit @某人 --confirm
  - 初始化他人今日记录
• lq reset --confirm / lq re --confirm
• lqreset --confirm / lqre --confirm
• lingqian reset --confirm / lingqian re --confirm
• lingqianreset --confirm / lingqianre --confirm
  - 重置所有数据

💡 提示：带 --confirm 的指令需要确认参数才能执行
`

const jqHelpText = `
🔮 观音解签 - 使用帮助

🌟 基础指令：
• jq [内容] / jieqian [内容] / 解签 [内容]
  - 依据内容解读今日灵签
• jq list / jqlist / jieqian list / jieqianlist
  - 查看自己今日所有解签
• jq list @某人 / jqlist @某人
• jieqian list @某人 / jieqianlist @某人
  - 查看他人今日所有解签
• jq list [序号] / jqlist [序号]
• jieqian list [序号] / jieqianlist [序号]
  - 查看指定序号的解签内容

📊 排行榜：
• jq rank / jqrank
• jieqian rank / jieqianrank
  - 查看群内今日解签排行榜

📚 历史记录：
• jq history / jq hi / jqhistory / jqhi
• jieqian history / jieqian hi / jieqianhistory / jieqianhi
  - 查看自己的历史记录
• jq history @某人 / jq hi @某人
• jqhistory @某人 / jqhi @某人
• jieqian history @某人 / jieqian hi @某人
• jieqianhistory @某人 / jieqianhi @某人
  - 查看他人的历史记录

🗑️ 数据管理：
• jq delete --confirm / jq del --confirm
• jqdelete --confirm / jqdel --confirm
• jieqian delete --confirm / jieqian del --confirm
• jieqiandelete --confirm / jieqiandel --confirm
  - 删除自己除今日外的历史记录

⚙️ 管理员指令：
• jq initialize --confirm / jq init --confirm
• jqinitialize --confirm / jqinit --confirm
• jieqian initialize --confirm / jieqian init --confirm
• jieqianinitialize --confirm / jieqianinit --confirm
  - 初始化自己今日记录
• jq initialize @某人 --confirm / jq init @某人 --confirm
• jqinitialize @某人 --confirm / jqinit @某人 --confirm
• jieqian initialize @某人 --confirm / jieqianinit @某人 --confirm
  - 初始化他人今日记录
• jq reset --confirm / jq re --confirm
• jqreset --confirm / jqre --confirm
• jieqian reset --confirm / jieqian re --confirm
• jieqianreset --confirm / jieqianre --confirm
  - 重置所有数据

💡 提示：带 --confirm 的指令需要确认参数才能执行
`
