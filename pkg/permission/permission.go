// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package permission

// Checker answers the two authorization questions the commands ask:
// is this user an admin, and may this group use the bot.
type Checker struct {
	admins         map[string]struct{}
	groupWhitelist bool
	groups         map[string]struct{}
}

func NewChecker(admins []string, groupWhitelist bool, groups []string) *Checker {
	c := &Checker{
		admins:         make(map[string]struct{}, len(admins)),
		groupWhitelist: groupWhitelist,
		groups:         make(map[string]struct{}, len(groups)),
	}
	for _, a := range admins {
		c.admins[a] = struct{}{}
	}
	for _, g := range groups {
		c.groups[g] = struct{}{}
	}
	return c
}

func (c *Checker) IsAdmin(userID string) bool {
	_, ok := c.admins[userID]
	return ok
}

// IsGroupAllowed applies the whitelist: private chats always pass,
// and a disabled or empty whitelist allows every group.
func (c *Checker) IsGroupAllowed(groupID string) bool {
	if groupID == "" {
		return true
	}
	if !c.groupWhitelist || len(c.groups) == 0 {
		return true
	}
	_, ok := c.groups[groupID]
	return ok
}
