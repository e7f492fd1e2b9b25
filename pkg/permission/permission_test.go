package permission

import "testing"

func TestIsAdmin(t *testing.T) {
	c := NewChecker([]string{"10001", "10002"}, false, nil)

	if !c.IsAdmin("10001") {
		t.Fatal("listed user must be admin")
	}
	if c.IsAdmin("30003") {
		t.Fatal("unlisted user must not be admin")
	}
	if c.IsAdmin("") {
		t.Fatal("empty user id must not be admin")
	}
}

func TestIsGroupAllowed(t *testing.T) {
	tests := []struct {
		name      string
		whitelist bool
		groups    []string
		groupID   string
		want      bool
	}{
		{"private chat always passes", true, []string{"1001"}, "", true},
		{"whitelist disabled allows all", false, []string{"1001"}, "9999", true},
		{"empty whitelist allows all", true, nil, "9999", true},
		{"listed group passes", true, []string{"1001", "1002"}, "1002", true},
		{"unlisted group blocked", true, []string{"1001"}, "9999", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(nil, tt.whitelist, tt.groups)
			if got := c.IsGroupAllowed(tt.groupID); got != tt.want {
				t.Fatalf("IsGroupAllowed(%q) = %v, want %v", tt.groupID, got, tt.want)
			}
		})
	}
}
