package security

import (
	"fmt"
	"strings"
)

// blockedFragments are shell fragments refused whatever the permission rules say.
var blockedFragments = []string{
	"rm -rf /",
	"rm -rf ~",
	"rm -rf $HOME",
	"rm -fr /",
	"mkfs.",
	"mkfs ",
	":(){ :|:& };:",
	":(){:|:&};:",
	"dd if=/dev/zero of=/dev/",
	"dd if=/dev/random of=/dev/",
	"dd if=/dev/urandom of=/dev/",
	"> /dev/sda",
	"> /dev/nvme",
	"chmod -R 777 /",
	"chown -R root /",
	"mv / /dev/null",
	"/dev/tcp/",
	"/dev/udp/",
}

// CheckCommand returns an error if command is empty or matches a catastrophic pattern.
func CheckCommand(command string) error {
	normalized := strings.Join(strings.Fields(command), " ")
	if normalized == "" {
		return fmt.Errorf("empty command")
	}
	for _, frag := range blockedFragments {
		if strings.Contains(normalized, frag) {
			return fmt.Errorf("command blocked: contains %q", frag)
		}
	}
	return nil
}
