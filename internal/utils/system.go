package utils

import (
	"os"
	"os/user"
	"strings"
)

// Identity names who ran a command and where.
type Identity struct {
	User string
	Host string
}

// CurrentIdentity looks up the current user and the short host name. Parts
// that cannot be determined are left empty.
func CurrentIdentity() Identity {
	var id Identity
	if u, err := user.Current(); err == nil {
		id.User = u.Username
	} else {
		id.User = os.Getenv("USER")
	}
	// Windows reports DOMAIN\user.
	if i := strings.LastIndex(id.User, `\`); i >= 0 {
		id.User = id.User[i+1:]
	}

	if host, err := os.Hostname(); err == nil {
		id.Host, _, _ = strings.Cut(host, ".")
	}
	return id
}
