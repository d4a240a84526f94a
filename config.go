package nmongo

import (
	"fmt"
	"net/url"
	"strconv"
)

// ParseDialInfo parses a "mongodb://[user:password@]host[:port]/database"
// URL into a DialInfo, the way a caller would otherwise build one by
// hand per spec.md §6.2. Only a single host is supported (OP_COMMAND
// era servers predate SRV-based seed lists); ssl=true in the query
// string sets UseSSL.
func ParseDialInfo(rawurl string) (DialInfo, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return DialInfo{}, fmt.Errorf("nmongo: invalid connection string: %w", err)
	}
	if u.Scheme != "mongodb" {
		return DialInfo{}, fmt.Errorf("nmongo: unsupported scheme %q, want \"mongodb\"", u.Scheme)
	}
	if u.Host == "" {
		return DialInfo{}, fmt.Errorf("nmongo: connection string has no host")
	}

	info := DialInfo{Host: u.Hostname()}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return DialInfo{}, fmt.Errorf("nmongo: invalid port %q: %w", p, err)
		}
		info.Port = port
	}
	if len(u.Path) > 1 {
		info.Database = u.Path[1:]
	}
	if u.User != nil {
		info.User = u.User.Username()
		info.Password, _ = u.User.Password()
	}
	if ssl := u.Query().Get("ssl"); ssl == "true" {
		info.UseSSL = true
	}
	return info, nil
}
