package avurl

import "strings"

// layout records the punctuation dropped while splitting so join can rebuild the input exactly.
type layout struct {
	scheme   bool // "scheme:" present
	slashes  int  // 0..2 slashes after the scheme
	at       bool // userinfo separator present
	brackets bool // IPv6 literal in []
	port     bool // ":port" present
	junk     string
}

// split breaks a media URL the way FFmpeg's av_url_split does:
//
//	scheme:[//][userinfo@]host[:port][/path?query#fragment]
//
// A string without ':' is a plain path (a local file for ffmpeg).
// The port is kept raw; callers validate it.
func split(raw string) (u URL, l layout) {
	colon := strings.IndexByte(raw, ':')
	if colon < 0 {
		u.Path = raw
		return
	}
	l.scheme = true
	u.Scheme = raw[:colon]

	cur := colon + 1
	for l.slashes < 2 && cur < len(raw) && raw[cur] == '/' {
		cur++
		l.slashes++
	}
	if cur == len(raw) {
		return
	}

	end := len(raw)
	if i := strings.IndexAny(raw[cur:], "/?#"); i >= 0 {
		end = cur + i
	}
	u.Path = raw[end:]
	authority := raw[cur:end]
	if authority == "" {
		return
	}

	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		l.at = true
		u.Userinfo = authority[:at]
		authority = authority[at+1:]
	}

	if strings.HasPrefix(authority, "[") {
		if rb := strings.IndexByte(authority, ']'); rb >= 0 {
			l.brackets = true
			u.Host = authority[1:rb]
			rest := authority[rb+1:]
			switch {
			case strings.HasPrefix(rest, ":"):
				l.port = true
				u.Port = rest[1:]
			case rest != "":
				l.junk = rest
			}
			return
		}
	}

	if i := strings.IndexByte(authority, ':'); i >= 0 {
		l.port = true
		u.Host = authority[:i]
		u.Port = authority[i+1:]
		return
	}
	u.Host = authority
	return
}

// join is the inverse of split.
func join(u URL, l layout) string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	if l.scheme {
		b.WriteByte(':')
	}
	b.WriteString(strings.Repeat("/", l.slashes))
	b.WriteString(u.Userinfo)
	if l.at {
		b.WriteByte('@')
	}
	if l.brackets {
		b.WriteString("[" + u.Host + "]")
	} else {
		b.WriteString(u.Host)
	}
	if l.port {
		b.WriteByte(':')
	}
	b.WriteString(u.Port)
	b.WriteString(l.junk)
	b.WriteString(u.Path)
	return b.String()
}
