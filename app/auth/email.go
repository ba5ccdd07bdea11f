package auth

import "strings"

type mailboxRule struct {
	stripTag  bool
	stripDots bool
	alias     string
}

// Providers whose mailboxes ignore "+tag" suffixes and, for Google, dots.
var mailboxRules = map[string]mailboxRule{
	"gmail.com":      {stripTag: true, stripDots: true},
	"googlemail.com": {stripTag: true, stripDots: true, alias: "gmail.com"},
	"outlook.com":    {stripTag: true},
	"hotmail.com":    {stripTag: true},
	"icloud.com":     {stripTag: true},
	"me.com":         {stripTag: true, alias: "icloud.com"},
	"proton.me":      {stripTag: true},
	"protonmail.com": {stripTag: true, alias: "proton.me"},
	"fastmail.com":   {stripTag: true},
}

// canonicalEmail maps every spelling of a mailbox to one address, so a user
// cannot open a second console account by varying case, tags or dots.
func canonicalEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}

	rule, known := mailboxRules[domain]
	if !known {
		return email
	}
	if rule.stripTag {
		local, _, _ = strings.Cut(local, "+")
	}
	if rule.stripDots {
		local = strings.ReplaceAll(local, ".", "")
	}
	if rule.alias != "" {
		domain = rule.alias
	}
	return local + "@" + domain
}
