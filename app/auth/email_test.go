package auth

import "testing"

func TestCanonicalEmail(t *testing.T) {
	cases := map[string]string{
		" Jane.Doe+console@GMail.com ": "janedoe@gmail.com",
		"jane.doe@googlemail.com":      "janedoe@gmail.com",
		"jane+ci@outlook.com":          "jane@outlook.com",
		"jane.doe+a@me.com":            "jane.doe@icloud.com",
		"jane@protonmail.com":          "jane@proton.me",
		"jane.doe+tag@example.com":     "jane.doe+tag@example.com",
		"not-an-email":                 "not-an-email",
	}
	for in, want := range cases {
		if got := canonicalEmail(in); got != want {
			t.Fatalf("canonicalEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
