// SPDX-FileCopyrightText: 2026 mchttp3 contributors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mchttp3

// ALPNToken is the single ALPN identity this module advertises and
// accepts (spec.md §6). Real HTTP/3 advertises a version-specific "h3"
// family of tokens; this module deliberately advertises only its own,
// since it never interoperates with an unmodified HTTP/3 stack.
const ALPNToken = "hqm-05"

// SelectALPN picks ALPNToken out of offered if present. session may be
// nil, in which case selection fails immediately: spec.md §9(b) flags
// the original's null-check-after-role-check ordering as a bug, so
// here the nil check runs first, before anything that would dereference
// session.
func SelectALPN(session *Session, offered []string) (string, error) {
	if session == nil {
		return "", NewStatusError(StatusHTTPALPNFailed, "nil session", nil)
	}
	for _, tok := range offered {
		if tok == ALPNToken {
			return ALPNToken, nil
		}
	}
	return "", NewStatusError(StatusHTTPALPNFailed, "no matching ALPN token", nil)
}
