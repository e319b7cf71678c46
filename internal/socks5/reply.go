package socks5

// RFC 1928 reply codes beyond the ones txthinking/socks5 names are written
// out here; value is the message reported for a rejected CONNECT.
var replyMessages = map[byte]string{
	0x01: "General SOCKS server failure.",
	0x02: "Connection not allowed by ruleset.",
	0x03: "Network unreachable.",
	0x04: "Host unreachable.",
	0x05: "Connection refused.",
	0x06: "TTL expired.",
	0x07: "Command not supported.",
	0x08: "Address type not supported.",
}

// ReplyMessage describes a non-success CONNECT reply code.
func ReplyMessage(rep byte) string {
	if msg, ok := replyMessages[rep]; ok {
		return msg
	}
	return "Unassigned reply status."
}
