package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	FromName  string
	FromAddr  string
	Date      time.Time
	UID       uint32

	// Header is the raw RFC 5322 header block, fetched with PEEK so the
	// message stays unread.
	Header []byte
}
