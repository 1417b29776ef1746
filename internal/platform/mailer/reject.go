// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"errors"
	"fmt"
	"net/textproto"
	"regexp"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// ReasonPermanentFailure is the suppression reason for a recipient the relay
// refused for good.
const ReasonPermanentFailure = "smtp_permanent_error"

// Rejection is a reply code the relay sent back for a delivery attempt.
type Rejection struct {
	Code     int
	Enhanced string
	Reply    string
	Err      error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("mailer: smtp rejected with %d: %s", r.Code, r.Reply)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

var recipientPhrases = []string{
	"user unknown",
	"mailbox unavailable",
	"invalid recipient",
	"does not exist",
	"no such user",
	"recipient rejected",
}

// Permanent reports whether the reply says the mailbox is gone, not just
// that the relay refused this attempt.
func (r *Rejection) Permanent() bool {
	if r.Code < 500 || r.Code > 599 {
		return false
	}

	switch r.Code {
	case 550, 551, 553:
		return true
	}
	if strings.HasPrefix(r.Enhanced, "5.1.") {
		return true
	}

	reply := strings.ToLower(r.Reply)
	for _, phrase := range recipientPhrases {
		if strings.Contains(reply, phrase) {
			return true
		}
	}
	return false
}

// IsPermanent reports whether err carries a permanent recipient rejection.
// Errors without an SMTP reply code, such as dial failures, never are.
func IsPermanent(err error) bool {
	var rejection *Rejection
	return errors.As(err, &rejection) && rejection.Permanent()
}

var enhancedCode = regexp.MustCompile(`^\d\.\d{1,3}\.\d{1,3}`)

// rejectionFrom lifts the relay's reply out of a send error. Anything
// without a reply code is wrapped as is.
func rejectionFrom(recipient string, err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return &Rejection{
			Code:     protoErr.Code,
			Enhanced: enhancedCode.FindString(protoErr.Msg),
			Reply:    protoErr.Msg,
			Err:      err,
		}
	}

	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) && sendErr.ErrorCode() > 0 {
		reply, _, _ := strings.Cut(sendErr.Error(), ", affected recipient")
		return &Rejection{
			Code:     sendErr.ErrorCode(),
			Enhanced: sendErr.EnhancedStatusCode(),
			Reply:    reply,
			Err:      err,
		}
	}

	return fmt.Errorf("mailer: smtp send to %s: %w", recipient, err)
}
