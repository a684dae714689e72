// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import "errors"

// Rejection is a routine policy or input failure. Its reason is
// reported verbatim to the submitter and is not logged as an error.
// Anything that is not a Rejection is an operational failure: the
// submitter gets a generic reply and the detail goes to the log.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func reject(reason string) *Rejection {
	return &Rejection{Reason: reason}
}

// AsRejection extracts the rejection reason from err, if any.
func AsRejection(err error) (string, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}

// User-facing rejection reasons.
const (
	msgQuotaExhausted  = "You can only post %d suggestions."
	msgNoName          = "No name found."
	msgNoAttachment    = "No attachment found."
	msgTooLarge        = "6MB is the size limit for images."
	msgTooSmall        = "Image must be at least 128x128px."
	msgNotAnImage      = "Attachment is not an image."
	msgBadExtension    = "JPG, JPEG or PNG, nothing else is allowed."
	msgBadFilename     = "Filename is not processable."
	msgUnknownReviewID = "ID is not in messages."
)
