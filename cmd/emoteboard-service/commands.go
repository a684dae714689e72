// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"

	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/lib/review"
	"github.com/bureau-foundation/emoteboard/messaging"
)

// commandPrefix starts every command invocation.
const commandPrefix = "!emote"

// Replies that do not come from the review core.
const (
	msgOperationalFailure = "Something went wrong, please try again later."
	msgRemoveFailed       = "Internal error, pls try again later."
	msgMissingID          = "Missing id."
	msgDone               = "Done"
	msgNoOpenReviews      = "No open reviews."
	msgGroupOnly          = "This command only works in a group room."
	msgNotAllowed         = "You are not allowed to do that."
)

// commandPolicy gates who may run a command and where.
type commandPolicy struct {
	// RequiresPrivilege restricts the command to configured
	// privileged users.
	RequiresPrivilege bool
	// GroupOnly refuses the command in the one-to-one rooms the
	// service created for replies.
	GroupOnly bool
}

type commandContext struct {
	room    ref.RoomID
	event   ref.EventID
	sender  ref.UserID
	name    string
	args    []string
	content messaging.MessageContent
}

type commandHandler func(ctx context.Context, cmd commandContext)

type command struct {
	policy  commandPolicy
	handler func(s *emoteService) commandHandler
}

// commands is the dispatch table.
var commands = map[string]command{
	"suggest": {
		policy:  commandPolicy{GroupOnly: true},
		handler: func(s *emoteService) commandHandler { return s.handleSuggest },
	},
	"tally": {
		policy:  commandPolicy{RequiresPrivilege: true, GroupOnly: true},
		handler: func(s *emoteService) commandHandler { return s.handleTally },
	},
	"remove": {
		policy:  commandPolicy{RequiresPrivilege: true, GroupOnly: true},
		handler: func(s *emoteService) commandHandler { return s.handleRemove },
	},
}

type invocation struct {
	name string
	args []string
}

// parseCommand extracts a command invocation from a message body.
// Bodies not starting with the command prefix are not commands.
func parseCommand(body string) (invocation, bool) {
	fields := strings.Fields(body)
	if len(fields) < 2 || fields[0] != commandPrefix {
		return invocation{}, false
	}
	return invocation{name: fields[1], args: fields[2:]}, true
}

// dispatch enforces the command's policy and runs its handler.
func (s *emoteService) dispatch(ctx context.Context, cmd commandContext) {
	entry, known := commands[cmd.name]
	if !known {
		return
	}
	if entry.policy.GroupOnly && s.isDirectRoom(cmd.room) {
		s.reply(ctx, cmd, msgGroupOnly)
		return
	}
	if entry.policy.RequiresPrivilege && !s.privileged[cmd.sender] {
		s.reply(ctx, cmd, msgNotAllowed)
		return
	}
	entry.handler(s)(ctx, cmd)
}

// handleSuggest runs a submission through the review gate. The
// triggering event must be an image message captioned with the
// command; a plain text invocation carries no attachment and is
// rejected by the gate.
func (s *emoteService) handleSuggest(ctx context.Context, cmd commandContext) {
	var attachments []review.Attachment
	if cmd.content.URL != "" {
		var info messaging.FileInfo
		if cmd.content.Info != nil {
			info = *cmd.content.Info
		}
		attachments = append(attachments, review.Attachment{
			Filename: cmd.content.Filename,
			URL:      cmd.content.URL,
			Size:     info.Size,
			Width:    info.Width,
			Height:   info.Height,
		})
	}

	// Display name lookup is best effort; the gate falls back to the
	// localpart.
	senderName, err := s.session.DisplayName(ctx, cmd.sender)
	if err != nil {
		s.logger.Debug("display name lookup failed", "user_id", cmd.sender, "error", err)
	}

	submission := review.Submission{
		Event:       cmd.event,
		Sender:      cmd.sender,
		SenderName:  senderName,
		Name:        strings.Join(cmd.args, " "),
		Attachments: attachments,
	}

	err = s.coordinator.Submit(ctx, submission)
	if err == nil {
		return
	}
	if reason, ok := review.AsRejection(err); ok {
		s.reply(ctx, cmd, reason)
		return
	}
	s.logger.Error("submission failed",
		"sender", cmd.sender,
		"name", submission.Name,
		"error", err,
	)
	s.reply(ctx, cmd, msgOperationalFailure)
}

// handleTally posts the vote-ratio report to the invoking room.
func (s *emoteService) handleTally(ctx context.Context, cmd commandContext) {
	report := s.coordinator.Tally(ctx)
	if report == "" {
		s.reply(ctx, cmd, msgNoOpenReviews)
		return
	}
	if _, err := s.session.SendMessage(ctx, cmd.room, messaging.NewTextMessage(report)); err != nil {
		s.logger.Error("tally report delivery failed", "room_id", cmd.room, "error", err)
		s.reply(ctx, cmd, msgOperationalFailure)
	}
}

// handleRemove finalizes the review named by the command argument.
func (s *emoteService) handleRemove(ctx context.Context, cmd commandContext) {
	if len(cmd.args) != 1 {
		s.reply(ctx, cmd, msgMissingID)
		return
	}
	voteID, err := ref.ParseEventID(cmd.args[0])
	if err != nil {
		s.reply(ctx, cmd, msgMissingID)
		return
	}

	err = s.coordinator.Remove(ctx, voteID)
	if err == nil {
		s.reply(ctx, cmd, msgDone)
		return
	}
	if reason, ok := review.AsRejection(err); ok {
		s.reply(ctx, cmd, reason)
		return
	}
	s.logger.Error("review removal failed", "vote_id", voteID, "error", err)
	s.reply(ctx, cmd, msgRemoveFailed)
}
