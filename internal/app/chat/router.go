package chat

import (
	"context"
	"strings"

	"chatlink/internal/app/model"
	"chatlink/internal/pkg/errs"
)

// MaxContentBytes caps the text of a single message.
const MaxContentBytes = 5000

// validateContent requires text or an attachment and enforces the content and attachment rules.
func validateContent(senderID int64, message string, attachment *model.Attachment) *errs.CustomError {
	if strings.TrimSpace(message) == "" && attachment == nil {
		return errs.NewError(errs.ErrMessageEmpty)
	}
	if len(message) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong, MaxContentBytes)
	}
	if attachment != nil {
		return ValidateAttachment(senderID, attachment)
	}
	return nil
}

// SendPrivate persists a direct message, befriends the pair, pushes the message to the
// recipient when reachable and acknowledges the sender. Nothing is delivered unless the
// insert succeeded.
func (g *Gateway) SendPrivate(ctx context.Context, sender Entry, tempID string, p PrivateMessagePayload) {
	s := sender.Session

	if p.RecipientID <= 0 || p.RecipientID == sender.UserID {
		g.sendError(s, EventMessageError, errs.NewError(errs.ErrRecipientInvalid), tempID)
		return
	}
	if customErr := validateContent(sender.UserID, p.Message, p.Attachment); customErr != nil {
		g.sendError(s, EventMessageError, customErr, tempID)
		return
	}

	recipientID := p.RecipientID
	msg := &model.Message{
		SenderID:    sender.UserID,
		RecipientID: &recipientID,
		Content:     p.Message,
		Attachment:  p.Attachment,
	}

	storeCtx, cancel := g.storeCtx(ctx)
	err := g.store.InsertMessage(storeCtx, msg)
	cancel()

	if err != nil {
		g.metrics.storeFailed("InsertMessage")
		g.logger.Error().Err(err).
			Int64("user_id", sender.UserID).
			Int64("recipient_id", recipientID).
			Msg("direct message not persisted")
		g.sendError(s, EventMessageError, errs.NewError(errs.ErrMessageNotSent), tempID)
		return
	}
	g.metrics.messagePersisted("direct")

	storeCtx, cancel = g.storeCtx(ctx)
	err = g.store.FindOrCreateFriendship(storeCtx, sender.UserID, recipientID)
	cancel()

	if err != nil {
		g.metrics.storeFailed("FindOrCreateFriendship")
		g.logger.Warn().Err(err).
			Int64("user_id", sender.UserID).
			Int64("recipient_id", recipientID).
			Msg("friendship not recorded")
	}

	g.push(recipientID, EventMessageReceived, receivedPayload(msg))

	g.send(s, EventMessageDelivered, MessageDeliveredPayload{
		TempID:    tempID,
		ID:        msg.ID,
		To:        recipientID,
		CreatedAt: msg.CreatedAt,
	})
}

// SendGroup checks membership, persists the message and fans it out to every other member
// on the roster before acknowledging the sender.
func (g *Gateway) SendGroup(ctx context.Context, sender Entry, tempID string, p GroupMessagePayload) {
	s := sender.Session

	if p.GroupID <= 0 {
		g.sendError(s, EventGroupMessageError, errs.NewError(errs.ErrInvalidParams), tempID)
		return
	}
	if customErr := validateContent(sender.UserID, p.Message, p.Attachment); customErr != nil {
		g.sendError(s, EventGroupMessageError, customErr, tempID)
		return
	}

	storeCtx, cancel := g.storeCtx(ctx)
	member, err := g.store.IsGroupMember(storeCtx, p.GroupID, sender.UserID)
	cancel()

	if err != nil {
		g.metrics.storeFailed("IsGroupMember")
		g.logger.Error().Err(err).Int64("user_id", sender.UserID).Int64("group_id", p.GroupID).Msg("membership check failed")
		g.sendError(s, EventGroupMessageError, errs.NewError(errs.ErrMessageNotSent), tempID)
		return
	}
	if !member {
		g.logger.Info().Int64("user_id", sender.UserID).Int64("group_id", p.GroupID).Msg("group message from non-member rejected")
		g.sendError(s, EventGroupMessageError, errs.NewError(errs.ErrNotGroupMember), tempID)
		return
	}

	groupID := p.GroupID
	msg := &model.Message{
		SenderID:   sender.UserID,
		GroupID:    &groupID,
		Content:    p.Message,
		Attachment: p.Attachment,
	}

	storeCtx, cancel = g.storeCtx(ctx)
	err = g.store.InsertMessage(storeCtx, msg)
	cancel()

	if err != nil {
		g.metrics.storeFailed("InsertMessage")
		g.logger.Error().Err(err).Int64("user_id", sender.UserID).Int64("group_id", groupID).Msg("group message not persisted")
		g.sendError(s, EventGroupMessageError, errs.NewError(errs.ErrMessageNotSent), tempID)
		return
	}
	g.metrics.messagePersisted("group")

	storeCtx, cancel = g.storeCtx(ctx)
	members, err := g.store.FindGroupMembers(storeCtx, groupID)
	cancel()

	if err != nil {
		// The message is durable; members will see it in the group history.
		g.metrics.storeFailed("FindGroupMembers")
		g.logger.Error().Err(err).Int64("group_id", groupID).Int64("message_id", msg.ID).Msg("group roster unavailable, fan-out skipped")
	}

	payload := GroupMessageReceivedPayload{
		ID:         msg.ID,
		GroupID:    groupID,
		Message:    msg.Content,
		From:       sender.UserID,
		Attachment: msg.Attachment,
		CreatedAt:  msg.CreatedAt,
	}
	for _, memberID := range members {
		if memberID == sender.UserID {
			continue
		}
		g.push(memberID, EventGroupMessageReceived, payload)
	}

	g.send(s, EventGroupMessageDelivered, GroupMessageDeliveredPayload{
		TempID:    tempID,
		ID:        msg.ID,
		GroupID:   groupID,
		CreatedAt: msg.CreatedAt,
	})
}
