package usecases

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"warbler/entities"
	"warbler/repositories"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const TimelineLimit = 100

// Notifier receives newly created messages along with the ids of the
// author's followers.
type Notifier interface {
	Publish(message *entities.Message, followerIDs []uint)
}

type MessageUseCase struct {
	Messages repositories.MessageRepository
	Follows  repositories.FollowRepository
	Likes    repositories.LikeRepository
	notifier Notifier
}

func NewMessageUseCase(messages repositories.MessageRepository, follows repositories.FollowRepository, likes repositories.LikeRepository, notifier Notifier) *MessageUseCase {
	return &MessageUseCase{
		Messages: messages,
		Follows:  follows,
		Likes:    likes,
		notifier: notifier,
	}
}

// Create posts a message for author and fans it out to the author's followers.
func (uc *MessageUseCase) Create(ctx context.Context, author *entities.User, text string) (*entities.Message, error) {
	if author == nil {
		return nil, ErrUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > entities.MaxMessageLength {
		return nil, ErrInvalidMessage
	}

	message := &entities.Message{Text: text, UserID: author.ID}
	if err := uc.Messages.Create(ctx, message); err != nil {
		return nil, err
	}
	message.User = *author

	if uc.notifier != nil {
		followerIDs, err := uc.Follows.FollowerIDs(ctx, author.ID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", author.ID).Warn("could not load followers for feed")
		} else {
			uc.notifier.Publish(message, followerIDs)
		}
	}
	return message, nil
}

func (uc *MessageUseCase) Get(ctx context.Context, id uint) (*entities.Message, error) {
	message, err := uc.Messages.GetByID(ctx, id)
	if err != nil {
		return nil, translateReadErr(err)
	}
	return message, nil
}

// Delete removes the message if principal owns it. A missing message is
// ErrNotFound and someone else's message is ErrForbidden; neither touches the store.
func (uc *MessageUseCase) Delete(ctx context.Context, principal *entities.User, id uint) error {
	if principal == nil {
		return ErrUnauthorized
	}
	message, err := uc.Messages.GetByID(ctx, id)
	if err != nil {
		return translateReadErr(err)
	}
	if message.UserID != principal.ID {
		return ErrForbidden
	}
	deleted, err := uc.Messages.DeleteOwned(ctx, id, principal.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// ToggleLike likes the message, or unlikes it if already liked, and returns
// the new state.
func (uc *MessageUseCase) ToggleLike(ctx context.Context, principal *entities.User, messageID uint) (bool, error) {
	if principal == nil {
		return false, ErrUnauthorized
	}
	message, err := uc.Messages.GetByID(ctx, messageID)
	if err != nil {
		return false, translateReadErr(err)
	}
	if message.UserID == principal.ID {
		return false, ErrSelfLike
	}

	removed, err := uc.Likes.Delete(ctx, principal.ID, messageID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	if err := uc.Likes.Create(ctx, principal.ID, messageID); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, err
	}
	return true, nil
}

// Timeline returns the newest messages from the users principal follows and
// from principal itself.
func (uc *MessageUseCase) Timeline(ctx context.Context, principal *entities.User, limit int) ([]entities.Message, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > TimelineLimit {
		limit = TimelineLimit
	}
	ids, err := uc.Follows.FollowingIDs(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	ids = append(ids, principal.ID)
	return uc.Messages.GetByUserIDs(ctx, ids, limit)
}

// LikedSet returns the ids of the messages userID has liked.
func (uc *MessageUseCase) LikedSet(ctx context.Context, userID uint) (map[uint]bool, error) {
	ids, err := uc.Likes.LikedMessageIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
