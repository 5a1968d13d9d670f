// Package store implements the collection store: per-user owned and
// wishlist sets of game ids. Storage faults never cross this boundary as
// raw errors; mutations report a determinate outcome instead.
package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drabenstadtj/bgman/pkg/model"
)

// ListKind names one of the two membership lists. The value doubles as
// the user-facing list name in outcome messages.
type ListKind string

const (
	KindOwned    ListKind = "collection"
	KindWishlist ListKind = "wishlist"
)

// Reason classifies why a mutation did not apply.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonDuplicate    Reason = "duplicate"
	ReasonUserNotFound Reason = "user-not-found"
	ReasonNotAMember   Reason = "not-a-member"
	ReasonStorage      Reason = "storage-error"
)

const genericFaultMessage = "Something went wrong, please try again later."

// AddOutcome reports the result of an add. A duplicate is not an error:
// Added is false and Reason says why.
type AddOutcome struct {
	Added   bool
	Reason  Reason
	Message string
}

// RemoveOutcome reports the result of a remove.
type RemoveOutcome struct {
	Removed bool
	Reason  Reason
	Message string
}

// CollectionStore is the persistence boundary exposed to command
// handlers, keyed by the invoking user's Discord id and a BGG game id.
type CollectionStore interface {
	AddOwned(ctx context.Context, discordID string, gameID int) AddOutcome
	RemoveOwned(ctx context.Context, discordID string, gameID int) RemoveOutcome
	ListOwned(ctx context.Context, discordID string) ([]int, error)
	AddWishlist(ctx context.Context, discordID string, gameID int) AddOutcome
	RemoveWishlist(ctx context.Context, discordID string, gameID int) RemoveOutcome
	ListWishlist(ctx context.Context, discordID string) ([]int, error)
}

type gormStore struct {
	db  *gorm.DB
	log *logrus.Logger
}

// New returns a CollectionStore backed by the given gorm handle.
func New(db *gorm.DB, log *logrus.Logger) CollectionStore {
	return &gormStore{db: db, log: log}
}

func (s *gormStore) AddOwned(ctx context.Context, discordID string, gameID int) AddOutcome {
	return s.add(ctx, KindOwned, discordID, gameID)
}

func (s *gormStore) AddWishlist(ctx context.Context, discordID string, gameID int) AddOutcome {
	return s.add(ctx, KindWishlist, discordID, gameID)
}

func (s *gormStore) RemoveOwned(ctx context.Context, discordID string, gameID int) RemoveOutcome {
	return s.remove(ctx, KindOwned, discordID, gameID)
}

func (s *gormStore) RemoveWishlist(ctx context.Context, discordID string, gameID int) RemoveOutcome {
	return s.remove(ctx, KindWishlist, discordID, gameID)
}

func (s *gormStore) ListOwned(ctx context.Context, discordID string) ([]int, error) {
	return s.list(ctx, KindOwned, discordID)
}

func (s *gormStore) ListWishlist(ctx context.Context, discordID string) ([]int, error) {
	return s.list(ctx, KindWishlist, discordID)
}

func (s *gormStore) add(ctx context.Context, kind ListKind, discordID string, gameID int) AddOutcome {
	user, err := s.findOrCreateUser(ctx, discordID)
	if err != nil {
		s.log.WithError(err).WithField("discord_id", discordID).Error("add: find-or-create user failed")
		return AddOutcome{Reason: ReasonStorage, Message: genericFaultMessage}
	}

	member, err := s.isMember(ctx, kind, user.ID, gameID)
	if err != nil {
		s.log.WithError(err).Error("add: membership check failed")
		return AddOutcome{Reason: ReasonStorage, Message: genericFaultMessage}
	}
	if member {
		return AddOutcome{
			Reason:  ReasonDuplicate,
			Message: fmt.Sprintf("Game with ID %d is already in your %s.", gameID, kind),
		}
	}

	if err := s.db.WithContext(ctx).FirstOrCreate(&model.Game{}, model.Game{ID: gameID}).Error; err != nil {
		s.log.WithError(err).WithField("game_id", gameID).Error("add: find-or-create game failed")
		return AddOutcome{Reason: ReasonStorage, Message: genericFaultMessage}
	}

	if err := s.db.WithContext(ctx).Create(membershipRow(kind, user.ID, gameID)).Error; err != nil {
		s.log.WithError(err).Error("add: insert membership failed")
		return AddOutcome{Reason: ReasonStorage, Message: genericFaultMessage}
	}

	return AddOutcome{
		Added:   true,
		Message: fmt.Sprintf("Game with ID %d has been added to your %s.", gameID, kind),
	}
}

func (s *gormStore) remove(ctx context.Context, kind ListKind, discordID string, gameID int) RemoveOutcome {
	var user model.User
	err := s.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RemoveOutcome{
			Reason:  ReasonUserNotFound,
			Message: fmt.Sprintf("Game with ID %d is not in your %s.", gameID, kind),
		}
	}
	if err != nil {
		s.log.WithError(err).WithField("discord_id", discordID).Error("remove: user lookup failed")
		return RemoveOutcome{Reason: ReasonStorage, Message: genericFaultMessage}
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", user.ID, gameID).
		Delete(membershipRow(kind, user.ID, gameID))
	if res.Error != nil {
		s.log.WithError(res.Error).Error("remove: delete membership failed")
		return RemoveOutcome{Reason: ReasonStorage, Message: genericFaultMessage}
	}
	if res.RowsAffected == 0 {
		return RemoveOutcome{
			Reason:  ReasonNotAMember,
			Message: fmt.Sprintf("Game with ID %d is not in your %s.", gameID, kind),
		}
	}

	return RemoveOutcome{
		Removed: true,
		Message: fmt.Sprintf("Game with ID %d has been removed from your %s.", gameID, kind),
	}
}

// list returns the game ids in the user's list. An unknown user yields an
// empty set, not an error.
func (s *gormStore) list(ctx context.Context, kind ListKind, discordID string) ([]int, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []int{}, nil
	}
	if err != nil {
		s.log.WithError(err).WithField("discord_id", discordID).Error("list: user lookup failed")
		return nil, errors.Wrap(err, "list: user lookup")
	}

	ids := []int{}
	err = s.db.WithContext(ctx).
		Model(membershipRow(kind, 0, 0)).
		Where("user_id = ?", user.ID).
		Pluck("game_id", &ids).Error
	if err != nil {
		s.log.WithError(err).Error("list: membership query failed")
		return nil, errors.Wrap(err, "list: membership query")
	}
	return ids, nil
}

func (s *gormStore) findOrCreateUser(ctx context.Context, discordID string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where(model.User{DiscordID: discordID}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) isMember(ctx context.Context, kind ListKind, userID uint, gameID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(membershipRow(kind, 0, 0)).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).Error
	return count > 0, err
}

func membershipRow(kind ListKind, userID uint, gameID int) interface{} {
	if kind == KindOwned {
		return &model.OwnedGame{UserID: userID, GameID: gameID}
	}
	return &model.WishlistGame{UserID: userID, GameID: gameID}
}
