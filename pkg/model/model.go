// Package model defines the persisted schema: users, games, and the two
// membership join tables linking them.
package model

// User is created lazily the first time a Discord user mutates a list and
// is never deleted.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	DiscordID string `gorm:"uniqueIndex;type:varchar(64);not null"`
}

func (User) TableName() string {
	return "users"
}

// Game stores only the BGG id. Descriptive attributes are fetched live
// from the catalog on read. Rows are created find-or-create and never
// cleaned up: ids are cheap and shared across users.
type Game struct {
	ID int `gorm:"primaryKey;autoIncrement:false"`
}

func (Game) TableName() string {
	return "games"
}

// OwnedGame is one (user, game) membership in the owned list.
type OwnedGame struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false"`
	GameID int  `gorm:"primaryKey;autoIncrement:false"`
}

func (OwnedGame) TableName() string {
	return "user_games_owned"
}

// WishlistGame is one (user, game) membership in the wishlist.
type WishlistGame struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false"`
	GameID int  `gorm:"primaryKey;autoIncrement:false"`
}

func (WishlistGame) TableName() string {
	return "user_wishlist"
}

// All lists every model for migration.
func All() []interface{} {
	return []interface{}{&User{}, &Game{}, &OwnedGame{}, &WishlistGame{}}
}
