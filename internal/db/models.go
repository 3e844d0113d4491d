package db

import "github.com/anchal00/gameroom/internal/room"

type User struct {
	UserId string `db:"user_id"`
	Name   string `db:"name"`
	Level  int    `db:"level"`
	Avatar string `db:"avatar"`
	Frame  string `db:"frame"`
	Title  string `db:"title"`
}

// Identity converts the row into what rooms know about a user.
func (u User) Identity() room.Identity {
	return room.Identity{
		UserID: u.UserId,
		Name:   u.Name,
		Level:  u.Level,
		Cosmetics: room.Cosmetics{
			Avatar: u.Avatar,
			Frame:  u.Frame,
			Title:  u.Title,
		},
	}
}
