package server

import (
	"encoding/json"
	"strings"

	"github.com/anchal00/gameroom/internal/db"
)

type UserRequest struct {
	Name      string `json:"name"`
	Level     int    `json:"level"`
	Cosmetics struct {
		Avatar string `json:"avatar"`
		Frame  string `json:"frame"`
		Title  string `json:"title"`
	} `json:"cosmetics"`
}

func ParseUserRequest(data []byte) (*UserRequest, error) {
	userRequest := &UserRequest{}
	err := json.Unmarshal(data, userRequest)
	return userRequest, err
}

func (r *UserRequest) User(userId string) db.User {
	return db.User{
		UserId: strings.TrimSpace(userId),
		Name:   strings.TrimSpace(r.Name),
		Level:  r.Level,
		Avatar: r.Cosmetics.Avatar,
		Frame:  r.Cosmetics.Frame,
		Title:  r.Cosmetics.Title,
	}
}
