package repository

import (
	"github.com/kpelto/benchline/internal/model"
)

type UserRepository interface {
	Start() error
	Stop()
	CheckAuth(username, password string) bool
	Get(username string) *model.User
}
