package auth

import (
	persistence "github.com/goliatone/go-persistence-bun"
)

func init() {
	persistence.RegisterModel((*Customer)(nil))
}
