package service

import (
	"time"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

func mustDate(s string) time.Time {
	t, err := time.ParseInLocation(domain.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}
