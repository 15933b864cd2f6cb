package navcache_test

import (
	"time"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/target"
)

var timeZero = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func targetElection(title string) target.Election {
	return target.Election{Type: model.TargetWindow, Title: title}
}
