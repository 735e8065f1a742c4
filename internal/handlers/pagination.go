package handlers

import (
	"errors"
	"strconv"

	"github.com/roomly-app/MessagingBack/internal/models"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

func parseLimit(raw string) int {
	if raw == "" {
		return defaultMessageLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultMessageLimit
	}
	if limit > maxMessageLimit {
		return maxMessageLimit
	}
	return limit
}

// parseCursor reads the "after" sequence cursor; empty means from the start.
func parseCursor(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		return 0, errors.New("invalid cursor")
	}
	return cursor, nil
}

func buildPageInfo(limit int, messages []models.Message, hasMore bool) models.PageInfo {
	info := models.PageInfo{
		Limit:   limit,
		HasMore: hasMore,
	}
	if hasMore && len(messages) > 0 {
		info.NextCursor = messages[len(messages)-1].Seq
	}
	return info
}
