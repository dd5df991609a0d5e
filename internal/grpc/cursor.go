package grpcserver

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pageSize(n int32) int {
	size := int(n)
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size
}

// encodeCursor builds an opaque next_page_token from the last row id.
func encodeCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte("id:" + strconv.FormatInt(id, 10)))
}

// decodeCursor parses an opaque page_token. An empty token means the first page.
func decodeCursor(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("base64: %w", err)
	}
	raw, ok := strings.CutPrefix(string(b), "id:")
	if !ok {
		return 0, fmt.Errorf("malformed cursor")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed cursor id")
	}
	return id, nil
}
