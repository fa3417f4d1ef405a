package sandbox

import (
	"encoding/base64"
	"strconv"
)

// Page size limits applied by every listing endpoint.
const (
	DefaultMaxResults = 50
	MaxMaxResults     = 250
)

// paginate returns the page of items selected by pageToken and the token of the next page.
func paginate[T any](items []T, pageToken string, maxResults int) ([]T, string, error) {
	maxResults, err := pageSize(maxResults)
	if err != nil {
		return nil, "", err
	}

	offset := 0
	if pageToken != "" {
		if offset, err = decodePageToken(pageToken); err != nil || offset > len(items) {
			return nil, "", invalid("invalid page token %q", pageToken)
		}
	}

	end := min(offset+maxResults, len(items))
	next := ""
	if end < len(items) {
		next = encodePageToken(end)
	}
	return items[offset:end], next, nil
}

// pageSize applies the default and the upper bound to maxResults.
func pageSize(maxResults int) (int, error) {
	if maxResults <= 0 {
		return DefaultMaxResults, nil
	}
	if maxResults > MaxMaxResults {
		return 0, invalid("maxResults must be at most %d", MaxMaxResults)
	}
	return maxResults, nil
}

func encodePageToken(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

func decodePageToken(token string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, err
	}
	if len(raw) < 3 || string(raw[:2]) != "o:" {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.Atoi(string(raw[2:]))
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// encodeCursor makes a token naming the last item of a page.
func encodeCursor(lastID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte("a:" + lastID))
}

func decodeCursor(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	if len(raw) < 3 || string(raw[:2]) != "a:" {
		return "", strconv.ErrSyntax
	}
	return string(raw[2:]), nil
}
