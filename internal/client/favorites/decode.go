package favorites

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

// DecodeList reads a favourites response. The list may be the body itself
// or sit under data, favorites or items (also data.favorites). A body
// without any list decodes to an empty list.
func DecodeList(raw json.RawMessage) ([]models.Favorite, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Favorite{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: favourites: %v", common.ErrMalformedResponse, err)
	}

	arr := locate(body)
	out := make([]models.Favorite, 0, len(arr))
	seen := make(map[string]bool, len(arr))
	for _, e := range arr {
		rec, ok := e.(map[string]any)
		if !ok {
			continue
		}
		fav := decodeOne(rec)
		if fav.TargetID == "" || seen[fav.TargetID] {
			continue
		}
		seen[fav.TargetID] = true
		out = append(out, fav)
	}
	return out, nil
}

func locate(body any) []any {
	switch t := body.(type) {
	case []any:
		return t
	case map[string]any:
		for _, key := range []string{"data", "favorites", "items"} {
			switch v := t[key].(type) {
			case []any:
				return v
			case map[string]any:
				if arr := locate(v); arr != nil {
					return arr
				}
			}
		}
	}
	return nil
}

func decodeOne(rec map[string]any) models.Favorite {
	target, _ := rec["target"].(map[string]any)
	prof := firstMap(rec, "profile", "targetProfile")
	if prof == nil && target != nil {
		if prof = firstMap(target, "profile"); prof == nil {
			prof = target
		}
	}
	if prof == nil {
		prof = map[string]any{}
	}

	fav := models.Favorite{
		TargetID: str(rec, "targetId", "target_id", "targetUserId", "target_user_id", "favoriteUserId"),
		Profile: models.FavoriteProfile{
			FirstName: str(prof, "firstName", "first_name"),
			LastName:  str(prof, "lastName", "last_name"),
			City:      str(prof, "city"),
			Age:       num(prof, "age"),
			PhotoURL:  str(prof, "photoUrl", "photo_url", "photoURL", "avatar"),
		},
	}
	if fav.TargetID == "" && target != nil {
		fav.TargetID = str(target, "id", "_id")
	}
	if ts := str(rec, "createdAt", "created_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			fav.CreatedAt = t
		}
	}
	return fav
}

func firstMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v
		}
	}
	return nil
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func num(m map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}
