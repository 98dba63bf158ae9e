package realtime

import (
	"bytes"
	"encoding/json"
)

// flexString accepts a JSON string or number. Match and tournament ids come
// in either form depending on the endpoint.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// envelope is the union of every inbound field we read.
type envelope struct {
	Type           string          `json:"type"`
	MatchID        flexString      `json:"match_id"`
	PlayerNumber   int             `json:"player_number"`
	Opponent       json.RawMessage `json:"opponent"`
	GameState      json.RawMessage `json:"game_state"`
	Winner         flexString      `json:"winner"`
	WinnerDisplay  string          `json:"winner_display"`
	Message        string          `json:"message"`
	PlayerUsername string          `json:"player_username"`
	QueuePosition  int             `json:"queue_position"`
	TournamentID   flexString      `json:"tournament_id"`
	Players        json.RawMessage `json:"players"`
	Waiting        json.RawMessage `json:"waiting"`
	YourPosition   int             `json:"your_position"`
	Rankings       json.RawMessage `json:"rankings"`
	Complete       bool            `json:"complete"`
}

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wirePlayer struct {
	Username string  `json:"username"`
	Elo      float64 `json:"elo"`
}

type wireState struct {
	Pads struct {
		Player1 *wirePoint `json:"player1"`
		Player2 *wirePoint `json:"player2"`
	} `json:"pads"`
	Ball  *wirePoint `json:"ball"`
	Score struct {
		Player1 int `json:"player1"`
		Player2 int `json:"player2"`
	} `json:"score"`
	PlayerInfo *struct {
		Player1 wirePlayer `json:"player1"`
		Player2 wirePlayer `json:"player2"`
	} `json:"player_info"`
}

type wireRanking struct {
	Position int        `json:"position"`
	Rank     int        `json:"rank"`
	Username string     `json:"username"`
	Player   flexString `json:"player"`
	Points   int        `json:"points"`
}

// names reads a list of players given either as strings or as objects with a
// username.
func names(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var objs []wirePlayer
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Username)
	}
	return out
}

// count reads a number, a boolean or a list as a count.
func count(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return 1
		}
		return 0
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return len(list)
	}
	return 0
}

// text reads a string, or the username of an object.
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var p wirePlayer
	if err := json.Unmarshal(raw, &p); err == nil {
		return p.Username
	}
	return string(raw)
}

// Outbound messages.

type inputMessage struct {
	Input int `json:"input"`
}

type playerInputMessage struct {
	Type  string `json:"type"`
	Input int    `json:"input"`
}

type typedMessage struct {
	Type string `json:"type"`
}

type forfeitMessage struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
}

