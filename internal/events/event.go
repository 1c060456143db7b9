package events

import (
	"fmt"
	"strconv"
	"strings"
)

type Op string

const (
	OpSaved   Op = "saved"
	OpDeleted Op = "deleted"
)

// Event is one entry of the article events queue, encoded as "<op>:<id>".
type Event struct {
	Op        Op
	ArticleID int64
}

func (e Event) String() string {
	return string(e.Op) + ":" + strconv.FormatInt(e.ArticleID, 10)
}

func Parse(s string) (Event, error) {
	op, id, found := strings.Cut(s, ":")
	if !found {
		return Event{}, fmt.Errorf("malformed article event %q", s)
	}

	switch Op(op) {
	case OpSaved, OpDeleted:
	default:
		return Event{}, fmt.Errorf("unknown article event op %q", op)
	}

	articleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || articleID < 1 {
		return Event{}, fmt.Errorf("invalid article id in event %q", s)
	}

	return Event{Op: Op(op), ArticleID: articleID}, nil
}
