// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/temimi-realtime/internal/models"
)

var (
	// ErrMalformedFrame is returned for frames that are not valid JSON or do
	// not have the shape their type requires.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownFrameType is returned for well-formed frames whose type or
	// action is not handled.
	ErrUnknownFrameType = errors.New("unknown frame type")
)

// Action strings carried inside counter and whisper payloads.
const (
	actionAllRead = "全部已读"
	actionRead    = "已读"
	actionRemove  = "移除"
	actionReceive = "接收"
	actionRecall  = "撤回"
)

// MessagingFrame is one decoded frame from the messaging channel. The
// concrete type is one of ErrorFrame, CounterFrame, WhisperAllRead,
// WhisperRead, WhisperRemove, WhisperReceive or WhisperRecall.
type MessagingFrame interface {
	frameType() string
}

// ErrorFrame is a server-side error addressed to the user.
type ErrorFrame struct {
	Message string
}

// CounterAction is what a counter frame does to its ledger slot.
type CounterAction int

const (
	// CounterAllRead zeroes the slot.
	CounterAllRead CounterAction = iota
	// CounterReceive increments the slot by one.
	CounterReceive
)

// CounterFrame updates the reply, at, love, system or dynamic slot.
type CounterFrame struct {
	Category models.UnreadCategory
	Action   CounterAction
}

// WhisperAllRead marks every private conversation read.
type WhisperAllRead struct{}

// WhisperRead marks one conversation read. ThreadID is the chat record id.
type WhisperRead struct {
	ThreadID int64
	Count    int
}

// WhisperRemove deletes one conversation. ThreadID is the chat record id.
type WhisperRemove struct {
	ThreadID int64
	Count    int
}

// WhisperReceive delivers one private message. Online is the server's
// verdict on whether the recipient is currently looking at the thread.
type WhisperReceive struct {
	Chat   models.ChatMeta
	Detail models.ChatMessage
	User   models.UserProfile
	Online bool
}

// WhisperRecall withdraws one message.
type WhisperRecall struct {
	MessageID int64
	SendID    int64
	AcceptID  int64
}

func (ErrorFrame) frameType() string     { return "error" }
func (f CounterFrame) frameType() string { return f.Category.String() }
func (WhisperAllRead) frameType() string { return "whisper.all_read" }
func (WhisperRead) frameType() string    { return "whisper.read" }
func (WhisperRemove) frameType() string  { return "whisper.remove" }
func (WhisperReceive) frameType() string { return "whisper.receive" }
func (WhisperRecall) frameType() string  { return "whisper.recall" }

// envelope is the outer shape of every messaging frame. The dynamic type
// carries its payload under content; every other type uses data.
type envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Content json.RawMessage `json:"content"`
}

// payload returns the frame body regardless of which key carried it.
func (e envelope) payload() json.RawMessage {
	primary, fallback := e.Data, e.Content
	if e.Type == "dynamic" {
		primary, fallback = e.Content, e.Data
	}
	if !isAbsent(primary) {
		return primary
	}
	return fallback
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

type subtype struct {
	Type string `json:"type"`
}

type whisperCount struct {
	ID    int64 `json:"id"`
	Count int   `json:"count"`
}

type whisperReceive struct {
	Chat   models.ChatMeta    `json:"chat"`
	Detail models.ChatMessage `json:"detail"`
	User   models.UserProfile `json:"user"`
	Online flexBool           `json:"online"`
}

// whisperRecall accepts both key spellings seen for the participant ids.
type whisperRecall struct {
	ID            int64 `json:"id"`
	SendID        int64 `json:"send_id"`
	AcceptID      int64 `json:"accept_id"`
	SendIDCamel   int64 `json:"sendId"`
	AcceptIDCamel int64 `json:"acceptId"`
}

// DecodeMessagingFrame parses one text frame from the messaging channel.
func DecodeMessagingFrame(raw []byte) (MessagingFrame, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	body := env.payload()
	switch env.Type {
	case "error":
		return ErrorFrame{Message: errorText(body)}, nil
	case "reply", "at", "love", "system", "dynamic":
		cat, _ := models.ParseUnreadCategory(env.Type)
		return decodeCounter(cat, body)
	case "whisper":
		return decodeWhisper(body)
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrameType, env.Type)
	}
}

// errorText renders the error payload, which is normally a bare string.
func errorText(body json.RawMessage) string {
	if isAbsent(body) {
		return ""
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(body))
}

func decodeCounter(cat models.UnreadCategory, body json.RawMessage) (MessagingFrame, error) {
	var st subtype
	if isAbsent(body) {
		return nil, fmt.Errorf("%w: %s frame without payload", ErrMalformedFrame, cat)
	}
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, cat, err)
	}
	switch st.Type {
	case actionAllRead:
		return CounterFrame{Category: cat, Action: CounterAllRead}, nil
	case actionReceive:
		return CounterFrame{Category: cat, Action: CounterReceive}, nil
	default:
		return nil, fmt.Errorf("%w: %s action %q", ErrUnknownFrameType, cat, st.Type)
	}
}

func decodeWhisper(body json.RawMessage) (MessagingFrame, error) {
	if isAbsent(body) {
		return nil, fmt.Errorf("%w: whisper frame without payload", ErrMalformedFrame)
	}
	var st subtype
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("%w: whisper payload: %v", ErrMalformedFrame, err)
	}

	switch st.Type {
	case actionAllRead:
		return WhisperAllRead{}, nil

	case actionRead, actionRemove:
		var c whisperCount
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, fmt.Errorf("%w: whisper %s: %v", ErrMalformedFrame, st.Type, err)
		}
		if st.Type == actionRead {
			return WhisperRead{ThreadID: c.ID, Count: c.Count}, nil
		}
		return WhisperRemove{ThreadID: c.ID, Count: c.Count}, nil

	case actionReceive:
		var r whisperReceive
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("%w: whisper receive: %v", ErrMalformedFrame, err)
		}
		return WhisperReceive{Chat: r.Chat, Detail: r.Detail, User: r.User, Online: bool(r.Online)}, nil

	case actionRecall:
		var r whisperRecall
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("%w: whisper recall: %v", ErrMalformedFrame, err)
		}
		return WhisperRecall{
			MessageID: r.ID,
			SendID:    firstNonZero(r.SendID, r.SendIDCamel),
			AcceptID:  firstNonZero(r.AcceptID, r.AcceptIDCamel),
		}, nil

	default:
		return nil, fmt.Errorf("%w: whisper action %q", ErrUnknownFrameType, st.Type)
	}
}

// DanmuFrame is one decoded frame from a danmu channel: DanmuDelete,
// DanmuNotice or DanmuPush.
type DanmuFrame interface {
	frameType() string
}

// DanmuDelete removes an entry by server id.
type DanmuDelete struct {
	ID int64
}

// DanmuNotice is an informational broadcast such as the viewer count.
// Code is set when the server answered with a command frame: -1 for an
// error addressed to this viewer, 110 for a heartbeat.
type DanmuNotice struct {
	Text string
	Code int
}

// Command codes carried by danmu control frames.
const (
	danmuCommandError     = -1
	danmuCommandHeartbeat = 110
)

// DanmuPush is a new entry broadcast to every viewer.
type DanmuPush struct {
	Entry models.DanmuEntry
}

func (DanmuDelete) frameType() string { return "delete" }
func (DanmuNotice) frameType() string { return "notice" }
func (DanmuPush) frameType() string   { return "push" }

type danmuProbe struct {
	Type       string `json:"type"`
	DanmuID    int64  `json:"danmuId"`
	DanmuIDKey int64  `json:"danmu_id"`
	ID         int64  `json:"id"`
	Code       *int   `json:"code"`
	Content    string `json:"content"`
}

// wireDanmu also accepts the camelCase keys the broadcast path emits.
type wireDanmu struct {
	models.DanmuEntry
	TimePoint  *float64          `json:"timePoint"`
	CreateDate *models.Timestamp `json:"createDate"`
}

// DecodeDanmuFrame parses one text frame from a danmu channel. Besides JSON
// the server sends the viewer count as plain text, which decodes as a
// notice.
func DecodeDanmuFrame(raw []byte) (DanmuFrame, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return DanmuNotice{Text: s}, nil

	case '{':
		var probe danmuProbe
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		if probe.Type == "delete" {
			id := firstNonZero(probe.DanmuID, probe.DanmuIDKey, probe.ID)
			if id == 0 {
				return nil, fmt.Errorf("%w: delete without id", ErrMalformedFrame)
			}
			return DanmuDelete{ID: id}, nil
		}
		if probe.Code != nil {
			return DanmuNotice{Text: probe.Content, Code: *probe.Code}, nil
		}

		var w wireDanmu
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("%w: danmu entry: %v", ErrMalformedFrame, err)
		}
		entry := w.DanmuEntry
		if w.TimePoint != nil {
			entry.TimeOffset = *w.TimePoint
		}
		if w.CreateDate != nil && entry.CreatedAt.IsZero() {
			entry.CreatedAt = *w.CreateDate
		}
		return DanmuPush{Entry: entry}, nil

	default:
		if json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: danmu frame is neither string nor object", ErrUnknownFrameType)
		}
		return DanmuNotice{Text: string(trimmed)}, nil
	}
}

func firstNonZero(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// flexBool decodes JSON booleans as well as 0/1 and "true"/"false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", `"true"`, "1", `"1"`:
		*b = true
		return nil
	case "false", `"false"`, "0", `"0"`, "null", `""`:
		*b = false
		return nil
	}
	if n, err := strconv.ParseFloat(string(data), 64); err == nil {
		*b = n != 0
		return nil
	}
	return fmt.Errorf("invalid boolean %s", string(data))
}
