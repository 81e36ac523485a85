// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/temimi-realtime/internal/models"
)

func TestDecodeMessagingFrame(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want MessagingFrame
	}{
		{
			name: "error string",
			raw:  `{"type":"error","data":"登录已过期"}`,
			want: ErrorFrame{Message: "登录已过期"},
		},
		{
			name: "reply receive",
			raw:  `{"type":"reply","data":{"type":"接收"}}`,
			want: CounterFrame{Category: models.UnreadReply, Action: CounterReceive},
		},
		{
			name: "system all read",
			raw:  `{"type":"system","data":{"type":"全部已读"}}`,
			want: CounterFrame{Category: models.UnreadSystem, Action: CounterAllRead},
		},
		{
			name: "dynamic uses content key",
			raw:  `{"type":"dynamic","content":{"type":"接收"}}`,
			want: CounterFrame{Category: models.UnreadDynamic, Action: CounterReceive},
		},
		{
			name: "dynamic falls back to data key",
			raw:  `{"type":"dynamic","data":{"type":"全部已读"}}`,
			want: CounterFrame{Category: models.UnreadDynamic, Action: CounterAllRead},
		},
		{
			name: "whisper all read",
			raw:  `{"type":"whisper","data":{"type":"全部已读"}}`,
			want: WhisperAllRead{},
		},
		{
			name: "whisper read",
			raw:  `{"type":"whisper","data":{"type":"已读","id":12,"count":3}}`,
			want: WhisperRead{ThreadID: 12, Count: 3},
		},
		{
			name: "whisper remove",
			raw:  `{"type":"whisper","data":{"type":"移除","id":12,"count":1}}`,
			want: WhisperRemove{ThreadID: 12, Count: 1},
		},
		{
			name: "whisper recall snake case",
			raw:  `{"type":"whisper","data":{"type":"撤回","id":5,"send_id":1,"accept_id":2}}`,
			want: WhisperRecall{MessageID: 5, SendID: 1, AcceptID: 2},
		},
		{
			name: "whisper recall camel case",
			raw:  `{"type":"whisper","data":{"type":"撤回","id":5,"sendId":1,"acceptId":2}}`,
			want: WhisperRecall{MessageID: 5, SendID: 1, AcceptID: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMessagingFrame([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeMessagingFrame() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeMessagingFrame() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeMessagingFrame_WhisperReceive(t *testing.T) {
	raw := `{"type":"whisper","data":{"type":"接收",
		"chat":{"id":100,"user_id":1,"another_id":2,"unread":1,"latest_time":"2026-03-01 10:00:00"},
		"detail":{"id":7,"user_id":2,"another_id":1,"content":"hi","time":"2026-03-01T10:00:00"},
		"user":{"uid":2,"nickname":"peer"},
		"online":1}}`

	frame, err := DecodeMessagingFrame([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeMessagingFrame() error = %v", err)
	}
	rcv, ok := frame.(WhisperReceive)
	if !ok {
		t.Fatalf("frame type = %T, want WhisperReceive", frame)
	}
	if rcv.Chat.ThreadID != 100 || rcv.Chat.AnotherID != 2 {
		t.Errorf("Chat = %+v", rcv.Chat)
	}
	if rcv.Detail.ID != 7 || rcv.Detail.SenderID != 2 || rcv.Detail.RecipientID != 1 {
		t.Errorf("Detail = %+v", rcv.Detail)
	}
	if rcv.User.UID != 2 || rcv.User.Nickname != "peer" {
		t.Errorf("User = %+v", rcv.User)
	}
	if !rcv.Online {
		t.Error("Online = false, want true for numeric 1")
	}
	if rcv.Chat.LatestTime.IsZero() || rcv.Detail.SentAt.IsZero() {
		t.Error("timestamps not decoded")
	}
}

func TestDecodeMessagingFrame_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"not json", `{"type":`, ErrMalformedFrame},
		{"missing type", `{"data":{}}`, ErrMalformedFrame},
		{"unknown type", `{"type":"gift","data":{}}`, ErrUnknownFrameType},
		{"counter without payload", `{"type":"at"}`, ErrMalformedFrame},
		{"counter unknown action", `{"type":"love","data":{"type":"点赞"}}`, ErrUnknownFrameType},
		{"whisper unknown action", `{"type":"whisper","data":{"type":"置顶"}}`, ErrUnknownFrameType},
		{"whisper bad count", `{"type":"whisper","data":{"type":"已读","count":"x"}}`, ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessagingFrame([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeMessagingFrame() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeDanmuFrame(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want DanmuFrame
	}{
		{
			name: "json string notice",
			raw:  `"当前观看人数: 3"`,
			want: DanmuNotice{Text: "当前观看人数: 3"},
		},
		{
			name: "plain text notice",
			raw:  `当前观看人数: 3`,
			want: DanmuNotice{Text: "当前观看人数: 3"},
		},
		{
			name: "delete with danmuId",
			raw:  `{"type":"delete","danmuId":9}`,
			want: DanmuDelete{ID: 9},
		},
		{
			name: "delete with id",
			raw:  `{"type":"delete","id":9}`,
			want: DanmuDelete{ID: 9},
		},
		{
			name: "heartbeat command",
			raw:  `{"code":110,"content":"pong"}`,
			want: DanmuNotice{Text: "pong", Code: 110},
		},
		{
			name: "entry snake case",
			raw:  `{"id":3,"vid":42,"uid":7,"content":"hello","time_point":12.5,"mode":1,"fontsize":25}`,
			want: DanmuPush{Entry: models.DanmuEntry{
				ID: 3, VideoID: 42, SenderID: 7, Content: "hello", TimeOffset: 12.5, Mode: 1, FontSize: 25,
			}},
		},
		{
			name: "entry camel case time point",
			raw:  `{"id":4,"uid":7,"content":"hey","timePoint":3}`,
			want: DanmuPush{Entry: models.DanmuEntry{ID: 4, SenderID: 7, Content: "hey", TimeOffset: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDanmuFrame([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeDanmuFrame() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeDanmuFrame() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeDanmuFrame_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"empty", "  ", ErrMalformedFrame},
		{"truncated object", `{"content":"x"`, ErrMalformedFrame},
		{"delete without id", `{"type":"delete"}`, ErrMalformedFrame},
		{"array", `[1,2]`, ErrUnknownFrameType},
		{"number", `42`, ErrUnknownFrameType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDanmuFrame([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeDanmuFrame() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsSessionExpiry(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"登录已过期，请重新登录", true},
		{"用户未登录", true},
		{"Token Expired", true},
		{"NOT LOGIN", true},
		{"无效的token", true},
		{"内容包含敏感词", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSessionExpiry(tt.msg); got != tt.want {
			t.Errorf("IsSessionExpiry(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
