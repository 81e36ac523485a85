// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"strconv"

	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/logging"
)

func (r *Reconciler) applyDanmu(frame DanmuFrame, videoID string) {
	switch f := frame.(type) {
	case DanmuDelete:
		if !r.deps.Danmu.RemoveByID(f.ID) {
			r.unroutable(Danmu, f.frameType(), "Delete for uncached danmu")
			return
		}
		r.changed(events.ChangeDanmu)
	case DanmuNotice:
		switch f.Code {
		case danmuCommandHeartbeat:
		case danmuCommandError:
			r.notify(events.NoticeError, f.Text)
		default:
			logging.Debug().Str("video", videoID).Str("text", f.Text).Msg("Danmu broadcast")
			r.notify(events.NoticeInfo, f.Text)
		}
	case DanmuPush:
		entry := f.Entry
		if entry.VideoID == 0 {
			if vid, err := strconv.ParseInt(videoID, 10, 64); err == nil {
				entry.VideoID = vid
			}
		}
		r.deps.Danmu.Append(entry)
		r.changed(events.ChangeDanmu)
	}
}
